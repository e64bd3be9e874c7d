// Package media implements the attachment lifecycle engine: one named file
// slot on one database record, its derived style variants, and the
// deterministic mapping of both onto storage paths and URLs.
package media

import (
	"errors"
	"fmt"
	"strings"

	"mediakit/disk"
	"mediakit/style"
)

// ErrConfig is the category error for invalid attachment configuration.
// It is raised at construction time only, never mid-save.
var ErrConfig = errors.New("invalid attachment configuration")

// Config is the resolved, immutable configuration of one attachment.
// Build it with ResolveConfig; a hand-built Config skips validation.
type Config struct {
	// Disk names the storage backend, informational once the disk adapter
	// is injected.
	Disk string

	// URL is the storage path template. Must contain an {id} token.
	URL string

	// PrefixURL is prepended to interpolated paths when building display
	// URLs, e.g. a CDN origin.
	PrefixURL string

	// Fallback URL templates for the empty and queued display states.
	DefaultURL string
	WaitingURL string
	LoadingURL string
	FailedURL  string

	// Queueable defers processing: assignment stages the raw upload under
	// QueuePath and marks the attachment waiting.
	Queueable bool
	QueuePath string

	Visibility disk.Visibility

	// Image transform settings.
	Quality    int
	AutoOrient bool
	Palette    string

	DefaultStyle string
	Styles       map[string]style.Style

	// KeepOldFiles skips deleting replaced variants; PreserveFiles skips
	// deleting variants when the attachment is cleared or destroyed.
	KeepOldFiles  bool
	PreserveFiles bool

	// ModelPrimaryKey overrides the field backing the {id} token.
	ModelPrimaryKey string

	// Interpolate holds user supplied token overrides, the one untyped
	// escape hatch of the configuration.
	Interpolate map[string]string

	// Environment values backing the {app_url} and {root_path} tokens.
	AppURL   string
	RootPath string
}

// Layer is one override level of the cascading configuration: system
// defaults, per-driver overrides, then per-attachment overrides.
type Layer map[string]any

// ResolveConfig merges the given layers in precedence order (later layers
// win) over the built-in defaults and validates the result. Unknown keys
// and a url template without an {id} token fail here, at construction,
// rather than at save time.
func ResolveConfig(layers ...Layer) (Config, error) {
	cfg := Config{
		Disk:         "local",
		URL:          "/system/{class}/{media}/{id}/{style}/{filename}",
		Visibility:   disk.Public,
		Quality:      90,
		DefaultStyle: "original",
		Styles:       map[string]style.Style{},
		Interpolate:  map[string]string{},
	}

	for _, layer := range layers {
		for key, value := range layer {
			if err := cfg.set(key, value); err != nil {
				return Config{}, err
			}
		}
	}

	// The unaltered upload is always stored under the implicit "original"
	// style.
	if _, ok := cfg.Styles["original"]; !ok {
		cfg.Styles["original"] = style.Style{}
	}

	if !strings.Contains(cfg.URL, "{id}") {
		return Config{}, fmt.Errorf("%w: url template must contain an {id} token", ErrConfig)
	}

	return cfg, nil
}

func (c *Config) set(key string, value any) error {
	switch key {
	case "disk":
		return asString(key, value, &c.Disk)
	case "url":
		return asString(key, value, &c.URL)
	case "prefix_url":
		return asString(key, value, &c.PrefixURL)
	case "default_url":
		return asString(key, value, &c.DefaultURL)
	case "waiting_url":
		return asString(key, value, &c.WaitingURL)
	case "loading_url":
		return asString(key, value, &c.LoadingURL)
	case "failed_url":
		return asString(key, value, &c.FailedURL)
	case "queueable":
		return asBool(key, value, &c.Queueable)
	case "queue_path":
		return asString(key, value, &c.QueuePath)
	case "visibility":
		var s string
		if err := asString(key, value, &s); err != nil {
			return err
		}
		if s != string(disk.Public) && s != string(disk.Private) {
			return fmt.Errorf("%w: visibility must be public or private, got %q", ErrConfig, s)
		}
		c.Visibility = disk.Visibility(s)
		return nil
	case "image_quality":
		return asInt(key, value, &c.Quality)
	case "auto_orient":
		return asBool(key, value, &c.AutoOrient)
	case "color_palette":
		return asString(key, value, &c.Palette)
	case "default_style":
		return asString(key, value, &c.DefaultStyle)
	case "styles":
		return c.setStyles(value)
	case "keep_old_files":
		return asBool(key, value, &c.KeepOldFiles)
	case "preserve_files":
		return asBool(key, value, &c.PreserveFiles)
	case "model_primary_key":
		return asString(key, value, &c.ModelPrimaryKey)
	case "interpolate":
		return c.setInterpolate(value)
	case "app_url":
		return asString(key, value, &c.AppURL)
	case "root_path":
		return asString(key, value, &c.RootPath)
	}

	return fmt.Errorf("%w: unknown option %q", ErrConfig, key)
}

func (c *Config) setStyles(value any) error {
	switch v := value.(type) {
	case map[string]style.Style:
		for name, st := range v {
			c.Styles[name] = st
		}
	case map[string]string:
		for name, dims := range v {
			c.Styles[name] = style.Style{Dimensions: dims}
		}
	case map[string]any:
		for name, dims := range v {
			s, ok := dims.(string)
			if !ok {
				return fmt.Errorf("%w: style %q must be a dimension string", ErrConfig, name)
			}
			c.Styles[name] = style.Style{Dimensions: s}
		}
	default:
		return fmt.Errorf("%w: styles must be a name to directive map", ErrConfig)
	}

	return nil
}

func (c *Config) setInterpolate(value any) error {
	switch v := value.(type) {
	case map[string]string:
		for name, val := range v {
			c.Interpolate[name] = val
		}
	case map[string]any:
		for name, val := range v {
			s, ok := val.(string)
			if !ok {
				return fmt.Errorf("%w: interpolation %q must be a string", ErrConfig, name)
			}
			c.Interpolate[name] = s
		}
	default:
		return fmt.Errorf("%w: interpolate must be a token to value map", ErrConfig)
	}

	return nil
}

func asString(key string, value any, dst *string) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: option %q must be a string, got %T", ErrConfig, key, value)
	}

	*dst = s
	return nil
}

func asBool(key string, value any, dst *bool) error {
	b, ok := value.(bool)
	if !ok {
		return fmt.Errorf("%w: option %q must be a bool, got %T", ErrConfig, key, value)
	}

	*dst = b
	return nil
}

func asInt(key string, value any, dst *int) error {
	switch v := value.(type) {
	case int:
		*dst = v
	case int64:
		*dst = int(v)
	case float64:
		*dst = int(v)
	default:
		return fmt.Errorf("%w: option %q must be a number, got %T", ErrConfig, key, value)
	}

	return nil
}
