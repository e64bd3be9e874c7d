// Package config sets defaults, reads the config file and environment, and
// validates everything the application needs before it starts working.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	Refresh        = pflag.Bool("refresh", false, "Regenerate every style variant of every asset image, then exit")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validStorage   = []string{"s3", "local"}
)

// Setup prepares everything config-related so that the app can start
// working. Function will return an error if something is critically wrong
// and the application can't run because of that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")
	v.BindEnv("app.log_path", "app_log_path")
	v.BindEnv("app.url", "app_url")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.root", "storage_root")

	v.BindEnv("s3.access_key_id", "s3_access_key_id")
	v.BindEnv("s3.secret_access_key", "s3_secret_access_key")
	v.BindEnv("s3.bucket", "s3_bucket")
	v.BindEnv("s3.region", "s3_region")
	v.BindEnv("s3.endpoint", "s3_endpoint")

	v.BindEnv("media.url", "media_url")
	v.BindEnv("media.prefix_url", "media_prefix_url")
	v.BindEnv("media.queue_path", "media_queue_path")

	v.BindEnv("queue.workers", "queue_workers")
	v.BindEnv("queue.poll_interval", "queue_poll_interval")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.root", "storage")

	v.SetDefault("media.url", "/system/{class}/{media}/{id}/{style}/{filename}")
	v.SetDefault("media.default_style", "original")
	v.SetDefault("media.image_quality", 90)
	v.SetDefault("media.auto_orient", true)
	v.SetDefault("media.visibility", "public")
	v.SetDefault("media.queue_path", "")

	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.poll_interval", "5s")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	switch v.GetString("db.driver") {
	case "sqlite", "postgres":
	default:
		return errors.New("invalid db driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db dsn can't be empty")
	}

	if !slices.Contains(validStorage, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("s3.access_key_id") == "" {
			return errors.New("s3 access key id can't be empty")
		}
		if v.GetString("s3.secret_access_key") == "" {
			return errors.New("s3 secret access key can't be empty")
		}
		if v.GetString("s3.bucket") == "" {
			return errors.New("s3 bucket can't be empty")
		}
	case "local":
		if v.GetString("storage.root") == "" {
			return errors.New("storage root can't be empty")
		}
	}

	if v.GetInt("media.image_quality") <= 0 || v.GetInt("media.image_quality") > 100 {
		return errors.New("media.image_quality must be between 1 and 100")
	}

	if v.GetInt("queue.workers") <= 0 {
		return errors.New("queue.workers must be bigger than 0")
	}

	return nil
}

// MediaDefaults builds the base attachment configuration layer out of the
// media.* config keys. Per-attachment layers stack on top of it.
func MediaDefaults() map[string]any {
	layer := map[string]any{
		"url":           v.GetString("media.url"),
		"default_style": v.GetString("media.default_style"),
		"image_quality": v.GetInt("media.image_quality"),
		"auto_orient":   v.GetBool("media.auto_orient"),
		"visibility":    v.GetString("media.visibility"),
		"app_url":       v.GetString("app.url"),
	}

	for key, from := range map[string]string{
		"prefix_url":  "media.prefix_url",
		"default_url": "media.default_url",
		"waiting_url": "media.waiting_url",
		"loading_url": "media.loading_url",
		"failed_url":  "media.failed_url",
		"root_path":   "media.root_path",
	} {
		if s := v.GetString(from); s != "" {
			layer[key] = s
		}
	}

	if qp := v.GetString("media.queue_path"); qp != "" {
		layer["queueable"] = true
		layer["queue_path"] = qp
	}

	return layer
}
