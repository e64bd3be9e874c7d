package media

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jinzhu/inflection"
)

// Tokens are {identifier} with identifiers drawn from [A-Za-z0-9_.-]. The
// empty token {} is syntactically valid and resolves like any other
// unknown token, to the empty string.
var tokenPattern = regexp.MustCompile(`\{([A-Za-z0-9_.\-]*)\}`)

// Interpolator expands path and URL templates against one attachment.
// Interpolation is pure: the same (template, style) input always produces
// the same output, which is what lets write and delete paths agree.
type Interpolator struct {
	m *Manager
}

func (m *Manager) Interpolator() *Interpolator {
	return &Interpolator{m: m}
}

// Interpolate replaces every {token} in the template. Resolution order is
// built-in tokens, then user overrides from the interpolate config map,
// then fields on the bound record. Unresolvable tokens become the empty
// string; this never fails.
func (ip *Interpolator) Interpolate(template, styleName string) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		return ip.resolve(match[1:len(match)-1], styleName)
	})
}

func (ip *Interpolator) resolve(token, styleName string) string {
	m := ip.m

	switch token {
	case "filename":
		return m.Filename()
	case "class":
		return className(m)
	case "basename":
		name := m.Filename()
		if i := strings.LastIndex(name, "."); i >= 0 {
			return name[:i]
		}
		return name
	case "extension":
		name := m.Filename()
		if i := strings.LastIndex(name, "."); i >= 0 {
			return name[i+1:]
		}
		return ""
	case "id":
		return recordID(m)
	case "media":
		return inflection.Plural(m.Name)
	case "style":
		if styleName != "" {
			return styleName
		}
		return m.cfg.DefaultStyle
	case "app_url":
		return m.cfg.AppURL
	case "root_path":
		return m.cfg.RootPath
	case "queue_state":
		return m.QueueState().Text()
	}

	if v, ok := m.cfg.Interpolate[token]; ok {
		return v
	}

	if m.rec == nil {
		return ""
	}

	return stringify(m.rec.GetField(token))
}

// className renders the record's qualified type name the way paths want
// it: lowercase and slash separated.
func className(m *Manager) string {
	if m.rec == nil {
		return ""
	}

	name := strings.NewReplacer(".", "/", "\\", "/").Replace(m.rec.TypeName())

	return strings.ToLower(strings.TrimPrefix(name, "/"))
}

func recordID(m *Manager) string {
	if m.rec == nil {
		return ""
	}

	if key := m.cfg.ModelPrimaryKey; key != "" {
		return stringify(m.rec.GetField(key))
	}

	return stringify(m.rec.PrimaryKey())
}

func stringify(v any) string {
	if v == nil {
		return ""
	}

	return fmt.Sprint(v)
}
