package directives

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var settingRE = regexp.MustCompile(`(\w[\w-]*)=("[^"]*"|'[^']*'|\S+)`)

// ParseSettings splits trailing "key=value" text into known settings and
// wrapper attributes. Keys present in defaults are settings; every other key
// becomes an attribute of the fragment wrapper. Values may be single- or
// double-quoted. Text that is not a key=value pair is an error.
func ParseSettings(text string, defaults map[string]string) (map[string]string, []html.Attribute, error) {
	settings := make(map[string]string, len(defaults))
	for k, v := range defaults {
		settings[k] = v
	}

	var attrs []html.Attribute
	rest := settingRE.ReplaceAllStringFunc(text, func(pair string) string {
		m := settingRE.FindStringSubmatch(pair)
		key, val := m[1], unquote(m[2])
		if _, known := defaults[key]; known {
			settings[key] = val
		} else {
			attrs = append(attrs, html.Attribute{Key: key, Val: val})
		}
		return ""
	})

	if leftover := strings.TrimSpace(rest); leftover != "" {
		return settings, attrs, fmt.Errorf("unrecognized settings text %q", leftover)
	}
	return settings, attrs, nil
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
