package stage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Params carries stage-specific settings (opaque to the engine).
type Params map[string]any

// UnmarshalYAML decodes a mapping and normalises every nested mapping to
// Params, so the accessors see one map type whatever the decoder chose.
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*p = NormalizeParams(raw)
	return nil
}

// NormalizeParams converts m and every mapping nested in it, including
// mappings inside lists, to Params.
func NormalizeParams(m map[string]any) Params {
	if m == nil {
		return nil
	}
	out := make(Params, len(m))
	for key, value := range m {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case Params:
		return NormalizeParams(v)
	case map[string]any:
		return NormalizeParams(v)
	case map[any]any:
		m := make(map[string]any, len(v))
		for key, val := range v {
			m[fmt.Sprint(key)] = val
		}
		return NormalizeParams(m)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	}
	return value
}

// Clone returns a shallow copy of the params map.
func (p Params) Clone() Params {
	if len(p) == 0 {
		return nil
	}
	clone := make(Params, len(p))
	for key, value := range p {
		clone[key] = value
	}
	return clone
}

// String returns the value for key as a trimmed string.
func (p Params) String(key, fallback string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return fallback
	}
	text := strings.TrimSpace(fmt.Sprint(value))
	if text == "" {
		return fallback
	}
	return text
}

// Int returns the value for key as an int. Strings are parsed.
func (p Params) Int(key string, fallback int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

// Float returns the value for key as a float64. Strings are parsed.
func (p Params) Float(key string, fallback float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

// Bool returns the value for key as a bool. Strings are parsed.
func (p Params) Bool(key string, fallback bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

// Duration accepts Go duration strings ("1500ms") or a number of
// milliseconds.
func (p Params) Duration(key string, fallback time.Duration) time.Duration {
	switch v := p[key].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v * float64(time.Millisecond))
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}

// Strings returns the value for key as a list of strings. A single string
// is split on commas.
func (p Params) Strings(key string) []string {
	var out []string
	switch v := p[key].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
	case string:
		out = strings.Split(v, ",")
	}
	cleaned := out[:0]
	for _, item := range out {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// List returns the value for key as a list of nested params.
func (p Params) List(key string) []Params {
	var out []Params
	switch v := p[key].(type) {
	case []Params:
		out = append(out, v...)
	case []map[string]any:
		for _, item := range v {
			out = append(out, Params(item))
		}
	case []any:
		for _, item := range v {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, Params(m))
			case Params:
				out = append(out, m)
			}
		}
	}
	return out
}

// Map returns the value for key as a string-to-string map.
func (p Params) Map(key string) map[string]string {
	var out map[string]string
	switch v := p[key].(type) {
	case map[string]string:
		out = make(map[string]string, len(v))
		for k, val := range v {
			out[k] = val
		}
	case map[string]any:
		out = stringMap(v)
	case Params:
		out = stringMap(v)
	}
	return out
}

func stringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = fmt.Sprint(val)
	}
	return out
}
