package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/katabench/kata/internal/models"
)

// Typed parameter records per check type. The raw check mapping is decoded
// into one of these before evaluation, so every parameter a check type needs
// has a named, typed field instead of ad hoc map lookups.

// patternParams covers the regex-based checks: pattern, an optional tool
// scope, and the case_insensitive toggle (default true).
type patternParams struct {
	Pattern         string `mapstructure:"pattern"`
	Tool            string `mapstructure:"tool"`
	CaseInsensitive *bool  `mapstructure:"case_insensitive"`
}

func (p patternParams) caseInsensitive() bool {
	return p.CaseInsensitive == nil || *p.CaseInsensitive
}

// countParams covers tool_count_max/tool_count_min and response_length_max.
type countParams struct {
	Tool string  `mapstructure:"tool"`
	Max  float64 `mapstructure:"max"`
	Min  float64 `mapstructure:"min"`
}

// orderParams covers tool_called_before.
type orderParams struct {
	Before string `mapstructure:"before"`
	After  string `mapstructure:"after"`
}

func decodeParams(check models.Check, out any) error {
	if err := mapstructure.Decode(check.Params, out); err != nil {
		return fmt.Errorf("check %q: decoding params: %w", check.ID, err)
	}
	return nil
}

// toolList normalizes the 'tool'/'tools' parameters to a list of names.
// 'tools' wins when both are present; a plain 'tool' string is wrapped as a
// one-element list, and a list under 'tool' is accepted as-is.
func toolList(check models.Check) []string {
	if v, ok := check.Params["tools"]; ok {
		return anyToStrings(v)
	}
	if v, ok := check.Params["tool"]; ok {
		return anyToStrings(v)
	}
	return nil
}

func anyToStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	default:
		return []string{fmt.Sprintf("%v", t)}
	}
}

// flatten converts a tool call's args or response to a searchable string:
// strings verbatim, structured values as canonical JSON, anything else via
// the default string form. Applied identically on both sides of the
// contains/excludes pairs.
func flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v)
	}
}
