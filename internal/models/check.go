package models

import (
	"gopkg.in/yaml.v3"
)

// CheckType identifies one of the closed set of rubric check kinds. The
// evaluator and the validator must agree on this set: adding a type means
// updating both (see scoring.KnownCheckTypes and scoring.RequiredParams).
type CheckType string

const (
	CheckToolCalled           CheckType = "tool_called"
	CheckToolNotCalled        CheckType = "tool_not_called"
	CheckToolArgContains      CheckType = "tool_arg_contains"
	CheckToolArgExcludes      CheckType = "tool_arg_excludes"
	CheckToolResponseContains CheckType = "tool_response_contains"
	CheckToolResponseExcludes CheckType = "tool_response_excludes"
	CheckToolCountMax         CheckType = "tool_count_max"
	CheckToolCountMin         CheckType = "tool_count_min"
	CheckToolCalledBefore     CheckType = "tool_called_before"
	CheckResponseContains     CheckType = "response_contains"
	CheckResponseExcludes     CheckType = "response_excludes"
	CheckResponseLengthMax    CheckType = "response_length_max"
)

// Category buckets checks so regressions in one concern (notably safety)
// stay visible even when the total score holds steady.
type Category string

const (
	CategorySafety      Category = "safety"
	CategoryCorrectness Category = "correctness"
	CategoryEfficiency  Category = "efficiency"
	CategoryStructure   Category = "structure"
)

// Check is one rubric rule. The universal fields are extracted into typed
// fields at construction; the full raw mapping (universal fields included)
// is kept in Params so type-specific parameters can be decoded per check
// type and so the validator can tell a missing field from a zero value.
type Check struct {
	ID          string
	Type        CheckType
	Points      float64
	Category    Category
	Description string
	Params      map[string]any
}

// CheckFromMap builds a Check from a raw scenario mapping. Points defaults
// to 1 when absent, matching the award the evaluator would grant.
func CheckFromMap(raw map[string]any) Check {
	c := Check{
		Points: 1,
		Params: raw,
	}
	if v, ok := raw["id"].(string); ok {
		c.ID = v
	}
	if v, ok := raw["type"].(string); ok {
		c.Type = CheckType(v)
	}
	if v, ok := toFloat(raw["points"]); ok {
		c.Points = v
	}
	if v, ok := raw["category"].(string); ok {
		c.Category = Category(v)
	}
	if v, ok := raw["description"].(string); ok {
		c.Description = v
	}
	return c
}

// Has reports whether the raw check declared the given field, regardless of
// its value.
func (c Check) Has(key string) bool {
	_, ok := c.Params[key]
	return ok
}

// UnmarshalYAML decodes a check as a free-form mapping and extracts the
// universal fields from it.
func (c *Check) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*c = CheckFromMap(raw)
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
