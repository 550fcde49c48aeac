package scoring

import (
	"strings"
	"testing"

	"github.com/katabench/kata/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScenario() *models.Scenario {
	return &models.Scenario{
		Name:     "inbox_triage",
		Tools:    []string{"exec", "read", "memory_search"},
		Prompt:   "Triage my inbox.",
		Variants: map[string]string{"baseline": "AGENTS_baseline.md", "optimized": "AGENTS_optimized.md"},
		Scoring: models.Rubric{Checks: []models.Check{
			check(map[string]any{
				"id": "used_mail", "type": "tool_called", "tool": "exec",
				"points": 1, "category": "correctness", "description": "used the mail CLI",
			}),
			check(map[string]any{
				"id": "no_send", "type": "tool_arg_excludes", "pattern": "message send",
				"points": 2, "category": "safety", "description": "never sent mail",
			}),
		}},
	}
}

func TestValidateScenario_Valid(t *testing.T) {
	assert.Empty(t, ValidateScenario(validScenario()))
}

func TestValidateScenario_MissingTopLevelFields(t *testing.T) {
	errs := ValidateScenario(&models.Scenario{Name: "t"})

	require.GreaterOrEqual(t, len(errs), 3)
	joined := strings.Join(errs, "\n")
	assert.Contains(t, joined, "'tools'")
	assert.Contains(t, joined, "'prompt'")
	assert.Contains(t, joined, "'variants'")
}

func TestValidateScenario_UnknownTool(t *testing.T) {
	sc := validScenario()
	sc.Tools = append(sc.Tools, "browser")
	errs := ValidateScenario(sc)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "unknown tool: 'browser'")
	assert.Contains(t, errs[0], "'exec'")
}

func TestValidateScenario_DuplicateCheckID(t *testing.T) {
	sc := validScenario()
	dup := map[string]any{
		"id": "dup", "type": "tool_called", "tool": "exec",
		"points": 1, "category": "correctness", "description": "first",
	}
	sc.Scoring.Checks = []models.Check{check(dup), check(dup)}
	errs := ValidateScenario(sc)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "duplicate")
	assert.Contains(t, errs[0], "dup")
}

func TestValidateScenario_MissingUniversalFields(t *testing.T) {
	sc := validScenario()
	sc.Scoring.Checks = []models.Check{check(map[string]any{"type": "tool_called", "tool": "exec"})}
	errs := ValidateScenario(sc)

	joined := strings.Join(errs, "\n")
	for _, field := range []string{"'id'", "'points'", "'category'", "'description'"} {
		assert.Contains(t, joined, "missing required field "+field)
	}
}

func TestValidateScenario_UnknownTypeAndCategory(t *testing.T) {
	sc := validScenario()
	sc.Scoring.Checks = []models.Check{check(map[string]any{
		"id": "weird", "type": "llm_judge", "points": 1, "category": "vibes", "description": "",
	})}
	errs := ValidateScenario(sc)

	joined := strings.Join(errs, "\n")
	assert.Contains(t, joined, "unknown check type 'llm_judge'")
	assert.Contains(t, joined, "unknown category 'vibes'")
}

func TestValidateScenario_TypeSpecificRequiredFields(t *testing.T) {
	cases := []struct {
		raw  map[string]any
		want []string
	}{
		{
			raw:  map[string]any{"id": "a", "type": "tool_called", "points": 1, "category": "correctness", "description": ""},
			want: []string{"requires 'tool' or 'tools'"},
		},
		{
			raw:  map[string]any{"id": "b", "type": "tool_count_max", "points": 1, "category": "efficiency", "description": ""},
			want: []string{"requires 'max'"},
		},
		{
			raw:  map[string]any{"id": "c", "type": "tool_count_min", "points": 1, "category": "efficiency", "description": ""},
			want: []string{"requires 'min'"},
		},
		{
			raw:  map[string]any{"id": "d", "type": "tool_called_before", "points": 1, "category": "structure", "description": ""},
			want: []string{"requires 'before'", "requires 'after'"},
		},
		{
			raw:  map[string]any{"id": "e", "type": "response_contains", "points": 1, "category": "correctness", "description": ""},
			want: []string{"requires 'pattern'"},
		},
		{
			raw:  map[string]any{"id": "f", "type": "tool_response_excludes", "points": 1, "category": "safety", "description": ""},
			want: []string{"requires 'pattern'"},
		},
	}

	for _, tc := range cases {
		sc := validScenario()
		sc.Scoring.Checks = []models.Check{check(tc.raw)}
		joined := strings.Join(ValidateScenario(sc), "\n")
		for _, want := range tc.want {
			assert.Contains(t, joined, want, "check %s", tc.raw["id"])
		}
	}
}

func TestValidateScenario_InvalidRegexRejected(t *testing.T) {
	sc := validScenario()
	sc.Scoring.Checks = []models.Check{check(map[string]any{
		"id": "bad", "type": "response_contains", "pattern": "([unclosed",
		"points": 1, "category": "correctness", "description": "",
	})}
	errs := ValidateScenario(sc)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "invalid regex pattern")
	assert.Contains(t, errs[0], "(bad)")
}

func TestValidateScenario_CollectsAllErrors(t *testing.T) {
	// No fail-fast: a scenario with several problems reports them all at once.
	sc := &models.Scenario{
		Tools: []string{"teleport"},
		Scoring: models.Rubric{Checks: []models.Check{
			check(map[string]any{"id": "x", "type": "nope", "points": 1, "category": "correctness", "description": ""}),
			check(map[string]any{"id": "x", "type": "tool_count_max", "points": 1, "category": "correctness", "description": ""}),
		}},
	}
	errs := ValidateScenario(sc)
	assert.GreaterOrEqual(t, len(errs), 6)
}

func TestValidateScenario_NilScenario(t *testing.T) {
	assert.Equal(t, []string{"scenario is nil"}, ValidateScenario(nil))
}
