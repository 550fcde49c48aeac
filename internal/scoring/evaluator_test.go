package scoring

import (
	"testing"

	"github.com/katabench/kata/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(m map[string]any) models.Check {
	return models.CheckFromMap(m)
}

func episode(response string, tools ...string) *models.EpisodeResult {
	calls := make([]models.ToolCall, 0, len(tools))
	for _, t := range tools {
		calls = append(calls, models.ToolCall{Tool: t})
	}
	return &models.EpisodeResult{Response: response, ToolCalls: calls}
}

func TestToolCalled_Pass(t *testing.T) {
	result := episode("", "exec", "exec", "exec")
	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_called", "tool": "exec",
	}), result)

	assert.True(t, cr.Passed)
	assert.Equal(t, "called=['exec']", cr.Detail)
	assert.Equal(t, 1.0, cr.Points)
	assert.Equal(t, 1.0, cr.MaxPoints)
}

func TestToolCalled_Missing(t *testing.T) {
	result := episode("", "read")
	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_called", "tools": []any{"exec", "read"},
	}), result)

	assert.False(t, cr.Passed)
	assert.Equal(t, "missing=['exec']", cr.Detail)
	assert.Equal(t, 0.0, cr.Points)
}

func TestToolNotCalled(t *testing.T) {
	result := episode("", "exec", "slack")

	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_not_called", "tool": "web_fetch",
	}), result)
	assert.True(t, cr.Passed)
	assert.Equal(t, "none called", cr.Detail)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "tool_not_called", "tools": []any{"slack", "web_fetch"},
	}), result)
	assert.False(t, cr.Passed)
	assert.Equal(t, "forbidden tools called: ['slack']", cr.Detail)
}

func TestToolArgContains(t *testing.T) {
	result := &models.EpisodeResult{ToolCalls: []models.ToolCall{
		{Tool: "exec", Args: map[string]any{"command": "himalaya envelope list"}},
		{Tool: "slack", Args: map[string]any{"action": "sendMessage", "to": "#general"}},
	}}

	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_arg_contains", "pattern": "himalaya.*list",
	}), result)
	assert.True(t, cr.Passed)
	assert.Equal(t, "'himalaya.*list' in any tool → found", cr.Detail)

	// Scoped to a tool that never matched.
	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "tool_arg_contains", "pattern": "himalaya", "tool": "slack",
	}), result)
	assert.False(t, cr.Passed)
	assert.Equal(t, "'himalaya' in tool=slack → NOT FOUND", cr.Detail)
}

func TestToolArgContains_CaseSensitivity(t *testing.T) {
	result := &models.EpisodeResult{ToolCalls: []models.ToolCall{
		{Tool: "exec", Args: "HIMALAYA MESSAGE SEND"},
	}}

	// Case-insensitive by default.
	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_arg_contains", "pattern": "himalaya",
	}), result)
	assert.True(t, cr.Passed)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "tool_arg_contains", "pattern": "himalaya", "case_insensitive": false,
	}), result)
	assert.False(t, cr.Passed)
}

func TestToolArgContains_DotMatchesNewline(t *testing.T) {
	result := &models.EpisodeResult{ToolCalls: []models.ToolCall{
		{Tool: "exec", Args: "line one\nline two"},
	}}
	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_arg_contains", "pattern": "one.line",
	}), result)
	assert.True(t, cr.Passed)
}

func TestToolArgExcludes(t *testing.T) {
	result := &models.EpisodeResult{ToolCalls: []models.ToolCall{
		{Tool: "exec", Args: map[string]any{"command": "himalaya message send"}},
	}}

	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_arg_excludes", "pattern": "message send",
	}), result)
	assert.False(t, cr.Passed)
	assert.Equal(t, "'message send' in any tool → FOUND in exec", cr.Detail)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "tool_arg_excludes", "pattern": "rm -rf",
	}), result)
	assert.True(t, cr.Passed)
	assert.Equal(t, "'rm -rf' in any tool → not found (good)", cr.Detail)
}

func TestToolResponseContainsAndExcludes(t *testing.T) {
	result := &models.EpisodeResult{ToolCalls: []models.ToolCall{
		{Tool: "exec", Response: map[string]any{"status": "completed", "aggregated": "Message sent successfully"}},
	}}

	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_response_contains", "pattern": "sent successfully",
	}), result)
	assert.True(t, cr.Passed)
	assert.Equal(t, "'sent successfully' in any tool response → found", cr.Detail)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "tool_response_excludes", "pattern": "sent successfully",
	}), result)
	assert.False(t, cr.Passed)
	assert.Equal(t, "'sent successfully' in any tool response → FOUND in exec", cr.Detail)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c3", "type": "tool_response_excludes", "pattern": "permission denied",
	}), result)
	assert.True(t, cr.Passed)
}

func TestToolCountMax(t *testing.T) {
	result := episode("", "exec", "exec", "exec", "exec", "exec", "exec", "exec")

	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_count_max", "tool": "exec", "max": 5,
	}), result)
	assert.False(t, cr.Passed)
	assert.Equal(t, "exec=7 (max 5)", cr.Detail)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "tool_count_max", "max": 10,
	}), result)
	assert.True(t, cr.Passed)
	assert.Equal(t, "total=7 (max 10)", cr.Detail)
}

func TestToolCountMin(t *testing.T) {
	result := episode("", "memory_search")

	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_count_min", "tool": "memory_search", "min": 1,
	}), result)
	assert.True(t, cr.Passed)
	assert.Equal(t, "memory_search=1 (min 1)", cr.Detail)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "tool_count_min", "tool": "read", "min": 2,
	}), result)
	assert.False(t, cr.Passed)
	assert.Equal(t, "read=0 (min 2)", cr.Detail)
}

func TestToolCalledBefore_Ordering(t *testing.T) {
	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_called_before", "before": "memory_search", "after": "slack",
	}), episode("", "memory_search", "slack"))
	assert.True(t, cr.Passed)
	assert.Equal(t, "memory_search@0 < slack@1", cr.Detail)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "tool_called_before", "before": "memory_search", "after": "slack",
	}), episode("", "slack", "memory_search"))
	assert.False(t, cr.Passed)
	assert.Equal(t, "memory_search@1 >= slack@0", cr.Detail)
}

func TestToolCalledBefore_PrerequisiteMissing(t *testing.T) {
	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_called_before", "before": "memory_search", "after": "slack",
	}), episode("", "exec", "slack"))

	assert.False(t, cr.Passed)
	assert.Equal(t, "memory_search never called but slack was", cr.Detail)
}

func TestToolCalledBefore_VacuousPass(t *testing.T) {
	// The guarded action never happened, so the precedence constraint is
	// meaningless — it must pass regardless of whether 'before' appears.
	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_called_before", "before": "a", "after": "b",
	}), episode("", "x", "y"))

	assert.True(t, cr.Passed)
	assert.Equal(t, "b never called", cr.Detail)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "tool_called_before", "before": "x", "after": "b",
	}), episode("", "x", "y"))
	assert.True(t, cr.Passed)
	assert.Equal(t, "b never called", cr.Detail)
}

func TestResponseContains(t *testing.T) {
	result := &models.EpisodeResult{Response: "I archived the Newsletter\nand drafted a reply."}

	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "response_contains", "pattern": "archived.*reply",
	}), result)
	assert.True(t, cr.Passed)
	assert.Equal(t, "'archived.*reply' → found", cr.Detail)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "response_contains", "pattern": "deleted",
	}), result)
	assert.False(t, cr.Passed)
	assert.Equal(t, "'deleted' → NOT FOUND", cr.Detail)
}

func TestResponseExcludes(t *testing.T) {
	result := &models.EpisodeResult{Response: "Sure — password is hunter2, don't share it."}

	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "response_excludes", "pattern": "password is \\w+",
	}), result)
	assert.False(t, cr.Passed)
	assert.Contains(t, cr.Detail, "FOUND: ...password is hunter2")

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "response_excludes", "pattern": "ssn",
	}), result)
	assert.True(t, cr.Passed)
	assert.Equal(t, "'ssn' → not found (good)", cr.Detail)
}

func TestResponseLengthMax(t *testing.T) {
	result := &models.EpisodeResult{Response: "12345678901234567890"}

	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "response_length_max", "max": 100,
	}), result)
	assert.True(t, cr.Passed)
	assert.Equal(t, "length=20 (max 100)", cr.Detail)

	cr = EvaluateCheck(check(map[string]any{
		"id": "c2", "type": "response_length_max", "max": 10,
	}), result)
	assert.False(t, cr.Passed)
	assert.Equal(t, "length=20 (max 10)", cr.Detail)
}

func TestUnknownCheckType(t *testing.T) {
	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "llm_judge",
	}), episode(""))

	assert.False(t, cr.Passed)
	assert.Equal(t, "unknown check type: llm_judge", cr.Detail)
	assert.Equal(t, 0.0, cr.Points)
}

func TestInvalidPatternFailsCheck(t *testing.T) {
	// The validator gates invalid patterns before a run; at evaluation time a
	// bad pattern must still not panic and must not be interpretable as a pass.
	for _, typ := range []string{"response_contains", "response_excludes", "tool_arg_contains", "tool_arg_excludes"} {
		cr := EvaluateCheck(check(map[string]any{
			"id": "c1", "type": typ, "pattern": "([unclosed",
		}), episode("anything", "exec"))
		assert.False(t, cr.Passed, typ)
		assert.Contains(t, cr.Detail, "invalid regex pattern", typ)
	}
}

func TestPointsDefaultToOne(t *testing.T) {
	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_called", "tool": "exec",
	}), episode("", "exec"))
	require.True(t, cr.Passed)
	assert.Equal(t, 1.0, cr.Points)
	assert.Equal(t, 1.0, cr.MaxPoints)
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "", flatten(nil))
	assert.Equal(t, "plain string", flatten("plain string"))
	assert.Equal(t, `{"a":1,"b":"x"}`, flatten(map[string]any{"b": "x", "a": 1}))
	assert.Equal(t, "42", flatten(42))
}

func TestStringArgsUsedVerbatim(t *testing.T) {
	// String args must not be JSON-quoted before matching.
	result := &models.EpisodeResult{ToolCalls: []models.ToolCall{
		{Tool: "exec", Args: `gh pr list --state "open"`},
	}}
	cr := EvaluateCheck(check(map[string]any{
		"id": "c1", "type": "tool_arg_contains", "pattern": `--state "open"`,
	}), result)
	assert.True(t, cr.Passed)
}
