package scoring

import (
	"fmt"
	"regexp"

	"github.com/katabench/kata/internal/models"
)

// ValidateScenario statically validates a scenario and its rubric before any
// episode runs against it. It returns every problem found as a
// human-readable string (empty slice means valid) and never panics on
// malformed input — fail-fast would hide errors from scenario authors, so
// all problems are collected in one pass.
func ValidateScenario(sc *models.Scenario) []string {
	var errors []string

	if sc == nil {
		return []string{"scenario is nil"}
	}

	if sc.Name == "" {
		errors = append(errors, "missing or invalid top-level field: 'name' (string)")
	}
	if sc.Tools == nil {
		errors = append(errors, "missing or invalid top-level field: 'tools' (list)")
	}
	if sc.Prompt == "" {
		errors = append(errors, "missing or invalid top-level field: 'prompt' (string)")
	}
	if sc.Variants == nil {
		errors = append(errors, "missing or invalid top-level field: 'variants' (mapping)")
	}

	for _, tool := range sc.Tools {
		if !KnownTools[tool] {
			errors = append(errors, fmt.Sprintf("unknown tool: '%s' (known: %s)", tool, quoteList(sortedTools())))
		}
	}

	seen := make(map[string]bool)
	for i, chk := range sc.Scoring.Checks {
		errors = append(errors, validateCheck(i, chk, seen)...)
	}

	return errors
}

func validateCheck(i int, chk models.Check, seen map[string]bool) []string {
	var errors []string
	prefix := fmt.Sprintf("check[%d]", i)

	for _, field := range []string{"id", "type", "points", "category", "description"} {
		if !chk.Has(field) {
			errors = append(errors, fmt.Sprintf("%s: missing required field '%s'", prefix, field))
		}
	}

	id := chk.ID
	if !chk.Has("id") {
		id = fmt.Sprintf("<unnamed-%d>", i)
	}

	if seen[id] {
		errors = append(errors, fmt.Sprintf("%s: duplicate check id '%s'", prefix, id))
	}
	seen[id] = true

	if chk.Type != "" && !KnownCheckTypes[chk.Type] {
		errors = append(errors, fmt.Sprintf("%s (%s): unknown check type '%s' (known: %s)",
			prefix, id, chk.Type, quoteList(sortedCheckTypes())))
	}

	if chk.Category != "" && !KnownCategories[chk.Category] {
		errors = append(errors, fmt.Sprintf("%s (%s): unknown category '%s' (known: %s)",
			prefix, id, chk.Category, quoteList(sortedCategories())))
	}

	if chk.Type == models.CheckToolCalled || chk.Type == models.CheckToolNotCalled {
		if !chk.Has("tool") && !chk.Has("tools") {
			errors = append(errors, fmt.Sprintf("%s (%s): type '%s' requires 'tool' or 'tools'",
				prefix, id, chk.Type))
		}
	}

	for _, field := range RequiredParams[chk.Type] {
		if !chk.Has(field) {
			errors = append(errors, fmt.Sprintf("%s (%s): type '%s' requires '%s'",
				prefix, id, chk.Type, field))
		}
	}

	if chk.Has("pattern") {
		pattern, _ := chk.Params["pattern"].(string)
		if _, err := regexp.Compile(pattern); err != nil {
			errors = append(errors, fmt.Sprintf("%s (%s): invalid regex pattern: %v", prefix, id, err))
		}
	}

	return errors
}
