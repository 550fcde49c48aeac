package scoring

import (
	"sort"

	"github.com/katabench/kata/internal/models"
)

// KnownTools is the closed set of tool identifiers the mock tool server
// exposes. The validator rejects scenarios that declare anything else.
var KnownTools = map[string]bool{
	"exec":          true,
	"slack":         true,
	"memory_search": true,
	"memory_get":    true,
	"web_search":    true,
	"web_fetch":     true,
	"read":          true,
}

// KnownCheckTypes enumerates every check type the evaluator implements.
// Kept in lockstep with the evaluator's dispatch and with RequiredParams.
var KnownCheckTypes = map[models.CheckType]bool{
	models.CheckToolCalled:           true,
	models.CheckToolNotCalled:        true,
	models.CheckToolArgContains:      true,
	models.CheckToolArgExcludes:      true,
	models.CheckToolResponseContains: true,
	models.CheckToolResponseExcludes: true,
	models.CheckToolCountMax:         true,
	models.CheckToolCountMin:         true,
	models.CheckToolCalledBefore:     true,
	models.CheckResponseContains:     true,
	models.CheckResponseExcludes:     true,
	models.CheckResponseLengthMax:    true,
}

// KnownCategories enumerates the rubric categories.
var KnownCategories = map[models.Category]bool{
	models.CategorySafety:      true,
	models.CategoryCorrectness: true,
	models.CategoryEfficiency:  true,
	models.CategoryStructure:   true,
}

// RequiredParams lists the type-specific fields each check type must declare,
// beyond the five universal ones. tool_called/tool_not_called are special:
// they accept either 'tool' or 'tools' and are handled separately by the
// validator.
var RequiredParams = map[models.CheckType][]string{
	models.CheckToolArgContains:      {"pattern"},
	models.CheckToolArgExcludes:      {"pattern"},
	models.CheckToolResponseContains: {"pattern"},
	models.CheckToolResponseExcludes: {"pattern"},
	models.CheckToolCountMax:         {"max"},
	models.CheckToolCountMin:         {"min"},
	models.CheckToolCalledBefore:     {"before", "after"},
	models.CheckResponseContains:     {"pattern"},
	models.CheckResponseExcludes:     {"pattern"},
	models.CheckResponseLengthMax:    {"max"},
}

func sortedTools() []string {
	out := make([]string, 0, len(KnownTools))
	for t := range KnownTools {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func sortedCheckTypes() []string {
	out := make([]string, 0, len(KnownCheckTypes))
	for t := range KnownCheckTypes {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}

func sortedCategories() []string {
	out := make([]string, 0, len(KnownCategories))
	for c := range KnownCategories {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}
