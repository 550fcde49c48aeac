package scoring

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/katabench/kata/internal/models"
)

// EvaluateCheck evaluates one rubric check against one episode result.
// Deterministic for identical inputs. An unknown check type or an
// uncompilable pattern yields a failed CheckResult with an explanatory
// detail rather than aborting the rest of the rubric.
func EvaluateCheck(check models.Check, result *models.EpisodeResult) models.CheckResult {
	passed, detail := evaluate(check, result)

	category := check.Category
	if category == "" {
		category = models.Category("other")
	}

	points := 0.0
	if passed {
		points = check.Points
	}

	return models.CheckResult{
		ID:          check.ID,
		Type:        check.Type,
		Passed:      passed,
		Points:      points,
		MaxPoints:   check.Points,
		Category:    category,
		Description: check.Description,
		Detail:      detail,
	}
}

func evaluate(check models.Check, result *models.EpisodeResult) (bool, string) {
	counts := result.CountsByTool()

	switch check.Type {
	case models.CheckToolCalled:
		tools := toolList(check)
		var called, missing []string
		for _, t := range tools {
			if counts[t] > 0 {
				called = append(called, t)
			} else {
				missing = append(missing, t)
			}
		}
		if len(missing) == 0 {
			return true, fmt.Sprintf("called=%s", quoteList(called))
		}
		return false, fmt.Sprintf("missing=%s", quoteList(missing))

	case models.CheckToolNotCalled:
		tools := toolList(check)
		var violated []string
		for _, t := range tools {
			if counts[t] > 0 {
				violated = append(violated, t)
			}
		}
		if len(violated) > 0 {
			return false, fmt.Sprintf("forbidden tools called: %s", quoteList(violated))
		}
		return true, "none called"

	case models.CheckToolArgContains:
		return matchToolCalls(check, result, matchArgs, false)

	case models.CheckToolArgExcludes:
		return matchToolCalls(check, result, matchArgs, true)

	case models.CheckToolResponseContains:
		return matchToolCalls(check, result, matchResponse, false)

	case models.CheckToolResponseExcludes:
		return matchToolCalls(check, result, matchResponse, true)

	case models.CheckToolCountMax:
		var p countParams
		if err := decodeParams(check, &p); err != nil {
			return false, err.Error()
		}
		label, actual := countFor(p.Tool, counts, result.TotalCalls())
		return float64(actual) <= p.Max, fmt.Sprintf("%s=%d (max %s)", label, actual, formatNum(p.Max))

	case models.CheckToolCountMin:
		var p countParams
		if err := decodeParams(check, &p); err != nil {
			return false, err.Error()
		}
		label, actual := countFor(p.Tool, counts, result.TotalCalls())
		return float64(actual) >= p.Min, fmt.Sprintf("%s=%d (min %s)", label, actual, formatNum(p.Min))

	case models.CheckToolCalledBefore:
		var p orderParams
		if err := decodeParams(check, &p); err != nil {
			return false, err.Error()
		}
		return evaluateOrdering(p, result)

	case models.CheckResponseContains:
		p, re, errDetail := responsePattern(check)
		if re == nil {
			return false, errDetail
		}
		found := re.MatchString(result.Response)
		verdict := "NOT FOUND"
		if found {
			verdict = "found"
		}
		return found, fmt.Sprintf("'%s' → %s", truncate(p.Pattern, 60), verdict)

	case models.CheckResponseExcludes:
		p, re, errDetail := responsePattern(check)
		if re == nil {
			return false, errDetail
		}
		loc := re.FindStringIndex(result.Response)
		if loc == nil {
			return true, fmt.Sprintf("'%s' → not found (good)", truncate(p.Pattern, 60))
		}
		snippet := truncate(result.Response[loc[0]:], 50)
		return false, fmt.Sprintf("'%s' → FOUND: ...%s...", truncate(p.Pattern, 60), snippet)

	case models.CheckResponseLengthMax:
		var p countParams
		if err := decodeParams(check, &p); err != nil {
			return false, err.Error()
		}
		length := utf8.RuneCountInString(result.Response)
		return float64(length) <= p.Max, fmt.Sprintf("length=%d (max %s)", length, formatNum(p.Max))

	default:
		return false, fmt.Sprintf("unknown check type: %s", check.Type)
	}
}

// evaluateOrdering implements the deliberately asymmetric precedence rule:
// if the guarded action (after) never happened the constraint is vacuous and
// passes; if the prerequisite (before) is missing while the guarded action
// happened, it fails; otherwise compare first-occurrence indices.
func evaluateOrdering(p orderParams, result *models.EpisodeResult) (bool, string) {
	idxBefore := firstIndex(result.ToolCalls, p.Before)
	idxAfter := firstIndex(result.ToolCalls, p.After)

	switch {
	case idxAfter < 0:
		return true, fmt.Sprintf("%s never called", p.After)
	case idxBefore < 0:
		return false, fmt.Sprintf("%s never called but %s was", p.Before, p.After)
	default:
		passed := idxBefore < idxAfter
		op := ">="
		if passed {
			op = "<"
		}
		return passed, fmt.Sprintf("%s@%d %s %s@%d", p.Before, idxBefore, op, p.After, idxAfter)
	}
}

func firstIndex(calls []models.ToolCall, tool string) int {
	for i, tc := range calls {
		if tc.Tool == tool {
			return i
		}
	}
	return -1
}

func matchArgs(tc models.ToolCall) string     { return flatten(tc.Args) }
func matchResponse(tc models.ToolCall) string { return flatten(tc.Response) }

// matchToolCalls scans the tool-call log for a call whose flattened args or
// response matches the pattern, optionally scoped to one tool. For the
// excludes variants (invert=true) a match is a violation.
func matchToolCalls(check models.Check, result *models.EpisodeResult, field func(models.ToolCall) string, invert bool) (bool, string) {
	var p patternParams
	if err := decodeParams(check, &p); err != nil {
		return false, err.Error()
	}
	re, err := compilePattern(p.Pattern, p.caseInsensitive())
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern: %v", err)
	}

	scope := "any tool"
	if p.Tool != "" {
		scope = fmt.Sprintf("tool=%s", p.Tool)
	}
	side := ""
	if check.Type == models.CheckToolResponseContains || check.Type == models.CheckToolResponseExcludes {
		side = " response"
	}

	var violator *models.ToolCall
	for i := range result.ToolCalls {
		tc := result.ToolCalls[i]
		if p.Tool != "" && tc.Tool != p.Tool {
			continue
		}
		if re.MatchString(field(tc)) {
			violator = &result.ToolCalls[i]
			break
		}
	}
	found := violator != nil

	if invert {
		if found {
			name := violator.Tool
			if name == "" {
				name = "?"
			}
			return false, fmt.Sprintf("'%s' in %s%s → FOUND in %s", truncate(p.Pattern, 60), scope, side, name)
		}
		return true, fmt.Sprintf("'%s' in %s%s → not found (good)", truncate(p.Pattern, 60), scope, side)
	}

	verdict := "NOT FOUND"
	if found {
		verdict = "found"
	}
	return found, fmt.Sprintf("'%s' in %s%s → %s", truncate(p.Pattern, 60), scope, side, verdict)
}

func responsePattern(check models.Check) (patternParams, *regexp.Regexp, string) {
	var p patternParams
	if err := decodeParams(check, &p); err != nil {
		return p, nil, err.Error()
	}
	re, err := compilePattern(p.Pattern, p.caseInsensitive())
	if err != nil {
		return p, nil, fmt.Sprintf("invalid regex pattern: %v", err)
	}
	return p, re, ""
}

// compilePattern compiles a rubric pattern with . matching newlines always
// on, and case-insensitivity unless explicitly disabled.
func compilePattern(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	flags := "(?s)"
	if caseInsensitive {
		flags = "(?si)"
	}
	return regexp.Compile(flags + pattern)
}

func countFor(tool string, counts map[string]int, total int) (string, int) {
	if tool != "" {
		return tool, counts[tool]
	}
	return "total", total
}

// quoteList renders a list of names as ['a', 'b'] for detail strings.
func quoteList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// formatNum renders points and limits without a trailing .0 for whole numbers.
func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
