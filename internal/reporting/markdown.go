package reporting

import (
	"fmt"
	"strings"

	"github.com/katabench/kata/internal/models"
)

// Markdown formats a score result as a Markdown section for the batch
// summary report: a category breakdown table followed by the full per-check
// table. Returns an empty string for the no-rubric sentinel.
func Markdown(score models.ScoreResult, scenario, variant string) string {
	if score.Score == nil {
		return ""
	}

	var b strings.Builder
	pct := *score.Score * 100
	fmt.Fprintf(&b, "#### %s/%s — %.0f%% (%s/%s)\n\n",
		scenario, variant, pct, num(score.PointsEarned), num(score.PointsPossible))

	b.WriteString("| Category | Score | Passed | Failed |\n")
	b.WriteString("|----------|-------|--------|--------|\n")
	for _, cat := range categoryOrder {
		info, ok := score.ByCategory[cat]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s/%s (%.0f%%) | %d | %d |\n",
			cat, num(info.Earned), num(info.Possible), info.Score*100, info.Passed, info.Failed)
	}
	b.WriteString("\n")

	b.WriteString("| Check | Status | Points | Detail |\n")
	b.WriteString("|-------|--------|--------|--------|\n")
	for _, c := range score.Checks {
		icon := "❌"
		if c.Passed {
			icon = "✅"
		}
		fmt.Fprintf(&b, "| %s | %s | %s/%s | %s |\n",
			c.ID, icon, num(c.Points), num(c.MaxPoints), truncate(c.Detail, 60))
	}

	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
