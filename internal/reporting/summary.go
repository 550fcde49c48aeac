// Package reporting renders score results for humans: an indented terminal
// summary and a Markdown report. No scoring logic lives here.
package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/katabench/kata/internal/models"
	"github.com/mattn/go-runewidth"
)

// categoryOrder fixes the rendering order of category lines so reports stay
// stable run to run.
var categoryOrder = []models.Category{
	models.CategorySafety,
	models.CategoryCorrectness,
	models.CategoryEfficiency,
	models.CategoryStructure,
}

const barWidth = 10

// Summary formats a score result as an indented, human-readable terminal
// block: overall percentage and points, per-category progress bars, and the
// failed checks with their audit details.
func Summary(score models.ScoreResult) string {
	if score.Score == nil {
		return "  (no scoring rubric)"
	}

	var lines []string
	pct := *score.Score * 100
	lines = append(lines, fmt.Sprintf("  Score: %.0f%% (%s/%s points, %d/%d checks passed)",
		pct, num(score.PointsEarned), num(score.PointsPossible), score.Passed, score.TotalChecks))

	for _, cat := range categoryOrder {
		info, ok := score.ByCategory[cat]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("    %s %2s/%-2s (%3.0f%%) %s",
			padRight(string(cat), 14), num(info.Earned), num(info.Possible),
			info.Score*100, bar(info.Score)))
	}

	var failed []models.CheckResult
	for _, c := range score.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	if len(failed) > 0 {
		lines = append(lines, "  Failed:")
		for _, c := range failed {
			lines = append(lines, fmt.Sprintf("    ✗ %s: %s [%s]", c.ID, c.Description, c.Detail))
		}
	}

	return strings.Join(lines, "\n")
}

// bar renders a fixed-width glyph progress indicator for a [0,1] score.
func bar(score float64) string {
	filled := int(score * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// num renders point values without a trailing .0 for whole numbers.
func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
