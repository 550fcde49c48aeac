package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/katabench/kata/internal/models"
)

func newListCommand() *cobra.Command {
	var dirs dirFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := models.LoadAllScenarios(dirs.scenariosDir)
			if err != nil {
				return fmt.Errorf("loading scenarios: %w", err)
			}
			if len(scenarios) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No scenarios found in %s\n", dirs.scenariosDir)
				return nil
			}

			printScenarioTable(cmd, scenarios)
			return nil
		},
	}

	dirs.register(cmd)
	return cmd
}

func printScenarioTable(cmd *cobra.Command, scenarios []*models.Scenario) {
	out := cmd.OutOrStdout()

	nameWidth := len("Scenario")
	for _, sc := range scenarios {
		if w := runewidth.StringWidth(sc.Name); w > nameWidth {
			nameWidth = w
		}
	}

	const colTools, colVariants, colChecks = 6, 20, 7
	descWidth := terminalWidth() - nameWidth - colTools - colVariants - colChecks - 8
	if descWidth < 20 {
		descWidth = 20
	}

	fmt.Fprintf(out, "%s  %s  %s  %s  %s\n",
		padRight("Scenario", nameWidth),
		padRight("Tools", colTools),
		padRight("Variants", colVariants),
		padRight("Checks", colChecks),
		"Description")

	for _, sc := range scenarios {
		variants := make([]string, 0, len(sc.Variants))
		for v := range sc.Variants {
			variants = append(variants, v)
		}
		sort.Strings(variants)

		desc := strings.TrimSpace(sc.Description)
		if line, _, found := strings.Cut(desc, "\n"); found {
			desc = line
		}
		fmt.Fprintf(out, "%s  %s  %s  %s  %s\n",
			padRight(sc.Name, nameWidth),
			padRight(fmt.Sprintf("%d", len(sc.Tools)), colTools),
			padRight(strings.Join(variants, ", "), colVariants),
			padRight(fmt.Sprintf("%d", len(sc.Scoring.Checks)), colChecks),
			truncateDisplay(desc, descWidth))
	}
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 120
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// truncateDisplay shortens s to maxWidth display columns, ending with "…"
// when truncated.
func truncateDisplay(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth-1, "") + "…"
}
