package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/katabench/kata/internal/fixtures"
	"github.com/katabench/kata/internal/models"
	"github.com/katabench/kata/internal/scoring"
	"github.com/katabench/kata/internal/validation"
)

func newCheckCommand() *cobra.Command {
	var dirs dirFlags
	var lintLinks bool

	cmd := &cobra.Command{
		Use:   "check [scenario]",
		Short: "Validate scenario files, rubrics and fixtures",
		Long: `Validate scenarios in three passes:

  1. JSON Schema — document structure (required fields, enums, shapes)
  2. Semantic validation — rubric consistency the schema cannot express
     (duplicate check ids, per-type required params, regex syntax)
  3. Fixtures — every variant file, workspace file and tool fixture exists,
     and (with --links) relative links in variant documents resolve

With no argument, every scenario in the scenarios directory is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var scenarios []*models.Scenario
			if len(args) == 1 {
				sc, err := models.LoadScenario(filepath.Join(dirs.scenariosDir, args[0]+".yaml"))
				if err != nil {
					return fmt.Errorf("loading scenario %q: %w", args[0], err)
				}
				scenarios = []*models.Scenario{sc}
			} else {
				var err error
				scenarios, err = models.LoadAllScenarios(dirs.scenariosDir)
				if err != nil {
					return fmt.Errorf("loading scenarios: %w", err)
				}
				if len(scenarios) == 0 {
					return fmt.Errorf("no scenarios found in %s", dirs.scenariosDir)
				}
			}

			out := cmd.OutOrStdout()
			totalProblems := 0

			for _, sc := range scenarios {
				problems := 0
				report := func(kind, msg string) {
					if problems == 0 {
						fmt.Fprintf(out, "%s:\n", sc.Name)
					}
					problems++
					fmt.Fprintf(out, "  [%s] %s\n", kind, msg)
				}

				schemaErrs, err := validation.ValidateScenarioFile(sc.Path)
				if err != nil {
					return err
				}
				for _, e := range schemaErrs {
					report("schema", e)
				}

				for _, e := range scoring.ValidateScenario(sc) {
					report("rubric", e)
				}

				for variant := range sc.Variants {
					res := fixtures.Check(sc, variant, dirs.fixturesDir)
					for _, issue := range res.Issues {
						report("fixtures", fmt.Sprintf("%s: %s", variant, issue))
					}
				}

				if lintLinks {
					for _, issue := range fixtures.LintVariantLinks(sc, dirs.fixturesDir) {
						report("links", issue.String())
					}
				}

				if problems == 0 {
					fmt.Fprintf(out, "%s: ok\n", sc.Name)
				}
				totalProblems += problems
			}

			if totalProblems > 0 {
				return &CheckFailureError{
					Message: fmt.Sprintf("%d problems across %d scenarios", totalProblems, len(scenarios)),
				}
			}
			return nil
		},
	}

	dirs.register(cmd)
	cmd.Flags().BoolVar(&lintLinks, "links", true, "Lint relative links in variant documents")
	return cmd
}
