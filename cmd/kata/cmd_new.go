package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/katabench/kata/internal/wizard"
)

func newNewCommand() *cobra.Command {
	var dirs dirFlags

	cmd := &cobra.Command{
		Use:   "new <scenario-name>",
		Short: "Create a new scenario with its fixture skeleton",
		Long: `Create a scenario YAML file and its fixture directory: one AGENTS.md stub
per variant plus a USER.md placeholder.

When running in a terminal (TTY), an interactive wizard collects the
scenario metadata. In non-interactive environments (CI, pipes), defaults
are used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := wizard.ValidateName(name); err != nil {
				return err
			}

			var spec *wizard.ScenarioSpec

			// Check TTY from the command's input stream, not os.Stdin
			// directly.
			isTTY := false
			if f, ok := cmd.InOrStdin().(*os.File); ok {
				isTTY = term.IsTerminal(int(f.Fd()))
			}
			if isTTY {
				var err error
				spec, err = wizard.RunScenarioWizard(cmd.InOrStdin(), cmd.OutOrStdout(), name)
				if err != nil {
					return err
				}
				if spec.Name != "" && spec.Name != name {
					return fmt.Errorf("wizard name %q does not match CLI argument %q", spec.Name, name)
				}
				spec.Name = name
			} else {
				spec = &wizard.ScenarioSpec{
					Name:        name,
					Description: fmt.Sprintf("TODO: describe the %s scenario", name),
					Tools:       []string{"read"},
					Prompt:      "TODO: write the prompt sent to the agent.",
					Variants:    []string{"baseline", "optimized"},
				}
			}

			created, err := wizard.Scaffold(spec, dirs.scenariosDir, dirs.fixturesDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created scenario %s:\n", name)
			for _, path := range created {
				fmt.Fprintf(out, "  %s\n", path)
			}
			fmt.Fprintf(out, "\nNext: fill in the fixture files, then run `kata check %s`.\n", name)
			return nil
		},
	}

	dirs.register(cmd)
	return cmd
}
