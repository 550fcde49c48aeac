package main

import "github.com/spf13/cobra"

// dirFlags are the fixture-tree locations shared by most subcommands.
type dirFlags struct {
	scenariosDir string
	fixturesDir  string
	workspaceDir string
}

func (d *dirFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.scenariosDir, "scenarios", "./scenarios", "Directory of scenario YAML files")
	cmd.Flags().StringVar(&d.fixturesDir, "fixtures", "./fixtures", "Directory of per-scenario fixtures")
	cmd.Flags().StringVar(&d.workspaceDir, "workspace", "./workspace", "Workspace directory staged per episode")
}
