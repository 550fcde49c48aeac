package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kata",
		Short: "Kata - evaluation harness for tool-using agents",
		Long: `Kata replays scenario prompts against an agent gateway while a mock tool
server serves deterministic fixtures, then scores the recorded tool-call
transcript against each scenario's rubric.

Typical flow:
  kata check              validate scenario files and fixtures
  kata serve              start the mock tool server
  kata run inbox_triage   run one scenario and print its score card
  kata batch              run every scenario x variant and save reports`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newBatchCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newHealthCommand())
	cmd.AddCommand(newNewCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
