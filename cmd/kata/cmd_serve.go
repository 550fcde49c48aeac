package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/katabench/kata/internal/mocktools"
)

func newServeCommand() *cobra.Command {
	var (
		port         int
		fixturesDir  string
		workspaceDir string
		logDir       string
		scenario     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock tool server",
		Long: `Start the mock tool server that stands in for the agent's external
tools. Requests to POST /tools/{tool} are answered from the active
scenario's fixtures, and every call is recorded for scoring.

Control endpoints:
  POST /set_scenario/{name}   switch scenario and clear recorded calls
  POST /set_user_context      set {{KEY}} substitution values
  GET  /tool_calls            recorded successful calls
  GET  /all_requests          every request including failures
  GET  /tools                 available tools
  GET  /health                readiness`,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := mocktools.New(mocktools.Config{
				Port:         port,
				FixturesDir:  fixturesDir,
				WorkspaceDir: workspaceDir,
				LogDir:       logDir,
				Scenario:     scenario,
				Logger:       slog.Default(),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3001, "Port to listen on")
	cmd.Flags().StringVar(&fixturesDir, "fixtures", "./fixtures", "Directory of per-scenario fixtures")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "./workspace", "Workspace directory served by the read tool")
	cmd.Flags().StringVar(&logDir, "logs", "", "Directory for JSONL audit logs (disabled when empty)")
	cmd.Flags().StringVarP(&scenario, "scenario", "s", "inbox_triage", "Initial scenario")

	return cmd
}
