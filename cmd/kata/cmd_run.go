package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/katabench/kata/internal/config"
	"github.com/katabench/kata/internal/gateway"
	"github.com/katabench/kata/internal/mocktools"
	"github.com/katabench/kata/internal/models"
	"github.com/katabench/kata/internal/reporting"
	"github.com/katabench/kata/internal/runner"
	"github.com/katabench/kata/internal/spinner"
)

func newRunCommand() *cobra.Command {
	var dirs dirFlags
	var (
		variant        string
		message        string
		userContextRaw string
		wait           bool
		waitTimeout    time.Duration
		outputPath     string
		jsonOut        bool
	)

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run one scenario episode and print its score card",
		Long: `Run a single scenario x variant episode.

The workspace is staged from the scenario's fixtures, the mock tool server
is reset to the scenario, the prompt is sent through the gateway, and the
recorded tool-call transcript is scored against the scenario's rubric.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := models.LoadScenario(filepath.Join(dirs.scenariosDir, args[0]+".yaml"))
			if err != nil {
				return fmt.Errorf("loading scenario %q: %w", args[0], err)
			}
			if message != "" {
				sc.Prompt = message
			}

			var userOverrides map[string]string
			if userContextRaw != "" {
				if err := json.Unmarshal([]byte(userContextRaw), &userOverrides); err != nil {
					return fmt.Errorf("invalid --user-context JSON: %w", err)
				}
			}

			cfg := config.Load()
			r := &runner.Runner{
				Gateway:      gateway.NewClient(cfg.GatewayURL, cfg.GatewayToken, cfg.Model),
				Mock:         mocktools.NewClient(cfg.MockToolsURL),
				FixturesDir:  dirs.fixturesDir,
				WorkspaceDir: dirs.workspaceDir,
			}

			ctx := cmd.Context()
			if wait {
				waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
				defer cancel()
				stop := spinner.Start(cmd.ErrOrStderr(), "waiting for services...")
				err := runner.WaitForServices(waitCtx, r.Mock, r.Gateway, nil)
				stop()
				if err != nil {
					return err
				}
			}

			report, err := r.Run(ctx, sc, variant, userOverrides)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%s / %s: %d tool calls, %d failed requests, %.1fs\n\n",
					report.Scenario, report.Variant, report.ToolCallsTotal,
					report.RequestsFailed, report.ElapsedSeconds)
				fmt.Fprintln(out, reporting.Summary(report.Score))
				fmt.Fprintf(out, "\nAssistant response:\n%s\n", report.Response)
			}

			if outputPath != "" {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outputPath, append(data, '\n'), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved full report to %s\n", outputPath)
			}

			if report.Score.Score != nil && report.Score.Failed > 0 {
				return &CheckFailureError{
					Message: fmt.Sprintf("%d of %d checks failed", report.Score.Failed, report.Score.TotalChecks),
				}
			}
			return nil
		},
	}

	dirs.register(cmd)
	cmd.Flags().StringVarP(&variant, "variant", "v", "optimized", "Instruction-document variant to stage")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Override the scenario's prompt")
	cmd.Flags().StringVar(&userContextRaw, "user-context", "", "JSON dict of user identity overrides for {{KEY}} substitution")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the gateway and mock tool server before running")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 2*time.Minute, "How long --wait polls before giving up")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the full JSON report to a file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full JSON report instead of the score card")

	return cmd
}
