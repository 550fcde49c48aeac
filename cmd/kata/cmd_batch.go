package main

import (
	"context"
	"fmt"
	"strings"
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

func newBatchCommand() *cobra.Command {
	var dirs dirFlags
	var (
		only        string
		variantsRaw string
		dryRun      bool
		workers     int
		wait        bool
		waitTimeout time.Duration
		resultsDir  string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run every scenario x variant and save reports",
		Long: `Run all scenarios across their variants, score each episode, and save
per-episode reports plus a comparison summary under the results directory.

Use --dry-run to verify fixture trees without sending anything to the
gateway.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := models.LoadAllScenarios(dirs.scenariosDir)
			if err != nil {
				return fmt.Errorf("loading scenarios: %w", err)
			}
			if len(scenarios) == 0 {
				return fmt.Errorf("no scenarios found in %s", dirs.scenariosDir)
			}

			opts := runner.BatchOptions{
				Scenarios: scenarios,
				Variants:  splitCSV(variantsRaw),
				Only:      only,
				Workers:   workers,
			}
			out := cmd.OutOrStdout()

			if dryRun {
				results := runner.DryRun(opts, dirs.fixturesDir)
				failed := 0
				for _, res := range results {
					fmt.Fprintf(out, "%s/%s: %s\n", res.Scenario, res.Variant, res.Status)
					for _, issue := range res.Issues {
						fmt.Fprintf(out, "  - %s\n", issue)
					}
					for _, missing := range res.Missing {
						fmt.Fprintf(out, "  missing: %s\n", missing)
					}
					if res.Status == "error" {
						failed++
					}
				}
				if failed > 0 {
					return &CheckFailureError{Message: fmt.Sprintf("%d scenario/variant pairs have fixture errors", failed)}
				}
				return nil
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

			batch, err := r.RunBatch(ctx, opts)
			if err != nil {
				return err
			}

			for _, ep := range batch.Episodes {
				fmt.Fprintf(out, "\n%s / %s: %d tool calls, %d failed requests, %.1fs\n",
					ep.Scenario, ep.Variant, ep.ToolCallsTotal, ep.RequestsFailed, ep.ElapsedSeconds)
				fmt.Fprintln(out, reporting.Summary(ep.Score))
			}

			runDir, err := runner.SaveResults(batch, resultsDir)
			if err != nil {
				return fmt.Errorf("saving results: %w", err)
			}
			fmt.Fprintf(out, "\nResults saved to %s\n", runDir)
			return nil
		},
	}

	dirs.register(cmd)
	cmd.Flags().StringVar(&only, "only", "", "Run a single scenario by name")
	cmd.Flags().StringVar(&variantsRaw, "variants", "baseline,optimized", "Comma-separated variants to run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Verify fixtures without calling the gateway")
	cmd.Flags().IntVar(&workers, "workers", 1, "Concurrent episodes (episodes share the mock server; keep at 1 unless isolated)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the gateway and mock tool server before running")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 2*time.Minute, "How long --wait polls before giving up")
	cmd.Flags().StringVar(&resultsDir, "results", "./results", "Directory for batch result files")

	return cmd
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
