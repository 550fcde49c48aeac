package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katabench/kata/internal/config"
	"github.com/katabench/kata/internal/gateway"
	"github.com/katabench/kata/internal/mocktools"
)

func newHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the gateway and mock tool server are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			down := 0

			mock := mocktools.NewClient(cfg.MockToolsURL)
			if health, err := mock.Health(ctx); err == nil {
				fmt.Fprintf(out, "mock-tools %s: ok (scenario=%v, tools=%v)\n",
					cfg.MockToolsURL, health["scenario"], health["tools_available"])
			} else {
				fmt.Fprintf(out, "mock-tools %s: DOWN (%v)\n", cfg.MockToolsURL, err)
				down++
			}

			gw := gateway.NewClient(cfg.GatewayURL, cfg.GatewayToken, cfg.Model)
			if gw.Healthy(ctx) {
				fmt.Fprintf(out, "gateway    %s: ok\n", cfg.GatewayURL)
			} else {
				fmt.Fprintf(out, "gateway    %s: DOWN\n", cfg.GatewayURL)
				down++
			}

			if down > 0 {
				return &CheckFailureError{Message: fmt.Sprintf("%d services down", down)}
			}
			return nil
		},
	}
	return cmd
}
