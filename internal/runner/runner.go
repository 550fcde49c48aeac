// Package runner executes scenarios end to end: it stages the workspace,
// points the mock tool server at the scenario's fixtures, sends the prompt
// through the gateway, collects the tool-call transcript, and scores the
// episode against the scenario's rubric.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/katabench/kata/internal/gateway"
	"github.com/katabench/kata/internal/mocktools"
	"github.com/katabench/kata/internal/models"
	"github.com/katabench/kata/internal/scoring"
)

// Phrases in an assistant response that usually mean a tool call failed
// upstream even when the HTTP layer looked healthy.
var errorHints = []string{
	"technical issue",
	"encountered an error",
	"unable to",
	"couldn't",
	"failed to",
	"try again",
}

// Runner executes episodes against a running gateway and mock tool server.
type Runner struct {
	Gateway      *gateway.Client
	Mock         *mocktools.Client
	FixturesDir  string
	WorkspaceDir string
	Logger       *slog.Logger
}

// EpisodeReport is the full record of one scenario x variant run, saved as
// JSON by the batch runner.
type EpisodeReport struct {
	Scenario       string  `json:"scenario"`
	Variant        string  `json:"variant"`
	Status         string  `json:"status"`
	Timestamp      string  `json:"timestamp"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Prompt         string  `json:"prompt"`

	Response       string `json:"response"`
	ResponseLength int    `json:"response_length"`

	ToolCallsTotal  int                       `json:"tool_calls_total"`
	ToolCallsByType map[string]int            `json:"tool_calls_by_type"`
	ToolCallsRaw    []mocktools.ToolCallEntry `json:"tool_calls_raw"`

	RequestsTotal   int                      `json:"requests_total"`
	RequestsSuccess int                      `json:"requests_success"`
	RequestsFailed  int                      `json:"requests_failed"`
	FailedRequests  []mocktools.RequestEntry `json:"failed_requests,omitempty"`

	ResponseHasErrorHints bool `json:"response_has_error_hints"`

	Score models.ScoreResult `json:"score"`
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Run executes one scenario x variant episode. userOverrides layer over the
// scenario's user_context_defaults.
func (r *Runner) Run(ctx context.Context, sc *models.Scenario, variant string, userOverrides map[string]string) (*EpisodeReport, error) {
	log := r.logger().With("scenario", sc.Name, "variant", variant)

	userContext := ResolveUserContext(sc, userOverrides)

	if err := SetupWorkspace(sc, variant, r.FixturesDir, r.WorkspaceDir, userContext); err != nil {
		return nil, err
	}
	log.Debug("workspace staged", "dir", r.WorkspaceDir)

	if err := r.Mock.SetScenario(ctx, sc.Name); err != nil {
		return nil, fmt.Errorf("resetting mock scenario: %w", err)
	}
	if len(userContext) > 0 {
		if err := r.Mock.SetUserContext(ctx, userContext); err != nil {
			return nil, fmt.Errorf("setting user context: %w", err)
		}
	}

	prompt := strings.TrimSpace(sc.Prompt)
	log.Info("sending prompt", "chars", len(prompt))

	start := time.Now()
	response, chatErr := r.Gateway.SendPrompt(ctx, prompt)
	elapsed := time.Since(start)

	toolCalls, err := r.Mock.ToolCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting tool calls: %w", err)
	}
	requests, err := r.Mock.AllRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting request log: %w", err)
	}

	episode := buildEpisode(response, toolCalls)
	score := scoring.ScoreEpisode(&episode, sc.Scoring)

	report := &EpisodeReport{
		Scenario:       sc.Name,
		Variant:        variant,
		Status:         "ok",
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		ElapsedSeconds: float64(int(elapsed.Seconds()*10)) / 10,
		Prompt:         prompt,

		Response:       response,
		ResponseLength: len(response),

		ToolCallsTotal:  len(toolCalls),
		ToolCallsByType: episode.CountsByTool(),
		ToolCallsRaw:    toolCalls,

		RequestsTotal:   requests.Summary.Total,
		RequestsSuccess: requests.Summary.Success,
		RequestsFailed:  requests.Summary.Failed,

		ResponseHasErrorHints: hasErrorHints(response),

		Score: score,
	}
	for _, req := range requests.Requests {
		if !req.Success {
			report.FailedRequests = append(report.FailedRequests, req)
		}
	}
	if chatErr != nil {
		report.Status = "error"
		log.Error("gateway chat failed", "error", chatErr)
	}

	if score.Score != nil {
		log.Info("episode scored",
			"score", *score.Score,
			"passed", score.Passed,
			"failed", score.Failed,
			"tool_calls", len(toolCalls),
			"elapsed", elapsed.Round(100*time.Millisecond))
	} else {
		log.Info("episode finished unscored",
			"reason", score.Reason,
			"tool_calls", len(toolCalls))
	}
	return report, nil
}

// buildEpisode converts the mock server's call log into the transcript shape
// the scoring engine reads.
func buildEpisode(response string, calls []mocktools.ToolCallEntry) models.EpisodeResult {
	toolCalls := make([]models.ToolCall, 0, len(calls))
	for _, c := range calls {
		toolCalls = append(toolCalls, models.ToolCall{
			Tool:     c.Tool,
			Args:     c.Args,
			Response: c.Response,
			TS:       c.TS,
		})
	}
	return models.EpisodeResult{Response: response, ToolCalls: toolCalls}
}

func hasErrorHints(response string) bool {
	lower := strings.ToLower(response)
	for _, hint := range errorHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// WaitForServices polls both service health endpoints until they answer or
// the context expires.
func WaitForServices(ctx context.Context, mock *mocktools.Client, gw *gateway.Client, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	mockReady, gatewayReady := false, false
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if !mockReady && mock.Healthy(ctx) {
			mockReady = true
			log.Info("mock tool server ready")
		}
		if mockReady && !gatewayReady && gw.Healthy(ctx) {
			gatewayReady = true
			log.Info("gateway ready")
		}
		if mockReady && gatewayReady {
			return nil
		}

		select {
		case <-ctx.Done():
			var waiting []string
			if !mockReady {
				waiting = append(waiting, "mock-tools")
			}
			if !gatewayReady {
				waiting = append(waiting, "gateway")
			}
			return fmt.Errorf("services not ready: %s", strings.Join(waiting, ", "))
		case <-ticker.C:
		}
	}
}
