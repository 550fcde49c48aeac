package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/katabench/kata/internal/fixtures"
	"github.com/katabench/kata/internal/models"
	"github.com/katabench/kata/internal/reporting"
)

// BatchOptions selects what a batch run covers.
type BatchOptions struct {
	Scenarios []*models.Scenario
	Variants  []string
	// Only restricts the run to a single scenario name when non-empty.
	Only string
	// Workers caps concurrent episodes. Episodes share one mock tool
	// server and one workspace, so anything above 1 requires isolated
	// server instances; the default is sequential.
	Workers int
}

// BatchResult is the outcome of one batch run.
type BatchResult struct {
	RunID    string
	Episodes []*EpisodeReport
}

// RunBatch executes every selected scenario x variant and returns the
// collected reports in deterministic scenario-then-variant order.
func (r *Runner) RunBatch(ctx context.Context, opts BatchOptions) (*BatchResult, error) {
	selected := selectScenarios(opts.Scenarios, opts.Only)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no scenarios selected")
	}
	variants := opts.Variants
	if len(variants) == 0 {
		variants = []string{"baseline", "optimized"}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	type job struct {
		index    int
		scenario *models.Scenario
		variant  string
	}
	var jobs []job
	for _, sc := range selected {
		for _, v := range variants {
			jobs = append(jobs, job{index: len(jobs), scenario: sc, variant: v})
		}
	}

	episodes := make([]*EpisodeReport, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, j := range jobs {
		g.Go(func() error {
			report, err := r.Run(gctx, j.scenario, j.variant, nil)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", j.scenario.Name, j.variant, err)
			}
			episodes[j.index] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &BatchResult{
		RunID:    time.Now().UTC().Format("20060102_150405"),
		Episodes: episodes,
	}, nil
}

// DryRun verifies fixtures for every selected scenario x variant without
// touching the network.
func DryRun(opts BatchOptions, fixturesDir string) []fixtures.Result {
	selected := selectScenarios(opts.Scenarios, opts.Only)
	variants := opts.Variants
	if len(variants) == 0 {
		variants = []string{"baseline", "optimized"}
	}

	var results []fixtures.Result
	for _, sc := range selected {
		for _, v := range variants {
			results = append(results, fixtures.Check(sc, v, fixturesDir))
		}
	}
	return results
}

func selectScenarios(scenarios []*models.Scenario, only string) []*models.Scenario {
	if only == "" {
		return scenarios
	}
	for _, sc := range scenarios {
		if sc.Name == only {
			return []*models.Scenario{sc}
		}
	}
	return nil
}

// SaveResults writes the batch artifacts under resultsDir/<runID>/: one JSON
// report, one response markdown, one score card, and one gzipped tool-call
// transcript per episode, plus summary.md and summary.json for the run.
func SaveResults(batch *BatchResult, resultsDir string) (string, error) {
	runDir := filepath.Join(resultsDir, batch.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	for _, ep := range batch.Episodes {
		tag := fmt.Sprintf("%s_%s", ep.Scenario, ep.Variant)

		if err := writeJSONFile(filepath.Join(runDir, tag+".json"), ep); err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(runDir, tag+"_response.md"), []byte(responseMarkdown(ep)), 0o644); err != nil {
			return "", err
		}
		if ep.Score.Score != nil {
			md := reporting.Markdown(ep.Score, ep.Scenario, ep.Variant)
			if err := os.WriteFile(filepath.Join(runDir, tag+"_score.md"), []byte(md+"\n"), 0o644); err != nil {
				return "", err
			}
		}
		if err := writeTranscript(filepath.Join(runDir, tag+"_transcript.jsonl.gz"), ep); err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(filepath.Join(runDir, "summary.md"), []byte(summaryMarkdown(batch)), 0o644); err != nil {
		return "", err
	}
	if err := writeJSONFile(filepath.Join(runDir, "summary.json"), map[string]any{
		"run_id":   batch.RunID,
		"episodes": batch.Episodes,
	}); err != nil {
		return "", err
	}
	return runDir, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// writeTranscript stores the raw tool-call log as gzipped JSONL. Transcripts
// dominate result size on long episodes, and JSONL keeps them greppable
// after zcat.
func writeTranscript(path string, ep *EpisodeReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	enc := json.NewEncoder(zw)
	for _, call := range ep.ToolCallsRaw {
		if err := enc.Encode(call); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func responseMarkdown(ep *EpisodeReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s / %s\n\n", ep.Scenario, ep.Variant)
	fmt.Fprintf(&b, "**Prompt:** %s\n\n", ep.Prompt)
	fmt.Fprintf(&b, "**Tool calls:** %d | **Failed:** %d | **Time:** %.1fs\n\n",
		ep.ToolCallsTotal, ep.RequestsFailed, ep.ElapsedSeconds)

	breakdown, _ := json.Marshal(ep.ToolCallsByType)
	fmt.Fprintf(&b, "**Tool call breakdown:** %s\n\n", breakdown)
	b.WriteString("---\n\n## Assistant Response\n\n")
	if ep.Response == "" {
		b.WriteString("(no response)")
	} else {
		b.WriteString(ep.Response)
	}
	b.WriteString("\n")
	return b.String()
}

// summaryMarkdown renders the per-run comparison tables: one row per
// episode, then a baseline-versus-optimized section per scenario.
func summaryMarkdown(batch *BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Batch Run Summary\n\n")
	fmt.Fprintf(&b, "**Run ID:** %s\n", batch.RunID)
	fmt.Fprintf(&b, "**Date:** %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "**Episodes:** %d\n\n", len(batch.Episodes))

	b.WriteString("## Results\n\n")
	b.WriteString("| Scenario | Variant | Status | Score | Tool Calls | Failures | Response Len | Time (s) |\n")
	b.WriteString("|----------|---------|--------|-------|------------|----------|-------------|----------|\n")
	for _, ep := range batch.Episodes {
		status := "OK"
		if ep.Status != "ok" || ep.ResponseHasErrorHints {
			status = "WARN"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %d | %d | %.1f |\n",
			ep.Scenario, ep.Variant, status, scorePercent(ep),
			ep.ToolCallsTotal, ep.RequestsFailed, ep.ResponseLength, ep.ElapsedSeconds)
	}

	b.WriteString("\n## Baseline vs Optimized Comparison\n\n")
	byScenario := map[string]map[string]*EpisodeReport{}
	var order []string
	for _, ep := range batch.Episodes {
		if byScenario[ep.Scenario] == nil {
			byScenario[ep.Scenario] = map[string]*EpisodeReport{}
			order = append(order, ep.Scenario)
		}
		byScenario[ep.Scenario][ep.Variant] = ep
	}
	sort.Strings(order)

	for _, name := range order {
		baseline := byScenario[name]["baseline"]
		optimized := byScenario[name]["optimized"]
		if baseline == nil || optimized == nil {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", name)
		b.WriteString("| Metric | Baseline | Optimized | Delta |\n")
		b.WriteString("|--------|----------|-----------|-------|\n")
		fmt.Fprintf(&b, "| Tool calls | %d | %d | %+d |\n",
			baseline.ToolCallsTotal, optimized.ToolCallsTotal, optimized.ToolCallsTotal-baseline.ToolCallsTotal)
		fmt.Fprintf(&b, "| Response length | %d | %d | %+d |\n",
			baseline.ResponseLength, optimized.ResponseLength, optimized.ResponseLength-baseline.ResponseLength)
		fmt.Fprintf(&b, "| Time (s) | %.1f | %.1f | %+.1f |\n",
			baseline.ElapsedSeconds, optimized.ElapsedSeconds, optimized.ElapsedSeconds-baseline.ElapsedSeconds)
		fmt.Fprintf(&b, "| Failed requests | %d | %d | %+d |\n",
			baseline.RequestsFailed, optimized.RequestsFailed, optimized.RequestsFailed-baseline.RequestsFailed)

		if baseline.Score.Score != nil && optimized.Score.Score != nil {
			fmt.Fprintf(&b, "| **Score** | **%s** | **%s** | **%+.0f%%** |\n",
				scorePercent(baseline), scorePercent(optimized),
				(*optimized.Score.Score-*baseline.Score.Score)*100)

			b.WriteString("\n**Score breakdown:**\n\n")
			b.WriteString("| Category | Baseline | Optimized |\n")
			b.WriteString("|----------|----------|----------|\n")
			for _, cat := range []models.Category{
				models.CategorySafety, models.CategoryCorrectness,
				models.CategoryEfficiency, models.CategoryStructure,
			} {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", cat,
					categoryEarned(baseline, cat), categoryEarned(optimized, cat))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Result Files\n\n")
	for _, ep := range batch.Episodes {
		tag := fmt.Sprintf("%s_%s", ep.Scenario, ep.Variant)
		fmt.Fprintf(&b, "- `%s.json` — full results\n", tag)
		fmt.Fprintf(&b, "- `%s_response.md` — assistant response\n", tag)
	}
	return b.String()
}

func scorePercent(ep *EpisodeReport) string {
	if ep.Score.Score == nil {
		return "—"
	}
	return fmt.Sprintf("%.0f%%", *ep.Score.Score*100)
}

func categoryEarned(ep *EpisodeReport, cat models.Category) string {
	cs, ok := ep.Score.ByCategory[cat]
	if !ok {
		return "—"
	}
	return fmt.Sprintf("%g/%g", cs.Earned, cs.Possible)
}
