package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katabench/kata/internal/gateway"
	"github.com/katabench/kata/internal/mocktools"
	"github.com/katabench/kata/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testScenario() *models.Scenario {
	checks := []models.Check{
		models.CheckFromMap(map[string]any{
			"id": "used_exec", "type": "tool_called", "tool": "exec",
			"points": 2, "category": "correctness",
		}),
		models.CheckFromMap(map[string]any{
			"id": "mentioned_inbox", "type": "response_contains", "pattern": "inbox",
			"category": "structure",
		}),
	}
	return &models.Scenario{
		Name:   "inbox_triage",
		Tools:  []string{"exec", "read"},
		Prompt: "Triage my inbox.",
		Variants: map[string]string{
			"baseline":  "AGENTS_baseline.md",
			"optimized": "AGENTS_optimized.md",
		},
		Workspace: map[string]string{
			"USER.md": "USER.md",
		},
		UserContextDefaults: map[string]string{
			"USER_NAME": "Jordan Rivera",
		},
		Scoring: models.Rubric{Checks: checks},
	}
}

// testHarness wires a temp fixture tree, a real mock tool server over
// httptest, and a fake gateway whose assistant makes one exec call.
func testHarness(t *testing.T) *Runner {
	t.Helper()

	fixturesDir := t.TempDir()
	workspaceDir := t.TempDir()
	base := filepath.Join(fixturesDir, "inbox_triage")
	writeFile(t, filepath.Join(base, "AGENTS_baseline.md"), "# Baseline\n")
	writeFile(t, filepath.Join(base, "AGENTS_optimized.md"), "# Optimized\n")
	writeFile(t, filepath.Join(base, "USER.md"), "Name: {{USER_NAME}}\n")
	writeFile(t, filepath.Join(base, "inbox.json"), `[{"id": "m1", "sender": "a@x.com", "subject": "hi", "body": "hello"}]`)

	mockSrv := mocktools.New(mocktools.Config{
		FixturesDir:  fixturesDir,
		WorkspaceDir: workspaceDir,
		Scenario:     "inbox_triage",
	})
	mockTS := httptest.NewServer(mockSrv.Handler())
	t.Cleanup(mockTS.Close)
	mockClient := mocktools.NewClient(mockTS.URL)

	// The fake gateway acts like an agent: it calls exec on the mock
	// server, then answers.
	gwTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, err := mockClient.CallTool(r.Context(), "exec", map[string]any{"command": "himalaya envelope list"})
		require.NoError(t, err)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Your inbox has 1 message."}},
			},
		})
	}))
	t.Cleanup(gwTS.Close)

	return &Runner{
		Gateway:      gateway.NewClient(gwTS.URL, "", "test-model"),
		Mock:         mockClient,
		FixturesDir:  fixturesDir,
		WorkspaceDir: workspaceDir,
	}
}

func TestSetupWorkspace(t *testing.T) {
	fixturesDir := t.TempDir()
	workspaceDir := filepath.Join(t.TempDir(), "ws")
	base := filepath.Join(fixturesDir, "inbox_triage")
	writeFile(t, filepath.Join(base, "AGENTS_baseline.md"), "# Baseline instructions\n")
	writeFile(t, filepath.Join(base, "AGENTS_optimized.md"), "# Optimized\n")
	writeFile(t, filepath.Join(base, "USER.md"), "Name: {{USER_NAME}}\n")

	sc := testScenario()
	err := SetupWorkspace(sc, "baseline", fixturesDir, workspaceDir, map[string]string{"USER_NAME": "Dana"})
	require.NoError(t, err)

	agents, err := os.ReadFile(filepath.Join(workspaceDir, "AGENTS.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Baseline instructions\n", string(agents))

	user, err := os.ReadFile(filepath.Join(workspaceDir, "USER.md"))
	require.NoError(t, err)
	assert.Equal(t, "Name: Dana\n", string(user))
}

func TestSetupWorkspaceUnknownVariant(t *testing.T) {
	err := SetupWorkspace(testScenario(), "bogus", t.TempDir(), t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestResolveUserContext(t *testing.T) {
	sc := testScenario()
	merged := ResolveUserContext(sc, map[string]string{"USER_NAME": "Override", "COMPANY": "Acme"})
	assert.Equal(t, "Override", merged["USER_NAME"])
	assert.Equal(t, "Acme", merged["COMPANY"])

	defaults := ResolveUserContext(sc, nil)
	assert.Equal(t, "Jordan Rivera", defaults["USER_NAME"])
}

func TestRunEpisode(t *testing.T) {
	r := testHarness(t)
	sc := testScenario()

	report, err := r.Run(context.Background(), sc, "baseline", nil)
	require.NoError(t, err)

	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, "Your inbox has 1 message.", report.Response)
	assert.Equal(t, 1, report.ToolCallsTotal)
	assert.Equal(t, map[string]int{"exec": 1}, report.ToolCallsByType)
	assert.False(t, report.ResponseHasErrorHints)

	require.NotNil(t, report.Score.Score)
	assert.Equal(t, 1.0, *report.Score.Score)
	assert.Equal(t, 2, report.Score.Passed)
}

func TestRunBatchAndSaveResults(t *testing.T) {
	r := testHarness(t)
	sc := testScenario()

	batch, err := r.RunBatch(context.Background(), BatchOptions{
		Scenarios: []*models.Scenario{sc},
	})
	require.NoError(t, err)
	require.Len(t, batch.Episodes, 2)
	assert.Equal(t, "baseline", batch.Episodes[0].Variant)
	assert.Equal(t, "optimized", batch.Episodes[1].Variant)

	resultsDir := t.TempDir()
	runDir, err := SaveResults(batch, resultsDir)
	require.NoError(t, err)

	for _, name := range []string{
		"inbox_triage_baseline.json",
		"inbox_triage_baseline_response.md",
		"inbox_triage_baseline_score.md",
		"inbox_triage_baseline_transcript.jsonl.gz",
		"inbox_triage_optimized.json",
		"summary.md",
		"summary.json",
	} {
		_, err := os.Stat(filepath.Join(runDir, name))
		assert.NoError(t, err, name)
	}

	summary, err := os.ReadFile(filepath.Join(runDir, "summary.md"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "| inbox_triage | baseline |")
	assert.Contains(t, string(summary), "## Baseline vs Optimized Comparison")
	assert.Contains(t, string(summary), "**Score**")
}

func TestDryRun(t *testing.T) {
	r := testHarness(t)
	sc := testScenario()

	results := DryRun(BatchOptions{Scenarios: []*models.Scenario{sc}}, r.FixturesDir)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, "ok", res.Status, res.Issues)
	}
}

func TestRunBatchOnlyUnknownScenario(t *testing.T) {
	r := testHarness(t)
	_, err := r.RunBatch(context.Background(), BatchOptions{
		Scenarios: []*models.Scenario{testScenario()},
		Only:      "does_not_exist",
	})
	require.Error(t, err)
}

func TestHasErrorHints(t *testing.T) {
	assert.True(t, hasErrorHints("I encountered an error reaching your inbox."))
	assert.True(t, hasErrorHints("Sorry, I was unable to send that."))
	assert.False(t, hasErrorHints("Done. Archived 3 emails."))
}
