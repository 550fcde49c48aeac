package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okScenarioYAML = `name: inbox_triage
description: Triage the inbox
tools:
  - exec
  - read
prompt: Review my inbox.
variants:
  baseline: AGENTS_baseline.md
scoring:
  checks:
    - id: used_exec
      type: tool_called
      tool: exec
      category: correctness
`

const brokenScenarioYAML = `name: broken_one
description: Duplicate ids and bad regex
tools:
  - exec
prompt: Do it.
variants:
  baseline: AGENTS_baseline.md
scoring:
  checks:
    - id: dup
      type: tool_called
      tool: exec
    - id: dup
      type: response_contains
      pattern: "[invalid"
`

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func runCheck(t *testing.T, scenariosDir, fixturesDir string, extraArgs ...string) (string, error) {
	t.Helper()
	cmd := newCheckCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--scenarios", scenariosDir, "--fixtures", fixturesDir}, extraArgs...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestCheckCommandOK(t *testing.T) {
	dir := t.TempDir()
	scenariosDir := filepath.Join(dir, "scenarios")
	fixturesDir := filepath.Join(dir, "fixtures")
	writeTestFile(t, filepath.Join(scenariosDir, "inbox_triage.yaml"), okScenarioYAML)
	writeTestFile(t, filepath.Join(fixturesDir, "inbox_triage", "AGENTS_baseline.md"), "# Agent\n")
	writeTestFile(t, filepath.Join(fixturesDir, "inbox_triage", "inbox.json"), "[]")

	out, err := runCheck(t, scenariosDir, fixturesDir)
	require.NoError(t, err)
	assert.Contains(t, out, "inbox_triage: ok")
}

func TestCheckCommandReportsProblems(t *testing.T) {
	dir := t.TempDir()
	scenariosDir := filepath.Join(dir, "scenarios")
	fixturesDir := filepath.Join(dir, "fixtures")
	writeTestFile(t, filepath.Join(scenariosDir, "broken_one.yaml"), brokenScenarioYAML)

	out, err := runCheck(t, scenariosDir, fixturesDir)
	require.Error(t, err)

	var checkErr *CheckFailureError
	assert.True(t, errors.As(err, &checkErr))

	assert.Contains(t, out, "[rubric]")
	assert.Contains(t, out, "duplicate check id 'dup'")
	assert.Contains(t, out, "invalid regex pattern")
	assert.Contains(t, out, "[fixtures]")
}

func TestCheckCommandSingleScenario(t *testing.T) {
	dir := t.TempDir()
	scenariosDir := filepath.Join(dir, "scenarios")
	fixturesDir := filepath.Join(dir, "fixtures")
	writeTestFile(t, filepath.Join(scenariosDir, "inbox_triage.yaml"), okScenarioYAML)
	writeTestFile(t, filepath.Join(scenariosDir, "broken_one.yaml"), brokenScenarioYAML)
	writeTestFile(t, filepath.Join(fixturesDir, "inbox_triage", "AGENTS_baseline.md"), "# Agent\n")
	writeTestFile(t, filepath.Join(fixturesDir, "inbox_triage", "inbox.json"), "[]")

	out, err := runCheck(t, scenariosDir, fixturesDir, "inbox_triage")
	require.NoError(t, err)
	assert.Contains(t, out, "inbox_triage: ok")
	assert.NotContains(t, out, "broken_one")
}

func TestCheckCommandMissingScenario(t *testing.T) {
	dir := t.TempDir()
	_, err := runCheck(t, filepath.Join(dir, "scenarios"), filepath.Join(dir, "fixtures"), "nope")
	require.Error(t, err)

	var checkErr *CheckFailureError
	assert.False(t, errors.As(err, &checkErr), "missing file is a runtime error, not a check failure")
}
