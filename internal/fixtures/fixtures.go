// Package fixtures verifies that a scenario's fixture tree is complete
// before any episode spends gateway tokens on it: variant files present,
// workspace sources present, and every tool the scenario allows backed by
// the fixture file its mock handler reads.
package fixtures

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/katabench/kata/internal/models"
)

// toolFixtures maps each tool to the fixture file its mock handler serves
// from. Tools absent here (read, memory_get) resolve files dynamically and
// have nothing to pre-check.
var toolFixtures = map[string]string{
	"exec":       "inbox.json",
	"slack":      "slack_messages.json",
	"web_search": "web_search_results.json",
	"web_fetch":  "web_pages.json",
}

// Result is the outcome of a dry-run check for one scenario x variant.
type Result struct {
	Scenario string   `json:"scenario"`
	Variant  string   `json:"variant"`
	Status   string   `json:"status"` // ok, warning or error
	Issues   []string `json:"issues,omitempty"`
	Found    []string `json:"fixtures_found,omitempty"`
	Missing  []string `json:"fixtures_missing,omitempty"`
}

// Check verifies the fixture tree for one scenario x variant without
// touching the network. Missing optional fixtures degrade to a warning;
// a missing variant or workspace file is an error.
func Check(sc *models.Scenario, variant, fixturesDir string) Result {
	result := Result{Scenario: sc.Name, Variant: variant, Status: "ok"}
	fixtureDir := filepath.Join(fixturesDir, sc.Name)

	variantFile, ok := sc.Variants[variant]
	if !ok {
		result.Status = "error"
		result.Issues = append(result.Issues, fmt.Sprintf("variant %q not defined in scenario YAML", variant))
		return result
	}

	if fileExists(filepath.Join(fixtureDir, variantFile)) {
		result.Found = append(result.Found, variantFile)
	} else {
		result.Status = "error"
		result.Issues = append(result.Issues, fmt.Sprintf("variant file not found: %s", variantFile))
	}

	for _, src := range sortedValues(sc.Workspace) {
		if fileExists(filepath.Join(fixtureDir, src)) {
			result.Found = append(result.Found, src)
		} else {
			result.Missing = append(result.Missing, src)
			result.Issues = append(result.Issues, fmt.Sprintf("workspace file missing: %s", src))
		}
	}

	checked := map[string]bool{}
	for _, tool := range sc.Tools {
		name, ok := toolFixtures[tool]
		if !ok || checked[name] {
			continue
		}
		checked[name] = true

		path := filepath.Join(fixtureDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			result.Missing = append(result.Missing, name)
			continue
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			result.Status = "error"
			result.Issues = append(result.Issues, fmt.Sprintf("%s: invalid JSON: %v", name, err))
			continue
		}
		count := 1
		if list, ok := v.([]any); ok {
			count = len(list)
		}
		result.Found = append(result.Found, fmt.Sprintf("%s (%d items)", name, count))
	}

	if hasTool(sc, "memory_search") || hasTool(sc, "memory_get") {
		memoryDir := filepath.Join(fixtureDir, "memory")
		if entries, err := os.ReadDir(memoryDir); err == nil {
			for _, e := range entries {
				result.Found = append(result.Found, "memory/"+e.Name())
			}
		} else {
			result.Missing = append(result.Missing, "memory/ directory")
		}
	}

	if result.Status == "ok" && len(result.Missing) > 0 {
		result.Status = "warning"
	}
	return result
}

func hasTool(sc *models.Scenario, tool string) bool {
	for _, t := range sc.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func sortedValues(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Stable order keeps dry-run output deterministic across runs.
	sort.Strings(keys)
	out := make([]string, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
