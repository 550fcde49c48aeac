package mocktools

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// handleMemorySearch walks the scenario's memory files and returns snippets
// around lines that contain any word of the query. Naive keyword matching is
// enough here: scenarios only need stable, inspectable results.
func (s *Server) handleMemorySearch(data map[string]any, scenario string) any {
	query := strings.ToLower(getString(data, "query"))
	maxResults := getInt(data, "maxResults", 5)
	words := strings.Fields(query)

	results := make([]map[string]any, 0, maxResults)

	memoryDir := filepath.Join(s.fixtures.scenarioDir(scenario), "memory")
	if entries, err := os.ReadDir(memoryDir); err == nil {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			relPath := "memory/" + name
			results = appendSnippets(results, filepath.Join(memoryDir, name), relPath, words, 0.85, maxResults)
			if len(results) >= maxResults {
				break
			}
		}
	}

	if len(results) < maxResults {
		memMD := filepath.Join(s.fixtures.scenarioDir(scenario), "MEMORY.md")
		results = appendSnippets(results, memMD, "MEMORY.md", words, 0.80, maxResults)
	}

	return map[string]any{
		"results":   results,
		"provider":  "mock",
		"citations": "on",
	}
}

// appendSnippets scans one file for query words, appending a snippet (one
// line of context before, two after) per matching line until the cap.
func appendSnippets(results []map[string]any, path, relPath string, words []string, score float64, max int) []map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return results
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if len(results) >= max {
			break
		}
		lower := strings.ToLower(line)
		matched := false
		for _, w := range words {
			if strings.Contains(lower, w) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		start := i - 1
		if start < 0 {
			start = 0
		}
		end := i + 3
		if end > len(lines) {
			end = len(lines)
		}
		results = append(results, map[string]any{
			"snippet":   strings.Join(lines[start:end], "\n"),
			"path":      relPath,
			"startLine": start + 1,
			"endLine":   end,
			"score":     score,
			"citation":  fmt.Sprintf("%s#L%d-L%d", relPath, start+1, end),
		})
	}
	return results
}

// handleMemoryGet reads a slice of one memory file, confined to the
// scenario's fixture directory.
func (s *Server) handleMemoryGet(data map[string]any, scenario string) any {
	reqPath := getString(data, "path")
	fromLine := getInt(data, "from", 1)
	numLines := getInt(data, "lines", 100)

	base := s.fixtures.scenarioDir(scenario)
	candidates := []string{
		filepath.Join(base, reqPath),
		filepath.Join(base, "memory", reqPath),
	}
	for _, candidate := range candidates {
		if !isWithin(candidate, base) {
			continue
		}
		raw, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		lines := strings.Split(string(raw), "\n")
		start := fromLine - 1
		if start < 0 {
			start = 0
		}
		end := start + numLines
		if start > len(lines) {
			start = len(lines)
		}
		if end > len(lines) {
			end = len(lines)
		}
		return map[string]any{"path": reqPath, "text": strings.Join(lines[start:end], "\n")}
	}

	return map[string]any{
		"path":  reqPath,
		"text":  "",
		"error": fmt.Sprintf("File not found: %s", reqPath),
	}
}
