package mocktools

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// FillTemplates replaces {{KEY}} placeholders with values from the user
// context, leaving unknown keys untouched. Shared with the episode runner,
// which applies the same substitution when staging workspace files.
func FillTemplates(content string, context map[string]string) string {
	if len(context) == 0 {
		return content
	}
	return placeholderRe.ReplaceAllStringFunc(content, func(match string) string {
		key := match[2 : len(match)-2]
		if v, ok := context[key]; ok {
			return v
		}
		return match
	})
}

// handleRead reads a file, checking the workspace first so files staged for
// a specific run (a USER.md persona, say) override the scenario's fixture
// copies. Markdown content gets {{KEY}} substitution when a user context is
// set, and output is numbered like cat -n.
func (s *Server) handleRead(data map[string]any, scenario string) any {
	reqPath := getString(data, "path")
	fromLine := getInt(data, "from", 1)
	numLines := getInt(data, "lines", 2000)

	fixtureBase := s.fixtures.scenarioDir(scenario)
	type candidate struct {
		path, base string
	}
	candidates := []candidate{
		{filepath.Join(s.cfg.WorkspaceDir, reqPath), s.cfg.WorkspaceDir},
		{filepath.Join(s.cfg.WorkspaceDir, filepath.Base(reqPath)), s.cfg.WorkspaceDir},
		{filepath.Join(fixtureBase, reqPath), fixtureBase},
		{filepath.Join(fixtureBase, filepath.Base(reqPath)), fixtureBase},
	}

	for _, c := range candidates {
		if !isWithin(c.path, c.base) {
			continue
		}
		info, err := os.Stat(c.path)
		if err != nil || info.IsDir() {
			continue
		}
		raw, err := os.ReadFile(c.path)
		if err != nil {
			continue
		}
		content := string(raw)

		if ctx := s.state.UserContext(); len(ctx) > 0 && filepath.Ext(c.path) == ".md" {
			content = FillTemplates(content, ctx)
		}

		lines := strings.Split(content, "\n")
		start := fromLine - 1
		if start < 0 {
			start = 0
		}
		if start > len(lines) {
			start = len(lines)
		}
		end := start + numLines
		if end > len(lines) {
			end = len(lines)
		}

		var b strings.Builder
		for i, line := range lines[start:end] {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "  %d\t%s", start+i+1, line)
		}
		return map[string]any{"path": reqPath, "content": b.String()}
	}

	return map[string]any{
		"path":    reqPath,
		"content": "",
		"error":   fmt.Sprintf("File not found: %s", reqPath),
	}
}
