package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/katabench/kata/internal/models"
)

// LinkIssue is one problem found in a variant document's links.
type LinkIssue struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// LintVariantLinks parses each variant markdown document of a scenario and
// checks its relative links: every local target must exist inside the
// scenario's fixture directory. External URLs are left alone so the check
// stays offline.
func LintVariantLinks(sc *models.Scenario, fixturesDir string) []LinkIssue {
	fixtureDir := filepath.Join(fixturesDir, sc.Name)

	var issues []LinkIssue
	for _, variantFile := range sortedValues(sc.Variants) {
		path := filepath.Join(fixtureDir, variantFile)
		data, err := os.ReadFile(path)
		if err != nil {
			continue // missing variant files are reported by Check
		}

		for _, target := range extractLinks(data) {
			if isExternalURL(target) || shouldSkipLink(target) {
				continue
			}
			local := stripFragment(target)
			if local == "" {
				continue
			}

			resolved := filepath.Clean(filepath.Join(fixtureDir, filepath.FromSlash(local)))
			if !isWithinDir(resolved, fixtureDir) {
				issues = append(issues, LinkIssue{
					Source: variantFile, Target: target,
					Reason: "link escapes the fixture directory",
				})
				continue
			}
			info, err := os.Stat(resolved)
			if err != nil {
				issues = append(issues, LinkIssue{
					Source: variantFile, Target: target,
					Reason: "target does not exist",
				})
				continue
			}
			if info.IsDir() {
				issues = append(issues, LinkIssue{
					Source: variantFile, Target: target,
					Reason: "target is a directory, not a file",
				})
			}
		}
	}
	return issues
}

// extractLinks parses markdown bytes and returns all link and image
// destinations.
func extractLinks(source []byte) []string {
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(source))

	var links []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			links = append(links, string(v.Destination))
		case *ast.Image:
			links = append(links, string(v.Destination))
		case *ast.AutoLink:
			target := string(v.Label(source))
			if len(v.Protocol) > 0 && !strings.HasPrefix(target, string(v.Protocol)) {
				target = string(v.Protocol) + target
			}
			links = append(links, target)
		}
		return ast.WalkContinue, nil
	})
	return links
}

func isExternalURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

func shouldSkipLink(target string) bool {
	return strings.HasPrefix(target, "mailto:")
}

func stripFragment(target string) string {
	if idx := strings.Index(target, "#"); idx >= 0 {
		return target[:idx]
	}
	return target
}

func isWithinDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// String renders an issue in the one-line form the check command prints.
func (i LinkIssue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Source, i.Target, i.Reason)
}
