package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/katabench/kata/internal/mocktools"
	"github.com/katabench/kata/internal/models"
)

// ResolveUserContext merges a scenario's user_context_defaults with caller
// overrides, overrides winning per key.
func ResolveUserContext(sc *models.Scenario, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(sc.UserContextDefaults)+len(overrides))
	for k, v := range sc.UserContextDefaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// SetupWorkspace stages the workspace for one scenario run: the selected
// instruction-document variant is copied to AGENTS.md, and each declared
// workspace file is copied in. Markdown files get {{KEY}} substitution from
// the user context so personas and dates can vary per run.
func SetupWorkspace(sc *models.Scenario, variant, fixturesDir, workspaceDir string, userContext map[string]string) error {
	src, ok := sc.Variants[variant]
	if !ok {
		return fmt.Errorf("scenario %s has no variant %q (available: %s)",
			sc.Name, variant, strings.Join(variantNames(sc), ", "))
	}

	if err := os.MkdirAll(workspaceDir, 0o755); err != nil {
		return fmt.Errorf("creating workspace dir: %w", err)
	}

	fixtureDir := filepath.Join(fixturesDir, sc.Name)
	if err := copyFile(filepath.Join(fixtureDir, src), filepath.Join(workspaceDir, "AGENTS.md")); err != nil {
		return fmt.Errorf("staging AGENTS.md variant %q: %w", variant, err)
	}

	for destName, srcName := range sc.Workspace {
		srcPath := filepath.Join(fixtureDir, srcName)
		destPath := filepath.Join(workspaceDir, destName)

		if len(userContext) > 0 && strings.HasSuffix(destName, ".md") {
			content, err := os.ReadFile(srcPath)
			if err != nil {
				return fmt.Errorf("staging workspace file %s: %w", srcName, err)
			}
			filled := mocktools.FillTemplates(string(content), userContext)
			if err := os.WriteFile(destPath, []byte(filled), 0o644); err != nil {
				return err
			}
			continue
		}

		if err := copyFile(srcPath, destPath); err != nil {
			return fmt.Errorf("staging workspace file %s: %w", srcName, err)
		}
	}
	return nil
}

func variantNames(sc *models.Scenario) []string {
	names := make([]string, 0, len(sc.Variants))
	for name := range sc.Variants {
		names = append(names, name)
	}
	return names
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
