package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is one evaluation scenario as declared in a YAML file: the prompt
// to replay, the tools the agent may reach, the instruction-document variants
// being compared, the workspace files to stage, and the scoring rubric.
type Scenario struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Tools       []string          `yaml:"tools"`
	Prompt      string            `yaml:"prompt"`
	Variants    map[string]string `yaml:"variants"`
	Workspace   map[string]string `yaml:"workspace,omitempty"`
	Scoring     Rubric            `yaml:"scoring,omitempty"`

	// UserContextDefaults seeds {{KEY}} template substitution in staged
	// workspace files; callers may override individual keys per run.
	UserContextDefaults map[string]string `yaml:"user_context_defaults,omitempty"`

	// Path is the file the scenario was loaded from, when known.
	Path string `yaml:"-"`
}

// Rubric is the ordered set of scoring checks for one scenario.
type Rubric struct {
	Checks []Check `yaml:"checks"`
}

// TotalPoints sums the declared points across all checks.
func (r Rubric) TotalPoints() float64 {
	var total float64
	for _, c := range r.Checks {
		total += c.Points
	}
	return total
}

// LoadScenario reads and decodes a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	sc.Path = path
	return &sc, nil
}

// LoadAllScenarios loads every *.yaml scenario in a directory, sorted by
// file name.
func LoadAllScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}
