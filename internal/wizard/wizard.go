// Package wizard collects scenario metadata interactively and scaffolds the
// scenario YAML plus its fixture skeleton.
package wizard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ScenarioSpec holds all fields collected during the interactive wizard.
type ScenarioSpec struct {
	Name        string
	Description string
	Tools       []string
	Prompt      string
	Variants    []string
}

var nameRe = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidateName checks a scenario name: lowercase snake_case, since the name
// doubles as the fixture directory and result file prefix.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if !nameRe.MatchString(name) {
		return fmt.Errorf("name must be lowercase snake_case (a-z, 0-9, _)")
	}
	return nil
}

const scenarioYAMLTemplate = `name: {{ .Name }}
description: {{ .Description }}

tools:
{{- range .Tools }}
  - {{ . }}
{{- end }}

prompt: |
  {{ .Prompt }}

variants:
{{- range .Variants }}
  {{ . }}: AGENTS_{{ . }}.md
{{- end }}

workspace:
  USER.md: USER.md

scoring:
  checks:
    - id: example_check
      type: response_length_max
      max: 4000
      points: 1
      category: structure
      description: Response stays concise
`

var knownTools = []string{
	"exec", "slack", "memory_search", "memory_get",
	"web_search", "web_fetch", "read",
}

// RunScenarioWizard runs an interactive huh form to collect scenario
// metadata. If initialName is non-empty, it pre-populates the name field.
func RunScenarioWizard(in io.Reader, out io.Writer, initialName string) (*ScenarioSpec, error) {
	var (
		name        = initialName
		description string
		tools       []string
		prompt      string
		variantsRaw = "baseline, optimized"
	)

	toolOptions := make([]huh.Option[string], 0, len(knownTools))
	for _, tool := range knownTools {
		toolOptions = append(toolOptions, huh.NewOption(tool, tool))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Scenario name").
				Description("A snake_case name; also names the fixture directory").
				Placeholder("inbox_triage").
				Value(&name).
				Validate(func(s string) error {
					return ValidateName(strings.TrimSpace(s))
				}),
			huh.NewInput().
				Title("Description").
				Description("What does this scenario evaluate?").
				Placeholder("Triage the inbox and draft replies").
				Value(&description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("description is required")
					}
					return nil
				}),
			huh.NewMultiSelect[string]().
				Title("Allowed tools").
				Options(toolOptions...).
				Value(&tools),
			huh.NewText().
				Title("Prompt").
				Description("The user message sent to the agent").
				Placeholder("Review my inbox and draft replies for urgent emails.").
				Value(&prompt).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("prompt is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Variants").
				Description("Comma-separated instruction-document variants to compare").
				Value(&variantsRaw),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	variants := splitAndTrim(variantsRaw)
	if len(variants) == 0 {
		variants = []string{"baseline", "optimized"}
	}

	return &ScenarioSpec{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Tools:       tools,
		Prompt:      strings.TrimSpace(prompt),
		Variants:    variants,
	}, nil
}

// GenerateScenarioYAML renders the scenario YAML skeleton from the collected answers.
func GenerateScenarioYAML(spec *ScenarioSpec) (string, error) {
	tmpl, err := template.New("scenario").Parse(scenarioYAMLTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, spec); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Scaffold writes the scenario YAML and a fixture skeleton: one AGENTS.md
// stub per variant plus a USER.md placeholder. Existing files are never
// overwritten.
func Scaffold(spec *ScenarioSpec, scenariosDir, fixturesDir string) ([]string, error) {
	yamlContent, err := GenerateScenarioYAML(spec)
	if err != nil {
		return nil, err
	}

	var created []string
	scenarioPath := filepath.Join(scenariosDir, spec.Name+".yaml")
	if err := writeNew(scenarioPath, yamlContent); err != nil {
		return created, err
	}
	created = append(created, scenarioPath)

	fixtureDir := filepath.Join(fixturesDir, spec.Name)
	for _, variant := range spec.Variants {
		path := filepath.Join(fixtureDir, fmt.Sprintf("AGENTS_%s.md", variant))
		stub := fmt.Sprintf("# %s (%s)\n\n%s\n", spec.Name, variant, spec.Description)
		if err := writeNew(path, stub); err != nil {
			return created, err
		}
		created = append(created, path)
	}

	userPath := filepath.Join(fixtureDir, "USER.md")
	if err := writeNew(userPath, "Name: {{USER_NAME}}\n"); err != nil {
		return created, err
	}
	created = append(created, userPath)

	return created, nil
}

func writeNew(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
