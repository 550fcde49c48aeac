package mocktools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// fixtureStore resolves fixture files under fixtures/<scenario>/.
type fixtureStore struct {
	dir string
}

// loadJSON reads a fixture file and decodes it. Returns (nil, false) when
// the file does not exist; handlers fall back to empty results or
// placeholders rather than erroring.
func (fs fixtureStore) loadJSON(scenario, filename string) (any, bool) {
	data, err := os.ReadFile(filepath.Join(fs.dir, scenario, filename))
	if err != nil {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return v, true
}

// loadList is loadJSON for fixtures expected to be JSON arrays of objects.
func (fs fixtureStore) loadList(scenario, filename string) []map[string]any {
	v, ok := fs.loadJSON(scenario, filename)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, e := range raw {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// scenarioDir returns the fixture directory for a scenario.
func (fs fixtureStore) scenarioDir(scenario string) string {
	return filepath.Join(fs.dir, scenario)
}

// isWithin reports whether path is base or inside base, blocking traversal
// out of a fixture or workspace directory via ../ segments.
func isWithin(path, base string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	return abs == absBase || strings.HasPrefix(abs, absBase+string(os.PathSeparator))
}

func getString(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func getInt(data map[string]any, key string, def int) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
