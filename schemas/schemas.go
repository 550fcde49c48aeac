// Package schemas embeds the JSON Schemas that gate scenario files before
// the semantic validator runs.
package schemas

import _ "embed"

// ScenarioSchemaJSON is the JSON Schema for scenario YAML files.
//
//go:embed scenario.schema.json
var ScenarioSchemaJSON string
