package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// requestSchema is a named JSON Schema for a request body.
type requestSchema struct {
	Name       string
	Definition string
}

const answerItem = `{
	"type": "object",
	"properties": {
		"question": {"type": "string"},
		"answer": {"type": ["string", "number", "boolean", "null"]}
	}
}`

var (
	anxietyRequest = requestSchema{
		Name: "anxiety-request",
		Definition: `{
			"type": "object",
			"required": ["answers"],
			"properties": {
				"answers": {"type": "array", "items": ` + answerItem + `}
			}
		}`,
	}

	// Depression answers come either as a list of items, as an "answers"
	// object, or as a flat question-to-answer object.
	depressionRequest = requestSchema{
		Name: "depression-request",
		Definition: `{
			"type": "object",
			"properties": {
				"answers": {
					"oneOf": [
						{"type": "array", "items": ` + answerItem + `},
						{"type": "object", "additionalProperties": {"type": ["string", "number", "boolean", "null"]}}
					]
				}
			},
			"additionalProperties": {"type": ["string", "number", "boolean", "null"]}
		}`,
	}

	assessmentRequest = requestSchema{
		Name: "assessment-request",
		Definition: `{
			"type": "object",
			"required": ["answers"],
			"properties": {
				"answers": {"type": "array", "items": {"type": "number"}},
				"type": {"type": "string"}
			}
		}`,
	}
)

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validate checks a decoded JSON document against the schema.
func (rs requestSchema) validate(doc any) error {
	compiled, err := rs.compile()
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", rs.Name, err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// compile returns a cached compiled schema or compiles and caches it.
func (rs requestSchema) compile() (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(rs.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	def, err := jsonschema.UnmarshalJSON(strings.NewReader(rs.Definition))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", rs.Name)
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(rs.Name, compiled)
	return compiled, nil
}
