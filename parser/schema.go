package parser

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	schemaCard         = "card"
	schemaQuizQuestion = "quiz-question"
)

var schemaSources = map[string]string{
	schemaCard: `{
		"type": "object",
		"required": ["title", "content"],
		"properties": {
			"title": {"type": "string"},
			"content": {"type": "string"}
		}
	}`,
	schemaQuizQuestion: `{
		"type": "object",
		"required": ["question"],
		"properties": {
			"id": {"type": ["integer", "string", "null"]},
			"question": {"type": "string", "minLength": 1},
			"options": {"type": ["array", "null"], "items": {"type": "string"}},
			"correctAnswer": {"type": ["string", "null"]},
			"sampleAnswer": {"type": ["string", "null"]},
			"explanation": {"type": ["string", "null"]}
		}
	}`,
}

var schemaCache sync.Map // map[string]*jsonschema.Schema

func compiledSchema(name string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	src, ok := schemaSources[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	var def any
	if err := json.Unmarshal([]byte(src), &def); err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}

// conforms reports whether v validates against the named schema.
func conforms(name string, v any) bool {
	s, err := compiledSchema(name)
	if err != nil {
		return false
	}
	return s.Validate(v) == nil
}
