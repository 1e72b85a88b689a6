package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas
var schemaFiles embed.FS

const schemaBaseURL = "https://scorepad.local/schemas/"

// Validator checks inbound session messages against the embedded schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// bodySchemas maps each message type to the schema for its full envelope.
var bodySchemas = map[MessageType]string{
	TypeSetPoint:   "set_point",
	TypeClearPoint: "seat_message",
	TypeWhiteWin:   "seat_message",
	TypeShorthand:  "shorthand",
	TypeSubmit:     "control",
	TypeReset:      "control",
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	entries, err := schemaFiles.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		data, err := schemaFiles.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", entry.Name(), err)
		}
		if err := compiler.AddResource(schemaBaseURL+entry.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", entry.Name(), err)
		}
		names = append(names, entry.Name())
	}

	schemas := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		schema, err := compiler.Compile(schemaBaseURL + name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		schemas[strings.TrimSuffix(name, ".json")] = schema
	}
	return &Validator{schemas: schemas}, nil
}

// ValidateMessage checks the envelope and then the type-specific payload.
func (v *Validator) ValidateMessage(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := v.validate("message", doc); err != nil {
		return err
	}

	var head struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	name, ok := bodySchemas[head.Type]
	if !ok {
		return fmt.Errorf("unknown message type: %s", head.Type)
	}
	return v.validate(name, doc)
}

func (v *Validator) validate(name string, doc any) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("schema not found: %s", name)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
