package siteconfig

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaSource []byte

var ErrSchemaValidation = errors.New("site config: document does not match schema")

// Issue is a single schema violation.
type Issue struct {
	Location string
	Message  string
}

// SchemaError lists every violation found in a configuration document.
type SchemaError struct {
	Issues []Issue
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return ErrSchemaValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaValidation
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func configSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("docsite.schema.json", bytes.NewReader(schemaSource)); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = compiler.Compile("docsite.schema.json")
	})
	return compiled, compileErr
}

// ValidateDocument checks a raw YAML configuration document against the
// embedded schema. Unknown keys are reported, which viper would otherwise
// ignore silently.
func ValidateDocument(raw []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("site config: parse document: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	// Round trip through JSON so values use the types the validator expects.
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("site config: encode document: %w", err)
	}
	var payload any
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return fmt.Errorf("site config: decode document: %w", err)
	}

	schema, err := configSchema()
	if err != nil {
		return fmt.Errorf("site config: compile schema: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &SchemaError{Issues: collectIssues(verr)}
		}
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
