package layouts

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/goliatone/go-pagelayout/pages"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema pins the layout document shape relied on by the editor and
// the translation pipeline: a components array of objects whose id/type are
// strings and whose props is an object. Unknown keys pass through untouched.
const documentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"components": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"type": {"type": "string"},
					"props": {"type": "object"}
				}
			}
		}
	},
	"required": ["components"]
}`

var (
	compiledSchemaOnce sync.Once
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
)

func layoutSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("layout.json", bytes.NewReader([]byte(documentSchema))); err != nil {
			compiledSchemaErr = err
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("layout.json")
	})
	return compiledSchema, compiledSchemaErr
}

// EmptyDocument returns the canonical empty layout.
func EmptyDocument() map[string]any {
	return map[string]any{"components": []any{}}
}

// NormalizeDocument coerces an incoming layout payload to the canonical shape
// and validates it. A nil payload normalizes to the empty document; a missing
// or null components key becomes an empty array. Validation failures surface
// as a LayoutValidationError.
func NormalizeDocument(doc map[string]any) (map[string]any, error) {
	if doc == nil {
		return EmptyDocument(), nil
	}

	normalized := cloneDocument(doc)
	if components, ok := normalized["components"]; !ok || components == nil {
		normalized["components"] = []any{}
	}

	schema, err := layoutSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(roundTrip(normalized)); err != nil {
		return nil, &pages.LayoutValidationError{Issues: validationIssues(err), Cause: err}
	}
	return normalized, nil
}

// roundTrip re-decodes the document through encoding/json so typed slices
// (e.g. []map[string]any built by callers) validate the same as wire input.
func roundTrip(doc map[string]any) any {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return doc
	}
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return doc
	}
	return decoded
}

func validationIssues(err error) []string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) || validationErr == nil {
		return []string{err.Error()}
	}
	issues := []string{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			location := strings.TrimSpace(node.InstanceLocation)
			if location == "" {
				location = "#"
			}
			issues = append(issues, location+": "+strings.TrimSpace(node.Message))
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return issues
}

func cloneDocument(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[key] = cloneDocument(typed)
		case []any:
			out[key] = cloneSlice(typed)
		default:
			out[key] = value
		}
	}
	return out
}

func cloneSlice(input []any) []any {
	out := make([]any, len(input))
	for i, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[i] = cloneDocument(typed)
		case []any:
			out[i] = cloneSlice(typed)
		default:
			out[i] = value
		}
	}
	return out
}
