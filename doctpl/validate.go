package doctpl

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// SchemaError lists the shape violations found in a template document.
type SchemaError struct {
	Problems []FieldProblem
}

// FieldProblem is a single violation at a document path.
type FieldProblem struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Field + ": " + p.Message
	}
	return "invalid template: " + strings.Join(parts, "; ")
}

// validateShape checks a decoded document against the template schema.
func validateShape(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling template schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	serr := &SchemaError{}
	for _, re := range result.Errors() {
		serr.Problems = append(serr.Problems, FieldProblem{
			Field:   re.Field(),
			Message: re.Description(),
		})
	}
	return serr
}
