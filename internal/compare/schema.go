package compare

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const querySchemaPath = "schemas/query.json"

// ErrInvalidQuery is returned for bodies that are not JSON or fail the query schema
var ErrInvalidQuery = errors.New("invalid compare query")

// QueryDecoder validates JSON compare queries before parsing them
type QueryDecoder struct {
	schema *jsonschema.Schema
}

func NewQueryDecoder() (*QueryDecoder, error) {
	file, err := schemaFS.Open(querySchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open query schema: %w", err)
	}
	defer file.Close()

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(querySchemaPath, file); err != nil {
		return nil, fmt.Errorf("failed to add query schema: %w", err)
	}
	schema, err := compiler.Compile(querySchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile query schema: %w", err)
	}
	return &QueryDecoder{schema: schema}, nil
}

func (d *QueryDecoder) Decode(body []byte) (Query, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return Query{}, fmt.Errorf("%w: body is not valid JSON: %v", ErrInvalidQuery, err)
	}
	if err := d.schema.Validate(v); err != nil {
		return Query{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	q, err := ParseQuery(v.(map[string]interface{}))
	if err != nil {
		return Query{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return q, nil
}
