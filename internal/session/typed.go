package session

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wagiedev/r2pipe-go/internal/errors"
)

// resolvedSchemas caches one resolved schema per Go type.
var resolvedSchemas sync.Map // reflect.Type -> *jsonschema.Resolved

// CmdjAs runs command and decodes the response into a T.
//
// The document is first validated against the JSON schema inferred from T,
// so a field whose type changed between engine versions is reported with its
// path instead of being silently zeroed. Unknown fields are allowed.
// An empty response yields the zero T.
func CmdjAs[T any](ctx context.Context, s *Session, command string) (T, error) {
	var out T

	resp, err := s.Cmd(ctx, command)
	if err != nil {
		return out, err
	}

	return DecodeAs[T](command, resp)
}

// DecodeAs validates resp against T's schema and decodes it.
func DecodeAs[T any](command, resp string) (T, error) {
	var out T

	if isBlank(resp) {
		return out, nil
	}

	doc, err := DecodeDocument(command, resp)
	if err != nil {
		return out, err
	}

	resolved, err := schemaFor[T]()
	if err != nil {
		return out, fmt.Errorf("infer schema for %T: %w", out, err)
	}

	if err := resolved.Validate(doc); err != nil {
		return out, &errors.StructuredError{Command: command, RawData: resp, Err: err}
	}

	if err := json.Unmarshal([]byte(resp), &out); err != nil {
		return out, &errors.StructuredError{Command: command, RawData: resp, Err: err}
	}

	return out, nil
}

func schemaFor[T any]() (*jsonschema.Resolved, error) {
	typ := reflect.TypeFor[T]()

	if cached, ok := resolvedSchemas.Load(typ); ok {
		return cached.(*jsonschema.Resolved), nil
	}

	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, err
	}

	allowUnknownFields(schema)

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, err
	}

	actual, _ := resolvedSchemas.LoadOrStore(typ, resolved)

	return actual.(*jsonschema.Resolved), nil
}

// allowUnknownFields drops the closed-object constraint inferred for structs.
// Engine output grows fields across releases; only known fields are checked.
func allowUnknownFields(s *jsonschema.Schema) {
	if s == nil {
		return
	}

	if s.Properties != nil {
		s.AdditionalProperties = nil
	}

	for _, prop := range s.Properties {
		allowUnknownFields(prop)
	}

	for _, def := range s.Defs {
		allowUnknownFields(def)
	}

	allowUnknownFields(s.Items)
	allowUnknownFields(s.AdditionalProperties)

	for _, item := range s.PrefixItems {
		allowUnknownFields(item)
	}
}
