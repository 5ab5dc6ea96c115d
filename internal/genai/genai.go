// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genai abstracts the structured generation service: structured
// instruction in, schema-shaped data out. The pipeline stages depend only on
// the Backend interface, never on a vendor call shape, so tests supply mocks
// and the vendor can be swapped without touching stage logic.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
)

// Schema declares the expected output shape for one generation call: field
// names, types, closed-label enums, and numeric ranges, expressed as a JSON
// Schema object. The service performs first-pass structural enforcement;
// callers still re-validate locally.
type Schema struct {
	// Name identifies the schema to the service (e.g. "sub_query_plan").
	Name string

	// Definition is the JSON Schema object the response must conform to.
	Definition map[string]any
}

// Request is one structured generation call.
type Request struct {
	// System fixes the task for the model.
	System string

	// User carries the per-call inputs.
	User string

	// Schema is the expected output shape.
	Schema Schema
}

// Backend performs a single structured generation call and returns the raw
// schema-conformant JSON payload. Implementations must honor ctx deadlines.
type Backend interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
}

// GenerationError reports a failed generation call: transport error, timeout,
// non-2xx status, refusal, or a payload that does not parse against the
// expected schema. It is transient/upstream; the pipeline never retries it.
type GenerationError struct {
	// Op names the call that failed (e.g. "plan", "gather", "synthesize").
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Errorf builds a GenerationError from a formatted message.
func Errorf(op, format string, args ...any) *GenerationError {
	return &GenerationError{Op: op, Err: fmt.Errorf(format, args...)}
}
