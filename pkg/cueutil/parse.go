// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// MaxFileSize is the maximum accepted size of a CUE document. Config files
// and manifests are small; anything larger is rejected before compilation
// to keep a corrupt or hostile file from exhausting memory.
const MaxFileSize int64 = 1 * 1024 * 1024

type (
	// Result contains the outcome of a successful Decode call.
	Result[T any] struct {
		// Value is the decoded Go struct.
		Value *T

		// Unified is the unified CUE value, available for callers that need
		// to extract metadata beyond the decoded struct.
		Unified cue.Value
	}

	// decodeOptions holds configuration for Decode.
	decodeOptions struct {
		filename string
		concrete bool
	}

	// Option configures Decode behavior.
	Option func(*decodeOptions)
)

// WithFilename sets the filename used in error messages so users can locate
// the offending document.
func WithFilename(name string) Option {
	return func(o *decodeOptions) { o.filename = name }
}

// WithConcrete controls whether all values must be concrete after
// unification. Defaults to true; config files with optional fields set it
// to false.
func WithConcrete(concrete bool) Option {
	return func(o *decodeOptions) { o.concrete = concrete }
}

// Decode performs the schema-unify-decode flow: compile the embedded schema,
// compile the user document, unify it with the definition at schemaPath
// (e.g. "#Manifest"), validate, and decode into T. Validation errors are
// formatted with the CUE path of the failing field.
func Decode[T any](schema string, data []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	options := decodeOptions{concrete: true}
	for _, opt := range opts {
		opt(&options)
	}

	filename := options.filename
	if filename == "" {
		filename = "<input>"
	}

	if int64(len(data)) > MaxFileSize {
		return nil, fmt.Errorf("%s: document size %d bytes exceeds maximum %d bytes",
			filename, len(data), MaxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(userValue)

	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &Result[T]{Value: &result, Unified: unified}, nil
}
