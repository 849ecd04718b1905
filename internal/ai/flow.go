package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"google.golang.org/genai"

	"github.com/hpungsan/flowfocus/internal/errors"
)

// Validator is implemented by flow inputs and outputs.
type Validator interface {
	Validate() error
}

// Flow is one prompt/schema pair with typed input and output.
type Flow[In, Out Validator] struct {
	Name   string
	Prompt *template.Template
	Schema *genai.Schema
	// Post runs on validated output. Optional.
	Post func(in In, out Out) Out
}

// Run executes the flow. Invalid input is a validation error; a failed call or
// an answer that does not decode and validate is a generation error.
func (f *Flow[In, Out]) Run(ctx context.Context, gen Generator, in In) (Out, error) {
	var zero Out
	if err := in.Validate(); err != nil {
		return zero, err
	}

	var prompt strings.Builder
	if err := f.Prompt.Execute(&prompt, in); err != nil {
		return zero, errors.NewInternal(fmt.Errorf("render %s prompt: %w", f.Name, err))
	}

	raw, err := gen.Generate(ctx, prompt.String(), f.Schema)
	if err != nil {
		if ctx.Err() != nil {
			return zero, errors.NewCancelled(f.Name + " generation")
		}
		return zero, errors.NewGeneration(f.Name, err)
	}

	out, err := decodeStrict[Out](raw)
	if err != nil {
		return zero, errors.NewGeneration(f.Name, err)
	}
	if err := out.Validate(); err != nil {
		return zero, errors.NewGeneration(f.Name, fmt.Errorf("%s", errors.As(err).Message))
	}
	if f.Post != nil {
		out = f.Post(in, out)
	}
	return out, nil
}

// decodeStrict decodes exactly one JSON value with no unknown fields.
func decodeStrict[T any](raw string) (T, error) {
	var out T
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("malformed response: %w", err)
	}
	if dec.More() {
		return out, fmt.Errorf("malformed response: trailing data after JSON value")
	}
	return out, nil
}
