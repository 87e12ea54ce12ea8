package program

import (
	"errors"
	"strings"

	"github.com/myrjola/dietplan/internal/genai"
	"github.com/myrjola/dietplan/internal/i18n"
)

// MalformedResponseError means the completion was not JSON after removing code fences.
type MalformedResponseError struct {
	// Raw is the completion text as received from the model.
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return "malformed model response: " + e.Err.Error()
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// SchemaViolationError means the completion was JSON but did not match the program contract.
type SchemaViolationError struct {
	// Fields are paths such as "difficulty" or "workouts[1].exercises[0].duration".
	Fields []string
}

func (e *SchemaViolationError) Error() string {
	return "schema violation: " + strings.Join(e.Fields, ", ")
}

// Kind classifies a GenerationError for callers and translations.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindUpstream     Kind = "upstream"
	KindTimeout      Kind = "timeout"
	KindMalformed    Kind = "malformed"
	KindSchema       Kind = "schema"
)

// GenerationError is the only error returned by [Service]. Message gives the user facing text while Cause keeps
// the underlying error for logs.
type GenerationError struct {
	Kind  Kind
	Cause error
}

func (e *GenerationError) Error() string {
	return "generate program (" + string(e.Kind) + "): " + e.Cause.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Message returns the stable localized message for the error kind.
func (e *GenerationError) Message(lang i18n.Language) string {
	return i18n.Translate(lang, "generation.error."+string(e.Kind))
}

func classify(err error) Kind {
	var (
		inputErr     *InputError
		timeoutErr   *genai.TimeoutError
		upstreamErr  *genai.UpstreamError
		malformedErr *MalformedResponseError
		schemaErr    *SchemaViolationError
	)
	switch {
	case errors.As(err, &inputErr):
		return KindInvalidInput
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &upstreamErr):
		return KindUpstream
	case errors.As(err, &malformedErr):
		return KindMalformed
	case errors.As(err, &schemaErr):
		return KindSchema
	default:
		return KindUpstream
	}
}
