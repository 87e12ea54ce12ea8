// Package errors annotates errors with structured slog attributes and the source location where they were
// created or wrapped. It re-exports the standard library helpers so that callers only need a single import.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
)

// annotatedError carries a message, optional slog attributes and the caller location.
type annotatedError struct {
	msg         string
	cause       error
	annotations []slog.Attr
	file        string
	line        int
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// callerSkip skips newAnnotated and the exported constructor.
const callerSkip = 2

func newAnnotated(msg string, cause error, attrs []slog.Attr) *annotatedError {
	_, file, line, _ := runtime.Caller(callerSkip)
	return &annotatedError{
		msg:         msg,
		cause:       cause,
		annotations: attrs,
		file:        file,
		line:        line,
	}
}

// NewSentinel creates an error meant to be compared with [Is]. It records no source location.
func NewSentinel(msg string) error {
	return stderrors.New(msg)
}

// New creates an error annotated with attrs and the caller location.
func New(msg string, attrs ...slog.Attr) error {
	return newAnnotated(msg, nil, attrs)
}

// Wrap annotates err with a message, attrs and the caller location. Wrapping a nil error returns an error
// containing only msg so that mistakes surface in logs instead of being silently dropped.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return newAnnotated(msg, err, attrs)
}

// DecoratePanic converts a recovered panic value into an annotated error. Returns nil for a nil value.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	if err, ok := excp.(error); ok {
		return newAnnotated("panic", err, nil)
	}
	return newAnnotated(fmt.Sprintf("panic: %v", excp), nil, nil)
}

// SlogError renders err as a slog group with the message, every annotation found in the error chain and the
// source location of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	attrs := []slog.Attr{slog.String("message", err.Error())}
	var (
		annotations []slog.Attr
		source      string
	)
	walk(err, func(ae *annotatedError) {
		annotations = append(annotations, ae.annotations...)
		if ae.file != "" {
			source = ae.file + ":" + strconv.Itoa(ae.line)
		}
	})
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Attr{Key: "annotations", Value: slog.GroupValue(annotations...)})
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Attr{Key: "error", Value: slog.GroupValue(attrs...)}
}

func walk(err error, visit func(*annotatedError)) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // walking the chain manually.
		visit(ae)
	}
	switch x := err.(type) { //nolint:errorlint // walking the chain manually.
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			walk(e, visit)
		}
	case interface{ Unwrap() error }:
		walk(x.Unwrap(), visit)
	}
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
