package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/myrjola/dietplan/internal/contexthelpers"
	"github.com/myrjola/dietplan/internal/errors"
	"github.com/myrjola/dietplan/internal/i18n"
	"github.com/myrjola/dietplan/internal/program"
)

// maxBodyBytes limits generation request bodies.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	TraceID string `json:"traceId,omitempty"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (app *application) marshalError(ctx context.Context, key, kind string) []byte {
	data, _ := json.Marshal(errorResponse{ //nolint:errchkjson // plain strings.
		Error:   i18n.Translate(contexthelpers.Language(ctx), key),
		Kind:    kind,
		TraceID: contexthelpers.TraceID(ctx),
	})
	return data
}

func (app *application) writeError(w http.ResponseWriter, r *http.Request, status int, key, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(app.marshalError(r.Context(), key, kind))
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.writeError(w, r, http.StatusInternalServerError, "request.error.internal", "internal")
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.writeError(w, r, http.StatusNotFound, "request.error.not_found", "not_found")
}

func (app *application) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelInfo, "bad request", errors.SlogError(err))
	app.writeError(w, r, http.StatusBadRequest, "request.error.bad_request", "bad_request")
}

// generationError answers with the stable localized message of a *program.GenerationError. The cause is
// already logged by the service and never reaches the client.
func (app *application) generationError(w http.ResponseWriter, r *http.Request, err error) {
	var genErr *program.GenerationError
	if !errors.As(err, &genErr) {
		app.serverError(w, r, err)
		return
	}

	status := http.StatusBadGateway
	switch genErr.Kind {
	case program.KindInvalidInput:
		status = http.StatusBadRequest
	case program.KindTimeout:
		status = http.StatusGatewayTimeout
	case program.KindUpstream, program.KindMalformed, program.KindSchema:
	}

	app.writeJSON(w, r, status, errorResponse{
		Error:   genErr.Message(contexthelpers.Language(r.Context())),
		Kind:    string(genErr.Kind),
		TraceID: contexthelpers.TraceID(r.Context()),
	})
}

// decodeJSON decodes a single JSON object from the request body into dst and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	if dec.More() {
		return errors.New("request body contains more than one JSON value")
	}
	return nil
}
