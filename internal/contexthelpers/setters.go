package contexthelpers

import (
	"context"
	"net/http"

	"github.com/myrjola/dietplan/internal/i18n"
)

func SetTraceID(r *http.Request, traceID string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, TraceIDContextKey, traceID)
	return r.WithContext(ctx)
}

func SetLanguage(r *http.Request, language i18n.Language) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, LanguageContextKey, language)
	return r.WithContext(ctx)
}
