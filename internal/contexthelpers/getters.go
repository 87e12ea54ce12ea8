package contexthelpers

import (
	"context"

	"github.com/myrjola/dietplan/internal/i18n"
)

func TraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDContextKey).(string)
	if !ok {
		return ""
	}

	return traceID
}

// Language returns the negotiated response language or [i18n.DefaultLanguage].
func Language(ctx context.Context) i18n.Language {
	language, ok := ctx.Value(LanguageContextKey).(i18n.Language)
	if !ok {
		return i18n.DefaultLanguage
	}

	return language
}
