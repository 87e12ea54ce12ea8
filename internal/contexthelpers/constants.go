package contexthelpers

type contextKey string

const TraceIDContextKey = contextKey("traceID")
const LanguageContextKey = contextKey("language")
