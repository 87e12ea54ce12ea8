package i18n

import (
	"strings"
)

// Language represents a supported language.
type Language string

const (
	English Language = "en"
	Turkish Language = "tr"
)

// DefaultLanguage is the fallback language.
const DefaultLanguage = Turkish

//nolint:gochecknoglobals // static catalogue.
var translations = map[Language]map[string]string{
	English: {
		"generation.error.invalid_input": "The patient information or goal is incomplete. Please check the form and try again.",
		"generation.error.upstream":      "The program generation service is unavailable. Please try again.",
		"generation.error.timeout":       "Program generation took too long. Please try again.",
		"generation.error.malformed":     "Could not interpret the generated program. Please try again.",
		"generation.error.schema":        "Could not interpret the generated program. Please try again.",
		"generation.error.in_progress":   "A program is already being generated for this patient. Please wait.",
		"request.error.bad_request":      "The request could not be read.",
		"request.error.not_found":        "Not found.",
		"request.error.internal":         "Something went wrong. Please try again later.",
		"request.error.timeout":          "The request took too long. Please try again.",
	},
	Turkish: {
		"generation.error.invalid_input": "Hasta bilgileri veya hedef eksik. Lütfen formu kontrol edip tekrar deneyin.",
		"generation.error.upstream":      "Program oluşturma servisine ulaşılamıyor. Lütfen tekrar deneyin.",
		"generation.error.timeout":       "Program oluşturma çok uzun sürdü. Lütfen tekrar deneyin.",
		"generation.error.malformed":     "Oluşturulan program yorumlanamadı. Lütfen tekrar deneyin.",
		"generation.error.schema":        "Oluşturulan program yorumlanamadı. Lütfen tekrar deneyin.",
		"generation.error.in_progress":   "Bu hasta için zaten bir program oluşturuluyor. Lütfen bekleyin.",
		"request.error.bad_request":      "İstek okunamadı.",
		"request.error.not_found":        "Bulunamadı.",
		"request.error.internal":         "Bir hata oluştu. Lütfen daha sonra tekrar deneyin.",
		"request.error.timeout":          "İstek çok uzun sürdü. Lütfen tekrar deneyin.",
	},
}

// SupportedLanguages returns a list of all supported languages.
func SupportedLanguages() []Language {
	return []Language{Turkish, English}
}

// IsSupported checks if a language is supported.
func IsSupported(lang Language) bool {
	_, ok := translations[lang]
	return ok
}

// Translate returns the translation for key in lang, falling back to [DefaultLanguage] and finally to the key.
func Translate(lang Language, key string) string {
	if langTranslations, ok := translations[lang]; ok {
		if translation, ok := langTranslations[key]; ok {
			return translation
		}
	}

	if lang != DefaultLanguage {
		if translation, ok := translations[DefaultLanguage][key]; ok {
			return translation
		}
	}

	return key
}

// FromAcceptLanguage picks the first supported language in an Accept-Language header value.
// Quality values are ignored because browsers already list languages in preference order.
func FromAcceptLanguage(header string) Language {
	for part := range strings.SplitSeq(header, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		primary, _, _ := strings.Cut(tag, "-")
		lang := Language(strings.ToLower(primary))
		if IsSupported(lang) {
			return lang
		}
	}
	return DefaultLanguage
}
