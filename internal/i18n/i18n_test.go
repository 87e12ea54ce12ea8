package i18n_test

import (
	"testing"

	"github.com/myrjola/dietplan/internal/i18n"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		lang i18n.Language
		key  string
		want string
	}{
		{
			name: "english",
			lang: i18n.English,
			key:  "generation.error.upstream",
			want: "The program generation service is unavailable. Please try again.",
		},
		{
			name: "turkish",
			lang: i18n.Turkish,
			key:  "generation.error.timeout",
			want: "Program oluşturma çok uzun sürdü. Lütfen tekrar deneyin.",
		},
		{
			name: "unsupported language falls back to default",
			lang: i18n.Language("fi"),
			key:  "request.error.not_found",
			want: "Bulunamadı.",
		},
		{
			name: "unknown key",
			lang: i18n.English,
			key:  "no.such.key",
			want: "no.such.key",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := i18n.Translate(tt.lang, tt.key); got != tt.want {
				t.Errorf("Translate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   i18n.Language
	}{
		{header: "", want: i18n.Turkish},
		{header: "en-US,en;q=0.9", want: i18n.English},
		{header: "de-DE, tr;q=0.8", want: i18n.Turkish},
		{header: "fi, EN-gb;q=0.5", want: i18n.English},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := i18n.FromAcceptLanguage(tt.header); got != tt.want {
				t.Errorf("FromAcceptLanguage(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
