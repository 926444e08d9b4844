package translator

import (
	"fmt"
	"strings"
)

// Language is a supported translation target.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// supportedLanguages is the allow-list of translation targets. Requests for
// any other code are rejected before generation starts.
var supportedLanguages = []Language{
	{Code: "pt", Name: "Portuguese"},
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "zh", Name: "Chinese"},
	{Code: "hi", Name: "Hindi"},
	{Code: "ar", Name: "Arabic"},
	{Code: "bn", Name: "Bengali"},
	{Code: "ru", Name: "Russian"},
	{Code: "ja", Name: "Japanese"},
	{Code: "de", Name: "German"},
	{Code: "fr", Name: "French"},
}

// SupportedLanguages returns the allow-list of translation targets.
func SupportedLanguages() []Language {
	out := make([]Language, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// LanguageName returns the English name for a supported language code.
func LanguageName(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range supportedLanguages {
		if l.Code == code {
			return l.Name, true
		}
	}
	return "", false
}

// IsSupported reports whether the language code is on the allow-list.
func IsSupported(code string) bool {
	_, ok := LanguageName(code)
	return ok
}

// ValidateCodes rejects any language code outside the allow-list.
func ValidateCodes(codes []string) error {
	if len(codes) == 0 {
		return fmt.Errorf("at least one language is required")
	}
	for _, code := range codes {
		if !IsSupported(code) {
			return fmt.Errorf("unsupported language: %s", code)
		}
	}
	return nil
}
