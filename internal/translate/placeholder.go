// Package translate implements the translation pipeline: placeholder
// protection, glossary application, the two-level cache lookup, the
// streaming API client with retry ladder and rate limiting, and final
// placeholder restoration. Grounded on the teacher's pipeline package
// (internal/pipeline/llm_openai.go for the SSE client shape,
// internal/pipeline/httpclient.go for pooling).
package translate

import (
	"fmt"
	"regexp"
)

// placeholderPattern matches a single <<PHn>> placeholder token.
var placeholderPattern = regexp.MustCompile(`<<PH\d+>>`)

// protectPatterns run in a fixed order so the same input always produces
// the same placeholder indexing (deterministic cross-pattern numbering),
// which matters because the cache key is derived from the normalized text.
// Numbers-with-units must run before standalone numbers so a unit suffix
// ("42px", "3.14kg") is protected whole rather than leaving the unit
// exposed to the model.
var protectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bhttps?://[^\s]+`),            // URL
	regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.-]+\b`), // email
	regexp.MustCompile(`\b\d[\d,]*\.?\d*\s?(?:px|em|rem|pt|vh|vw|kg|mg|lb|oz|km|cm|mm|mi|ft|in|ms|kb|mb|gb|tb|hz|khz|mhz|ghz|%|°[CF]?)\b`), // number with unit
	regexp.MustCompile(`\b\d[\d,]*\.?\d*\b`),           // standalone number
	regexp.MustCompile("`[^`]+`"),                      // inline code
}

// Protected holds normalized text with placeholders substituted in, plus
// the original substrings needed to restore them after translation.
type Protected struct {
	Text         string
	Placeholders []string
}

// Protect replaces URLs, emails, numbers-with-units, standalone numbers,
// and inline code spans with indexed <<PHn>> tokens so the translation API
// never rewords them, scanning patterns in a fixed order and assigning
// indices in the order matches are found left-to-right within each pattern
// pass.
func Protect(text string) Protected {
	var placeholders []string
	out := text
	for _, pattern := range protectPatterns {
		out = pattern.ReplaceAllStringFunc(out, func(match string) string {
			idx := len(placeholders)
			placeholders = append(placeholders, match)
			return fmt.Sprintf("<<PH%d>>", idx)
		})
	}
	return Protected{Text: out, Placeholders: placeholders}
}

// Restore substitutes each <<PHn>> token in translated back with its
// original substring. A placeholder the model dropped or duplicated is left
// as-is (duplicated) or simply absent (dropped) — restoration never errors.
func Restore(translated string, placeholders []string) string {
	return placeholderPattern.ReplaceAllStringFunc(translated, func(tok string) string {
		var idx int
		if _, err := fmt.Sscanf(tok, "<<PH%d>>", &idx); err != nil {
			return tok
		}
		if idx < 0 || idx >= len(placeholders) {
			return tok
		}
		return placeholders[idx]
	})
}
