package translate

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFC unicode normalization, collapses internal
// whitespace runs, and trims the result — done before placeholder
// protection so the same logical text always yields the same cache key
// regardless of composed/decomposed input or incidental whitespace.
func Normalize(text string) string {
	composed := norm.NFC.String(text)
	var b strings.Builder
	b.Grow(len(composed))
	lastWasSpace := false
	for _, r := range composed {
		if unicode.IsSpace(r) {
			if !lastWasSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// DetectLanguage is a coarse heuristic that maps text to "zh", "ru", "ar"
// or "en" by counting characters per script range; it does not do full
// language identification. Pipeline.Run does not call it, and there is no
// same-language skip in the pipeline.
func DetectLanguage(text string) string {
	var latin, cjk, cyrillic, arabic int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r), unicode.Is(unicode.Hangul, r):
			cjk++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.IsLetter(r):
			latin++
		}
	}
	switch {
	case cjk > latin && cjk > cyrillic && cjk > arabic:
		return "zh"
	case cyrillic > latin:
		return "ru"
	case arabic > latin:
		return "ar"
	default:
		return "en"
	}
}
