package translate

import "testing"

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("  hello   world\t\tagain  ")
	want := "hello world again"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once := Normalize("cafe resume")
	twice := Normalize(once)
	if once != twice {
		t.Fatalf("normalize not idempotent: %q vs %q", once, twice)
	}
}

func TestDetectLanguageCJK(t *testing.T) {
	if lang := DetectLanguage("こんにちは"); lang != "zh" {
		t.Fatalf("got %q, want zh (CJK bucket)", lang)
	}
}

func TestDetectLanguageDefaultsToEnglish(t *testing.T) {
	if lang := DetectLanguage("hello there"); lang != "en" {
		t.Fatalf("got %q, want en", lang)
	}
}
