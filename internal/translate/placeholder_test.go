package translate

import "testing"

func TestProtectAndRestoreRoundTrips(t *testing.T) {
	text := "Visit https://example.com or email me@example.com, it costs 42.50"
	p := Protect(text)

	if len(p.Placeholders) != 3 {
		t.Fatalf("expected 3 placeholders, got %d: %v", len(p.Placeholders), p.Placeholders)
	}

	restored := Restore(p.Text, p.Placeholders)
	if restored != text {
		t.Fatalf("round trip mismatch:\n got  %q\n want %q", restored, text)
	}
}

func TestProtectIsDeterministic(t *testing.T) {
	text := "call 911 or visit https://a.test"
	a := Protect(text)
	b := Protect(text)
	if a.Text != b.Text {
		t.Fatalf("expected identical placeholder text, got %q vs %q", a.Text, b.Text)
	}
}

func TestRestoreLeavesUnknownTokenUntouched(t *testing.T) {
	out := Restore("hello <<PH5>> world", nil)
	if out != "hello <<PH5>> world" {
		t.Fatalf("expected unknown placeholder left as-is, got %q", out)
	}
}

func TestProtectHandlesInlineCode(t *testing.T) {
	text := "run `go test ./...` now"
	p := Protect(text)
	if len(p.Placeholders) != 1 || p.Placeholders[0] != "`go test ./...`" {
		t.Fatalf("expected inline code captured, got %v", p.Placeholders)
	}
}

func TestProtectCapturesNumberWithUnitWhole(t *testing.T) {
	text := "resize to 42px or 3.14kg"
	p := Protect(text)
	if len(p.Placeholders) != 2 {
		t.Fatalf("expected 2 placeholders, got %d: %v", len(p.Placeholders), p.Placeholders)
	}
	if p.Placeholders[0] != "42px" {
		t.Fatalf("expected unit suffix protected with its number, got %q", p.Placeholders[0])
	}
	if p.Placeholders[1] != "3.14kg" {
		t.Fatalf("expected unit suffix protected with its number, got %q", p.Placeholders[1])
	}

	restored := Restore(p.Text, p.Placeholders)
	if restored != text {
		t.Fatalf("round trip mismatch:\n got  %q\n want %q", restored, text)
	}
}

func TestProtectStandaloneNumberNotSplitFromUnit(t *testing.T) {
	// Without the units-before-numbers ordering this would protect "42" and
	// "px" as, effectively, a bare number followed by raw untranslated text.
	text := "the gap is 42px wide"
	p := Protect(text)
	for _, ph := range p.Placeholders {
		if ph == "42" {
			t.Fatalf("expected unit suffix to stay attached to its number, got bare %q among %v", ph, p.Placeholders)
		}
	}
}
