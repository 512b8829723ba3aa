package translate

import "testing"

func TestGlossaryMatchesIsCaseInsensitive(t *testing.T) {
	g := Glossary{Version: "v1", Entries: []Entry{{Source: "Widget", Target: "Gadget"}}}
	hits := g.Matches("I bought a WIDGET yesterday")
	if len(hits) != 1 || hits[0].Target != "Gadget" {
		t.Fatalf("expected one case-insensitive match, got %v", hits)
	}
}

func TestGlossaryNoMatchReturnsEmpty(t *testing.T) {
	g := Glossary{Version: "v1", Entries: []Entry{{Source: "Widget", Target: "Gadget"}}}
	if hits := g.Matches("nothing relevant here"); len(hits) != 0 {
		t.Fatalf("expected no matches, got %v", hits)
	}
}

func TestHintFormatsAsSourceEqualsTarget(t *testing.T) {
	hint := Hint([]Entry{{Source: "a", Target: "b"}, {Source: "c", Target: "d"}})
	if hint != "a=b;c=d" {
		t.Fatalf("got %q, want a=b;c=d", hint)
	}
}

func TestHintEmptyForNoMatches(t *testing.T) {
	if Hint(nil) != "" {
		t.Fatalf("expected empty hint for no matches")
	}
}
