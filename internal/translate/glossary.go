package translate

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Entry is one glossary term: a source-language phrase that must always
// translate to Target, regardless of what the model would otherwise choose
// (product names, protocol terms, etc).
type Entry struct {
	Source string
	Target string
}

// Glossary is an ordered, versioned set of forced-translation entries.
// Version participates in every cache key, so a glossary version change
// invalidates all existing cache entries, not only the ones it affects.
type Glossary struct {
	Version string
	Entries []Entry
}

// Matches returns every entry whose Source occurs in text, case-insensitive
// containment, in the order the entries were defined (longest-source-first
// entries should be listed first by the caller to avoid a short entry
// shadowing a longer one it's a substring of).
func (g Glossary) Matches(text string) []Entry {
	lower := strings.ToLower(text)
	var hits []Entry
	for _, e := range g.Entries {
		if strings.Contains(lower, strings.ToLower(e.Source)) {
			hits = append(hits, e)
		}
	}
	return hits
}

// glossaryFile is the on-disk JSON shape: {"version": N, "entries": [...]}.
type glossaryFile struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// LoadGlossary reads a glossary JSON file, grounded on the original
// assistant's Glossary::load_from_file (version + entries, loaded once at
// startup). A missing path returns an empty glossary rather than an error,
// matching the original's Glossary::empty() fallback.
func LoadGlossary(path string) (Glossary, error) {
	if path == "" {
		return Glossary{Version: "0"}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Glossary{Version: "0"}, nil
	}
	if err != nil {
		return Glossary{}, fmt.Errorf("glossary: read %s: %w", path, err)
	}
	var file glossaryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Glossary{}, fmt.Errorf("glossary: parse %s: %w", path, err)
	}
	return Glossary{Version: strconv.Itoa(file.Version), Entries: file.Entries}, nil
}

// Hint renders matched entries as a compact "source=target" instruction
// list for the prompt, e.g. for injecting forced terminology.
func Hint(matches []Entry) string {
	if len(matches) == 0 {
		return ""
	}
	var b strings.Builder
	for i, e := range matches {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(e.Source)
		b.WriteByte('=')
		b.WriteString(e.Target)
	}
	return b.String()
}
