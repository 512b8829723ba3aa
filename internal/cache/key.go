// Package cache implements the two-level translation cache: an in-memory
// L1 (LRU + TTL) backed by an on-disk L2 (SQLite, WAL mode). Grounded on the
// teacher's trace.Store (internal/trace/store.go) for the sql.Open/migrate
// idiom, adapted from Postgres/pgx to SQLite for a single-process desktop
// cache rather than a shared server-side trace sink.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key derives the 32-byte content-addressed cache key from the translation
// request's identity: source/target language, glossary version, and the
// normalized (placeholder-protected) source text. sha256 is used rather
// than a non-cryptographic hash because collisions here return a stranger's
// cached translation to the user.
func Key(srcLang, tgtLang, glossaryVersion, normalizedText string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(srcLang)))
	h.Write([]byte{'|'})
	h.Write([]byte(strings.ToLower(tgtLang)))
	h.Write([]byte{'|'})
	h.Write([]byte(glossaryVersion))
	h.Write([]byte{'|'})
	h.Write([]byte(normalizedText))
	return hex.EncodeToString(h.Sum(nil))
}
