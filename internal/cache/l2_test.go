package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestL2(t *testing.T, ttl time.Duration) *L2 {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	l2, err := OpenL2(path, ttl)
	if err != nil {
		t.Fatalf("OpenL2: %v", err)
	}
	t.Cleanup(func() { l2.Close() })
	return l2
}

func TestL2PutThenGetRoundTrips(t *testing.T) {
	l2 := openTestL2(t, time.Hour)
	if err := l2.Put("k", "bonjour"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok := l2.Get("k")
	if !ok || v != "bonjour" {
		t.Fatalf("got (%q,%v), want (bonjour,true)", v, ok)
	}
}

func TestL2GetMissOnUnknownKey(t *testing.T) {
	l2 := openTestL2(t, time.Hour)
	if _, ok := l2.Get("missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestL2PutOverwritesExistingKey(t *testing.T) {
	l2 := openTestL2(t, time.Hour)
	l2.Put("k", "v1")
	l2.Put("k", "v2")
	v, ok := l2.Get("k")
	if !ok || v != "v2" {
		t.Fatalf("got (%q,%v), want (v2,true)", v, ok)
	}
}
