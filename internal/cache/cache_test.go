package cache

import (
	"path/filepath"
	"testing"

	"github.com/tindervale/babelglass/internal/metrics"
)

func newTestTwoLevel(t *testing.T) *TwoLevel {
	t.Helper()
	l1 := NewL1(L1DefaultCapacity, L1DefaultTTL)
	path := filepath.Join(t.TempDir(), "cache.db")
	l2, err := OpenL2(path, L2DefaultTTL)
	if err != nil {
		t.Fatalf("OpenL2: %v", err)
	}
	tl := NewTwoLevel(l1, l2, metrics.NewRegistry())
	t.Cleanup(func() { tl.Close() })
	return tl
}

func TestTwoLevelStoreThenLookupHitsL1(t *testing.T) {
	tl := newTestTwoLevel(t)
	tl.Store("k", "v")
	v, hit := tl.Lookup("k")
	if !hit || v != "v" {
		t.Fatalf("got (%q,%v), want (v,true)", v, hit)
	}
}

func TestTwoLevelL2HitPopulatesL1(t *testing.T) {
	tl := newTestTwoLevel(t)
	tl.l2.Put("k", "v")
	if _, hit := tl.l1.Get("k"); hit {
		t.Fatalf("precondition: l1 should be empty before lookup")
	}
	v, hit := tl.Lookup("k")
	if !hit || v != "v" {
		t.Fatalf("got (%q,%v), want (v,true)", v, hit)
	}
	if _, hit := tl.l1.Get("k"); !hit {
		t.Fatalf("expected L2 hit to populate L1")
	}
}

func TestTwoLevelMissOnUnknownKey(t *testing.T) {
	tl := newTestTwoLevel(t)
	if _, hit := tl.Lookup("missing"); hit {
		t.Fatalf("expected miss")
	}
}
