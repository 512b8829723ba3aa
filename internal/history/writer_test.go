package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWriterPersistsRecordAsynchronously(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	w := NewWriter(store)
	w.Record("en", "fr", "hello", "bonjour", "selection")
	w.Close() // Close flushes pending writes before returning

	recs, err := store.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 || recs[0].Translated != "bonjour" {
		t.Fatalf("expected one flushed record, got %+v", recs)
	}
}

func TestNilWriterRecordIsNoOp(t *testing.T) {
	var w *Writer
	w.Record("en", "fr", "a", "b", "selection") // must not panic
	w.Close()                                   // must not panic
}

func TestWriterClosureBlocksUntilDrainCompletes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	w := NewWriter(store)
	for i := range 10 {
		w.Record("en", "fr", string(rune('a'+i)), "x", "selection")
	}
	start := time.Now()
	w.Close()
	if time.Since(start) > time.Second {
		t.Fatalf("close took unexpectedly long")
	}

	recs, _ := store.List(100)
	if len(recs) != 10 {
		t.Fatalf("expected all 10 records flushed by close, got %d", len(recs))
	}
}
