package history

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tindervale/babelglass/internal/metrics"
)

// writerChannelBuffer bounds how many completed translations can queue
// before the background drain goroutine falls behind — mirrors the
// teacher's traceChannelBuffer sizing.
const writerChannelBuffer = 64

// Writer asynchronously persists completed translations so the render path
// never blocks on a disk write. All methods are nil-safe, matching the
// teacher's Tracer: a nil *Writer is a valid no-op history sink.
type Writer struct {
	store *Store
	ch    chan Record
	done  chan struct{}
}

// NewWriter creates a writer bound to store and starts its drain
// goroutine. Callers must call Close to flush pending writes and stop the
// goroutine.
func NewWriter(store *Store) *Writer {
	w := &Writer{store: store, ch: make(chan Record, writerChannelBuffer), done: make(chan struct{})}
	go w.drain()
	return w
}

func (w *Writer) drain() {
	defer close(w.done)
	for r := range w.ch {
		if err := w.store.Insert(r); err != nil {
			slog.Warn("history write failed", "error", err)
			continue
		}
		metrics.HistoryWritesTotal.Inc()
	}
}

// Record enqueues a completed translation for async persistence.
func (w *Writer) Record(sourceLang, targetLang, sourceText, translated, mode string) {
	if w == nil {
		return
	}
	w.ch <- Record{
		ID:         uuid.NewString(),
		SourceLang: sourceLang,
		TargetLang: targetLang,
		SourceText: sourceText,
		Translated: translated,
		Mode:       mode,
		CreatedAt:  time.Now(),
	}
}

// Close drains pending writes and stops the background goroutine.
func (w *Writer) Close() {
	if w == nil {
		return
	}
	close(w.ch)
	<-w.done
}
