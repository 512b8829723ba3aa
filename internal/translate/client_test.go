package translate

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestConsumeChatStreamCoalescesFastDeltas(t *testing.T) {
	body := strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"c\"}}]}\n" +
			"data: [DONE]\n")

	var calls []string
	sr := consumeChatStream(body, func(chunk string) { calls = append(calls, chunk) })

	if sr.text != "abc" {
		t.Fatalf("got text %q, want abc", sr.text)
	}
	if len(calls) != 1 || calls[0] != "abc" {
		t.Fatalf("expected deltas arriving faster than flushInterval to coalesce into one onToken call, got %v", calls)
	}
}

func TestConsumeChatStreamFlushesAcrossSlowDeltas(t *testing.T) {
	r, w := io.Pipe()

	go func() {
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n")
		time.Sleep(flushInterval + 10*time.Millisecond)
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n")
		io.WriteString(w, "data: [DONE]\n")
		w.Close()
	}()

	var calls []string
	sr := consumeChatStream(r, func(chunk string) { calls = append(calls, chunk) })

	if sr.text != "ab" {
		t.Fatalf("got text %q, want ab", sr.text)
	}
	if len(calls) < 2 {
		t.Fatalf("expected deltas spaced beyond flushInterval to flush separately, got %v", calls)
	}
}
