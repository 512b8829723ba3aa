// Package scheduler implements the three-tier priority dispatcher: P0
// (wake/UI, unbounded, dedicated goroutine, no I/O) always drains ahead of
// P1 (interactive translation, bounded 64) and P2 (heavy OCR, bounded 16).
// Priority is structural — P0 has its own consumer loop that never blocks
// on P1/P2 — not preemptive at the OS scheduling level. Grounded on the
// teacher's Pipeline/Config pattern (internal/pipeline/pipeline.go) for
// per-task config structs, generalized to scheduler task variants, and on
// internal/pipeline/router.go's generic Router for tier-keyed dispatch.
package scheduler

import "github.com/tindervale/babelglass/internal/cancel"

// P0Task is a P0-tier event: wake lifecycle and UI-visible, never blocking
// on I/O so the consumer loop stays under the wake-to-ack latency budget.
type P0Task struct {
	Kind P0Kind
}

// P0Kind enumerates the P0 task variants.
type P0Kind int

const (
	WakeDetected P0Kind = iota
	WakeConfirmed
	WakeRejected
	ShowModePanel
	HideModePanel
	PlaySound
	ForceCancel
)

// P1Task is an interactive-translation-tier unit of work: capture a
// selection, translate it, and render the result, each stage checking its
// cancellation guard before any UI-visible side effect.
type P1Task struct {
	Kind  P1Kind
	Guard cancel.Guard
	// Payload carries the kind-specific data (selected text, translate
	// request, render result) as an any to keep the task envelope uniform
	// across kinds without a type per variant.
	Payload any
}

// P1Kind enumerates the P1 task variants.
type P1Kind int

const (
	CaptureSelection P1Kind = iota
	Translate
	RenderResult
)

// P2Task is a heavy-OCR-tier unit of work, always guarded since an OCR pass
// that outlives its generation must never reach the renderer.
type P2Task struct {
	Guard   cancel.Guard
	Payload any // OcrRegion request
}
