// Package ui implements the WebSocket bridge between the assistant process
// and its UI: command decoding for user-initiated actions and fire-and-
// forget JSON event emission for server-initiated updates. Grounded on the
// teacher's internal/ws/handler.go (ServeHTTP/runSession/newEventSender),
// generalized from a per-call audio session to a long-lived command/event
// bridge — this assistant has one persistent UI connection per process
// rather than one WebSocket per call.
package ui

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16384,
	WriteBufferSize: 16384,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Command is one text frame sent by the UI.
type Command struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is one JSON frame sent to the UI.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// EventSender delivers an Event to the UI, fire-and-forget.
type EventSender func(Event)

// CommandHandler processes one decoded Command, using send to emit any
// resulting events.
type CommandHandler func(cmd Command, send EventSender)

// Bridge upgrades incoming HTTP connections to WebSocket and dispatches
// decoded commands to a single registered handler. The assistant has one
// persistent UI connection per process; Bridge also tracks the current
// connection's sender so server-initiated events (wake fired from the
// audio loop, a translate chunk streaming in on P1) can reach the UI
// without going through a Command first.
type Bridge struct {
	handler CommandHandler

	mu      sync.Mutex
	current EventSender
}

// NewBridge creates a Bridge dispatching every command to handler.
func NewBridge(handler CommandHandler) *Bridge {
	return &Bridge{handler: handler}
}

// Send delivers ev to the current UI connection, if one is attached. It is
// a silent no-op with no connection attached (e.g. before the UI has
// connected, or after it disconnects) since events are fire-and-forget.
func (b *Bridge) Send(ev Event) {
	b.mu.Lock()
	send := b.current
	b.mu.Unlock()
	if send != nil {
		send(ev)
	}
}

// ServeHTTP upgrades the connection and runs the command/event loop until
// the client disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ui websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := newEventSender(conn)
	b.mu.Lock()
	b.current = send
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.current = nil
		b.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Info("ui connection closed", "error", err)
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			slog.Warn("ui command decode failed", "error", err)
			continue
		}
		if b.handler != nil {
			b.handler(cmd, send)
		}
	}
}

// newEventSender wraps conn in a mutex-guarded sender, since gorilla's
// Conn forbids concurrent writers and multiple scheduler tiers may emit
// events concurrently.
func newEventSender(conn *websocket.Conn) EventSender {
	var mu sync.Mutex
	return func(ev Event) {
		mu.Lock()
		defer mu.Unlock()

		data, err := json.Marshal(ev)
		if err != nil {
			slog.Error("marshal ui event", "error", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Error("write ui event", "error", err)
		}
	}
}

// Command action names, per the UI protocol.
const (
	ActionGetState            = "get_state"
	ActionGetMetricsSummary   = "get_metrics_summary"
	ActionSelectMode          = "select_mode"
	ActionSubmitOcrSelection  = "submit_ocr_selection"
	ActionCancelOcrCapture    = "cancel_ocr_capture"
	ActionCancelCurrent       = "cancel_current"
	ActionDismiss             = "dismiss"
	ActionStopRealtime        = "stop_realtime"
	ActionGetHistory          = "get_history"
	ActionGetScreenshotBase64 = "get_screenshot_base64"
)

// Event type names, per the UI protocol.
const (
	EventWakeDetected      = "wake-detected"
	EventWakeConfirmed     = "wake-confirmed"
	EventWakeRejected      = "wake-rejected"
	EventPlaySound         = "play-sound"
	EventForceCancel       = "force-cancel"
	EventCaptureComplete   = "capture-complete"
	EventCaptureError      = "capture-error"
	EventTranslateChunk    = "translate-chunk"
	EventTranslateComplete = "translate-complete"
	EventTranslateError    = "translate-error"
	EventOcrStarted        = "ocr-started"
	EventOcrComplete       = "ocr-complete"
	EventOcrError          = "ocr-error"
	EventRealtimeStarted   = "realtime-started"
	EventRealtimeUpdate    = "realtime-update"
	EventRealtimeError     = "realtime-error"
	EventRealtimeStopped   = "realtime-stopped"
)
