package ui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tindervale/babelglass/internal/cancel"
	"github.com/tindervale/babelglass/internal/capture"
	"github.com/tindervale/babelglass/internal/history"
	"github.com/tindervale/babelglass/internal/metrics"
	"github.com/tindervale/babelglass/internal/ocr"
	"github.com/tindervale/babelglass/internal/scheduler"
	"github.com/tindervale/babelglass/internal/statemachine"
)

// RealtimeController starts an incremental OCR session over roi under
// guard, streaming realtime-update events until guard's generation is
// cancelled.
type RealtimeController interface {
	Start(guard cancel.Guard, roi any, requestID string)
}

// Deps bundles everything a Dispatcher needs to satisfy a UI command.
type Deps struct {
	Machine   *statemachine.Machine
	Scheduler *scheduler.Scheduler
	Cancel    *cancel.Coordinator
	Metrics   *metrics.Registry
	History   *history.Store
	Grabber   capture.ScreenGrabber
	Realtime  RealtimeController
}

// selectModePayload is the body of a select_mode command.
type selectModePayload struct {
	Mode string `json:"mode"`
}

// submitOcrSelectionPayload is the body of a submit_ocr_selection command.
// roi_type selects which of rect/points/corners+target is populated: "rect"
// (default), "polygon" ({points: [4]}), or "perspective" ({corners: [4],
// target: {w,h}}).
type submitOcrSelectionPayload struct {
	RoiType string      `json:"roi_type"`
	Rect    ocr.Rect    `json:"rect"`
	Points  []ocr.Point `json:"points"`
	Corners []ocr.Point `json:"corners"`
	Target  ocr.Rect    `json:"target"`
}

// roi decodes the payload into the ocr.Rect/Polygon/Perspective its roi_type
// names.
func (p submitOcrSelectionPayload) roi() (any, error) {
	switch p.RoiType {
	case "polygon":
		if len(p.Points) != 4 {
			return nil, fmt.Errorf("ui: polygon roi needs 4 points, got %d", len(p.Points))
		}
		return ocr.Polygon{Vertices: [4]ocr.Point{p.Points[0], p.Points[1], p.Points[2], p.Points[3]}}, nil
	case "perspective":
		if len(p.Corners) != 4 {
			return nil, fmt.Errorf("ui: perspective roi needs 4 corners, got %d", len(p.Corners))
		}
		poly := ocr.Polygon{Vertices: [4]ocr.Point{p.Corners[0], p.Corners[1], p.Corners[2], p.Corners[3]}}
		return ocr.Perspective{Polygon: poly, Target: p.Target}, nil
	default:
		return p.Rect, nil
	}
}

// NewDispatcher returns a CommandHandler that routes each known action to
// the corresponding Deps operation, emitting events the UI expects back.
func NewDispatcher(deps Deps) CommandHandler {
	return func(cmd Command, send EventSender) {
		switch cmd.Action {
		case ActionGetState:
			send(Event{Type: "state", Data: deps.Machine.Snapshot()})

		case ActionGetMetricsSummary:
			if deps.Metrics != nil {
				send(Event{Type: "metrics_summary", Data: deps.Metrics.SummaryAll()})
			}

		case ActionSelectMode:
			var p selectModePayload
			if err := json.Unmarshal(cmd.Payload, &p); err != nil {
				send(Event{Type: EventCaptureError, Data: err.Error()})
				return
			}
			mode := modeFromString(p.Mode)
			deps.Machine.Transition(statemachine.ModeSelect, mode)

		case ActionSubmitOcrSelection:
			var p submitOcrSelectionPayload
			if err := json.Unmarshal(cmd.Payload, &p); err != nil {
				send(Event{Type: EventOcrError, Data: err.Error()})
				return
			}
			roi, err := p.roi()
			if err != nil {
				send(Event{Type: EventOcrError, Data: err.Error()})
				return
			}

			guard, _ := deps.Cancel.P2.ChildToken()
			requestID := uuid.NewString()

			if deps.Machine.Snapshot().Mode == statemachine.ModeRealtimeIncremental {
				deps.Machine.Transition(statemachine.Capture, statemachine.ModeUnset)
				deps.Machine.Transition(statemachine.Ocr, statemachine.ModeUnset)
				if deps.Realtime != nil {
					deps.Realtime.Start(guard, roi, requestID)
				}
				return
			}

			deps.Machine.Transition(statemachine.Capture, statemachine.ModeUnset)
			if deps.Scheduler != nil {
				deps.Scheduler.SubmitP2(context.Background(), scheduler.P2Task{
					Guard:   guard,
					Payload: ocr.TaskPayload{RequestID: requestID, ROI: roi},
				})
			}
			send(Event{Type: EventOcrStarted, Data: map[string]string{"request_id": requestID}})

		case ActionCancelOcrCapture, ActionCancelCurrent:
			if deps.Cancel != nil {
				deps.Cancel.CancelAllAndAdvance()
			}
			send(Event{Type: EventForceCancel})

		case ActionDismiss:
			deps.Machine.ForceSleep()

		case ActionStopRealtime:
			if deps.Cancel != nil {
				deps.Cancel.P2.CancelAndAdvance()
			}
			send(Event{Type: EventRealtimeStopped})

		case ActionGetHistory:
			if deps.History == nil {
				send(Event{Type: "history", Data: []history.Record{}})
				return
			}
			recs, err := deps.History.List(100)
			if err != nil {
				send(Event{Type: EventCaptureError, Data: err.Error()})
				return
			}
			send(Event{Type: "history", Data: recs})

		case ActionGetScreenshotBase64:
			if deps.Grabber == nil {
				send(Event{Type: EventCaptureError, Data: "no screen grabber configured"})
				return
			}
			var p submitOcrSelectionPayload
			if err := json.Unmarshal(cmd.Payload, &p); err != nil {
				send(Event{Type: EventCaptureError, Data: err.Error()})
				return
			}
			frame, err := deps.Grabber.Grab(context.Background(), p.Rect)
			if err != nil {
				send(Event{Type: EventCaptureError, Data: err.Error()})
				return
			}
			send(Event{Type: "screenshot", Data: base64.StdEncoding.EncodeToString(frame.RGBA)})
		}
	}
}

func modeFromString(s string) statemachine.Mode {
	switch s {
	case "ocr_region":
		return statemachine.ModeOcrRegion
	case "realtime_incremental":
		return statemachine.ModeRealtimeIncremental
	default:
		return statemachine.ModeSelection
	}
}
