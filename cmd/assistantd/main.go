// Command assistantd runs the voice-activated translation assistant: wake
// detection, the three-tier scheduler, the translation pipeline with its
// two-level cache, the incremental OCR loop, history persistence, and the
// WebSocket bridge to the UI. Grounded on the teacher's cmd/gateway/main.go
// for the JSON-tuning-file-plus-env wiring shape and graceful-shutdown
// pattern.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tindervale/babelglass/internal/audio"
	"github.com/tindervale/babelglass/internal/cache"
	"github.com/tindervale/babelglass/internal/cancel"
	"github.com/tindervale/babelglass/internal/capture"
	"github.com/tindervale/babelglass/internal/config"
	"github.com/tindervale/babelglass/internal/history"
	"github.com/tindervale/babelglass/internal/metrics"
	"github.com/tindervale/babelglass/internal/ocr"
	"github.com/tindervale/babelglass/internal/scheduler"
	"github.com/tindervale/babelglass/internal/statemachine"
	"github.com/tindervale/babelglass/internal/translate"
	"github.com/tindervale/babelglass/internal/ui"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load("assistantd.json")
	if err != nil {
		slog.Warn("config load", "error", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	machine := statemachine.New()
	coordinator := cancel.New()
	metricsRegistry := metrics.NewRegistry()

	l1 := cache.NewL1(cfg.CacheL1Capacity, cfg.CacheL1TTL())
	l2, err := cache.OpenL2(cfg.CacheL2Path, cfg.CacheL2TTL())
	if err != nil {
		slog.Error("cache l2 open failed", "error", err)
		os.Exit(1)
	}
	defer l2.Close()
	twoLevelCache := cache.NewTwoLevel(l1, l2, metricsRegistry)

	historyStore, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		slog.Error("history open failed", "error", err)
		os.Exit(1)
	}
	defer historyStore.Close()
	historyWriter := history.NewWriter(historyStore)
	defer historyWriter.Close()

	glossary, err := translate.LoadGlossary(cfg.GlossaryPath)
	if err != nil {
		slog.Warn("glossary load failed, continuing with empty glossary", "error", err)
	}

	translateClient := translate.NewClient(cfg.TranslateAPIKey, cfg.TranslateBaseURL, cfg.TranslateModel, cfg.TranslatePoolSize)
	pipeline := &translate.Pipeline{
		Cache:    twoLevelCache,
		Client:   translateClient,
		Glossary: glossary,
		Metrics:  metricsRegistry,
	}

	selector := capture.NewClipboardSelector()
	grabber := capture.NewScreenshotGrabber()
	ocrEngine := ocr.NewHTTPEngine(cfg.OCRSidecarURL)

	// bridge is assigned once the UI bridge is constructed below; the P0/P1/P2
	// handlers close over this pointer rather than a value so they can reach
	// whichever connection is current by the time a task actually runs.
	var bridge *ui.Bridge

	var sched *scheduler.Scheduler
	sched = scheduler.New(ctx, scheduler.Config{
		Cancel:  coordinator,
		Metrics: metricsRegistry,
		HandleP0: func(t scheduler.P0Task) {
			handleP0Task(machine, coordinator, sched, cfg, &bridge, t)
		},
		HandleP1: func(taskCtx context.Context, t scheduler.P1Task) {
			handleP1Task(taskCtx, pipeline, selector, machine, historyWriter, &bridge, t)
		},
		HandleP2: func(taskCtx context.Context, t scheduler.P2Task) {
			handleP2Task(taskCtx, grabber, ocrEngine, cfg, coordinator, sched, machine, &bridge, t)
		},
	})

	realtime := &realtimeManager{
		ctx:      ctx,
		grabber:  grabber,
		engine:   ocrEngine,
		pipeline: pipeline,
		cfg:      cfg,
		reg:      metricsRegistry,
		bridge:   &bridge,
	}

	dispatcher := ui.NewDispatcher(ui.Deps{
		Machine:   machine,
		Scheduler: sched,
		Cancel:    coordinator,
		Metrics:   metricsRegistry,
		History:   historyStore,
		Grabber:   grabber,
		Realtime:  realtime,
	})
	bridge = ui.NewBridge(dispatcher)

	const micSampleRate = 16000
	wakeDetector := audio.NewWakeDetector(audio.NewEnergySpikeScorer(), audio.WakeThresholds{
		Low:            cfg.WakeLowThreshold,
		High:           cfg.WakeHighThreshold,
		Window:         cfg.WakeWindow(),
		RequiredFrames: cfg.WakeRequiredFrames,
	})
	vad := audio.NewVAD(audio.VADConfig{
		SilenceRMSThreshold: float64(cfg.VADSilenceRMS),
		SilenceFrameCount:   cfg.VADSilenceFrameCount,
		InactiveFrameDiv:    4,
	})
	ring := audio.NewRingBuffer(micSampleRate * 2)

	mic, err := audio.NewMicCapture(micSampleRate, ring)
	if err != nil {
		slog.Warn("mic capture unavailable, wake detection disabled", "error", err)
	} else {
		if err := mic.Start(); err != nil {
			slog.Warn("mic capture failed to start", "error", err)
		} else {
			defer mic.Close()
			go audio.RunProcessingLoop(ctx, ring, vad, wakeDetector, micSampleRate, func(outcome audio.WakeOutcome) {
				switch outcome {
				case audio.WakeDetectedEvent:
					sched.SubmitP0(scheduler.P0Task{Kind: scheduler.WakeDetected})
				case audio.WakeConfirmedEvent:
					sched.SubmitP0(scheduler.P0Task{Kind: scheduler.WakeConfirmed})
				case audio.WakeRejectedEvent:
					sched.SubmitP0(scheduler.P0Task{Kind: scheduler.WakeRejected})
				}
			})
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws/events", bridge.ServeHTTP)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: mux}

	go awaitShutdown(srv, stop)

	slog.Info("assistantd starting", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("assistantd stopped")
}

func awaitShutdown(srv *http.Server, stop context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)

	stop()

	shutdownCtx, cancelFn := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelFn()
	srv.Shutdown(shutdownCtx)
}

func handleP0Task(machine *statemachine.Machine, coordinator *cancel.Coordinator, sched *scheduler.Scheduler, cfg config.Config, bridge **ui.Bridge, t scheduler.P0Task) {
	switch t.Kind {
	case scheduler.WakeDetected:
		(*bridge).Send(ui.Event{Type: ui.EventWakeDetected})

	case scheduler.WakeConfirmed:
		machine.Transition(statemachine.WakeConfirm, statemachine.ModeUnset)
		(*bridge).Send(ui.Event{Type: ui.EventWakeConfirmed})
		(*bridge).Send(ui.Event{Type: ui.EventPlaySound})

		// The voice-triggered flow has no explicit mode-select command, so
		// it walks ModeSelect -> Capture itself before handing off to the
		// P1 capture-selection task.
		machine.Transition(statemachine.ModeSelect, statemachine.ModeSelection)
		machine.Transition(statemachine.Capture, statemachine.ModeUnset)

		guard, _ := coordinator.P1.ChildToken()
		sched.SubmitP1(context.Background(), scheduler.P1Task{
			Kind:  scheduler.CaptureSelection,
			Guard: guard,
			Payload: capturePayload{
				sourceLang: cfg.DefaultSourceLang,
				targetLang: cfg.DefaultTargetLang,
			},
		})

	case scheduler.WakeRejected:
		machine.ForceSleep()
		(*bridge).Send(ui.Event{Type: ui.EventWakeRejected})

	case scheduler.ForceCancel:
		machine.ForceSleep()
		(*bridge).Send(ui.Event{Type: ui.EventForceCancel})
	}
}

// capturePayload carries the language pair a CaptureSelection task should
// translate into once the selection text comes back.
type capturePayload struct {
	sourceLang string
	targetLang string
}

func handleP1Task(ctx context.Context, pipeline *translate.Pipeline, selector capture.Selector, machine *statemachine.Machine, historyWriter *history.Writer, bridge **ui.Bridge, t scheduler.P1Task) {
	switch t.Kind {
	case scheduler.CaptureSelection:
		payload, _ := t.Payload.(capturePayload)
		text, err := selector.ReadText(ctx)
		if err != nil {
			slog.Warn("capture selection failed", "error", err)
			(*bridge).Send(ui.Event{Type: ui.EventCaptureError, Data: err.Error()})
			return
		}
		if !t.Guard.ShouldContinue() {
			return
		}
		(*bridge).Send(ui.Event{Type: ui.EventCaptureComplete, Data: text})

		machine.Transition(statemachine.Translate, statemachine.ModeUnset)
		req := translate.Request{SourceLang: payload.sourceLang, TargetLang: payload.targetLang, Text: text}
		outcome, err := pipeline.Run(ctx, t.Guard, req, func(chunk string) {
			if t.Guard.ShouldContinue() {
				(*bridge).Send(ui.Event{Type: ui.EventTranslateChunk, Data: chunk})
			}
		})
		if err != nil {
			slog.Warn("translate failed", "error", err)
			(*bridge).Send(ui.Event{Type: ui.EventTranslateError, Data: err.Error()})
			return
		}
		if !t.Guard.ShouldContinue() {
			return
		}
		historyWriter.Record(req.SourceLang, req.TargetLang, req.Text, outcome.Text, "selection")
		machine.Transition(statemachine.Render, statemachine.ModeUnset)
		(*bridge).Send(ui.Event{Type: ui.EventTranslateComplete, Data: outcome})

	case scheduler.Translate:
		req, ok := t.Payload.(translate.Request)
		if !ok {
			return
		}
		// Reached either from Capture (direct selection translate) or Ocr
		// (an OCR-region pass handed off its joined text here); both are
		// adjacent to Translate.
		machine.Transition(statemachine.Translate, statemachine.ModeUnset)
		outcome, err := pipeline.Run(ctx, t.Guard, req, nil)
		if err != nil {
			slog.Warn("translate failed", "error", err)
			(*bridge).Send(ui.Event{Type: ui.EventTranslateError, Data: err.Error()})
			return
		}
		if !t.Guard.ShouldContinue() {
			return
		}
		historyWriter.Record(req.SourceLang, req.TargetLang, req.Text, outcome.Text, "ocr_region")
		machine.Transition(statemachine.Render, statemachine.ModeUnset)
		(*bridge).Send(ui.Event{Type: ui.EventTranslateComplete, Data: outcome})
	}
}

// ocrCompleteEvent is the ocr-complete event payload: the joined text that
// was handed to the P1 translate stage, alongside the raw recognized lines.
type ocrCompleteEvent struct {
	RequestID string     `json:"request_id"`
	Text      string     `json:"text"`
	Lines     []ocr.Line `json:"lines"`
	ElapsedMs float64    `json:"elapsed_ms"`
}

func handleP2Task(ctx context.Context, grabber capture.ScreenGrabber, engine ocr.Engine, cfg config.Config, coordinator *cancel.Coordinator, sched *scheduler.Scheduler, machine *statemachine.Machine, bridge **ui.Bridge, t scheduler.P2Task) {
	payload, ok := t.Payload.(ocr.TaskPayload)
	if !ok {
		return
	}
	machine.Transition(statemachine.Ocr, statemachine.ModeUnset)

	start := time.Now()
	frame, err := grabber.GrabROI(ctx, payload.ROI)
	if err != nil {
		slog.Warn("ocr capture failed", "error", err)
		(*bridge).Send(ui.Event{Type: ui.EventOcrError, Data: err.Error()})
		return
	}
	if !t.Guard.ShouldContinue() {
		return
	}

	lines, err := recognizeGuarded(ctx, engine, frame)
	if err != nil {
		slog.Warn("ocr recognize failed", "error", err)
		(*bridge).Send(ui.Event{Type: ui.EventOcrError, Data: err.Error()})
		return
	}
	if !t.Guard.ShouldContinue() {
		return
	}

	text := joinLineText(lines)
	if text == "" {
		machine.ForceSleep()
		(*bridge).Send(ui.Event{Type: ui.EventOcrError, Data: "no text recognized"})
		return
	}

	(*bridge).Send(ui.Event{Type: ui.EventOcrComplete, Data: ocrCompleteEvent{
		RequestID: payload.RequestID,
		Text:      text,
		Lines:     lines,
		ElapsedMs: float64(time.Since(start).Milliseconds()),
	}})

	guard, _ := coordinator.P1.ChildToken()
	sched.SubmitP1(ctx, scheduler.P1Task{
		Kind:  scheduler.Translate,
		Guard: guard,
		Payload: translate.Request{
			SourceLang: cfg.DefaultSourceLang,
			TargetLang: cfg.DefaultTargetLang,
			Text:       text,
		},
	})
}

// recognizeGuarded recovers from an engine panic so one OCR sidecar hiccup
// can't take the whole P2 consumer loop down with it.
func recognizeGuarded(ctx context.Context, engine ocr.Engine, frame ocr.Frame) (lines []ocr.Line, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ocr: engine panic: %v", r)
		}
	}()
	return engine.Recognize(ctx, frame)
}

// joinLineText concatenates non-empty recognized line text by newline, in
// the top-to-bottom order Engine.Recognize returns.
func joinLineText(lines []ocr.Line) string {
	var sb strings.Builder
	for _, l := range lines {
		if l.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}

// realtimeUpdateEvent is the realtime-update event payload: source/
// translated text merged in document order from the per-line session
// cache, plus the tick's change/cache-hit counts.
type realtimeUpdateEvent struct {
	RequestID      string        `json:"request_id"`
	Source         string        `json:"source"`
	Translated     string        `json:"translated"`
	Lines          int           `json:"lines"`
	Added          int           `json:"added"`
	Cached         int           `json:"cached"`
	TokenSavingPct float64       `json:"token_saving_pct"`
	Stats          realtimeStats `json:"stats"`
}

type realtimeStats struct {
	Total   int `json:"total"`
	Changed int `json:"changed"`
	Cached  int `json:"cached"`
}

// roiSampler adapts a capture.ScreenGrabber fixed to one ROI into an
// ocr.Sampler for RealtimeLoop.
type roiSampler struct {
	grabber capture.ScreenGrabber
	roi     any
}

func (s *roiSampler) Sample(ctx context.Context) (ocr.Frame, error) {
	return s.grabber.GrabROI(ctx, s.roi)
}

// realtimeManager starts incremental OCR sessions on behalf of the UI
// dispatcher's stop_realtime/submit_ocr_selection commands, translating
// each tick's changed lines through the same Pipeline the P1 stage uses
// and merging per-line translations into document order via a per-session
// cache keyed by ocr.LineKey.
type realtimeManager struct {
	ctx      context.Context
	grabber  capture.ScreenGrabber
	engine   ocr.Engine
	pipeline *translate.Pipeline
	cfg      config.Config
	reg      *metrics.Registry
	bridge   **ui.Bridge
}

// Start runs one realtime session in its own goroutine until guard's
// generation is cancelled (by stop_realtime or a later wake/mode switch)
// or the process shuts down, then emits realtime-stopped.
func (r *realtimeManager) Start(guard cancel.Guard, roi any, requestID string) {
	sampler := &roiSampler{grabber: r.grabber, roi: roi}
	loop := ocr.NewRealtimeLoop(sampler, r.engine, ocr.DefaultRealtimeConfig(), r.reg)

	lineCache := make(map[uint64]string)
	var mu sync.Mutex

	go func() {
		(*r.bridge).Send(ui.Event{Type: ui.EventRealtimeStarted, Data: map[string]string{"request_id": requestID}})

		err := loop.Run(r.ctx, guard, func(u ocr.Update) {
			r.handleUpdate(guard, requestID, lineCache, &mu, u)
		})
		if err != nil && r.ctx.Err() == nil {
			(*r.bridge).Send(ui.Event{Type: ui.EventRealtimeError, Data: err.Error()})
		}
		(*r.bridge).Send(ui.Event{Type: ui.EventRealtimeStopped, Data: map[string]string{"request_id": requestID}})
	}()
}

func (r *realtimeManager) handleUpdate(guard cancel.Guard, requestID string, lineCache map[uint64]string, mu *sync.Mutex, u ocr.Update) {
	if !guard.ShouldContinue() {
		return
	}

	mu.Lock()
	for _, l := range u.ChangedLines {
		if l.Text == "" {
			continue
		}
		req := translate.Request{SourceLang: r.cfg.DefaultSourceLang, TargetLang: r.cfg.DefaultTargetLang, Text: l.Text}
		outcome, err := r.pipeline.Run(r.ctx, guard, req, nil)
		if err != nil {
			slog.Warn("realtime line translate failed, keeping original text", "error", err)
			lineCache[ocr.LineKey(l)] = l.Text
			continue
		}
		lineCache[ocr.LineKey(l)] = outcome.Text
	}

	var source, translated strings.Builder
	for _, l := range u.Lines {
		if l.Text == "" {
			continue
		}
		if source.Len() > 0 {
			source.WriteByte('\n')
			translated.WriteByte('\n')
		}
		source.WriteString(l.Text)
		text, ok := lineCache[ocr.LineKey(l)]
		if !ok {
			text = l.Text
		}
		translated.WriteString(text)
	}
	mu.Unlock()

	if !guard.ShouldContinue() {
		return
	}
	(*r.bridge).Send(ui.Event{Type: ui.EventRealtimeUpdate, Data: realtimeUpdateEvent{
		RequestID:      requestID,
		Source:         source.String(),
		Translated:     translated.String(),
		Lines:          len(u.Lines),
		Added:          len(u.ChangedLines),
		Cached:         u.UnchangedLines,
		TokenSavingPct: u.TokenSavingRatio * 100,
		Stats:          realtimeStats{Total: len(u.Lines), Changed: len(u.ChangedLines), Cached: u.UnchangedLines},
	}})
}
