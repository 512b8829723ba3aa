package scheduler

import (
	"context"
	"log/slog"

	"github.com/tindervale/babelglass/internal/cancel"
	"github.com/tindervale/babelglass/internal/metrics"
)

// Queue capacities per spec: P0 is unbounded (a wake event must never be
// dropped for lack of buffer space), P1 and P2 are bounded to apply
// backpressure to producers rather than let queued work grow unbounded.
const (
	P1Capacity = 64
	P2Capacity = 16
)

// Scheduler owns the three priority channels and their consumer loops. P0
// runs on its own goroutine reading an unbounded Go channel (channels are
// themselves a safe MPSC queue; "unbounded" here means producers never
// block on Submit, backed by an internal slice buffer). P1/P2 are bounded
// native channels so Submit can observe backpressure directly.
type Scheduler struct {
	p0 chan P0Task
	p1 chan P1Task
	p2 chan P2Task

	p0in chan P0Task // producer-facing side of the unbounded P0 buffer

	cancel  *cancel.Coordinator
	metrics *metrics.Registry

	handleP0 func(P0Task)
	handleP1 func(context.Context, P1Task)
	handleP2 func(context.Context, P2Task)
}

// Config bundles the stage handlers a Scheduler dispatches to.
type Config struct {
	Cancel   *cancel.Coordinator
	Metrics  *metrics.Registry
	HandleP0 func(P0Task)
	HandleP1 func(context.Context, P1Task)
	HandleP2 func(context.Context, P2Task)
}

// New creates a Scheduler and starts its three consumer goroutines.
func New(ctx context.Context, cfg Config) *Scheduler {
	s := &Scheduler{
		p0:       make(chan P0Task, 1),
		p1:       make(chan P1Task, P1Capacity),
		p2:       make(chan P2Task, P2Capacity),
		p0in:     make(chan P0Task),
		cancel:   cfg.Cancel,
		metrics:  cfg.Metrics,
		handleP0: cfg.HandleP0,
		handleP1: cfg.HandleP1,
		handleP2: cfg.HandleP2,
	}
	go s.bufferP0(ctx)
	go s.runP0(ctx)
	go s.runP1(ctx)
	go s.runP2(ctx)
	return s
}

// bufferP0 adapts the unbounded-semantics producer side (p0in, always
// accepts) onto the single-slot consumer channel (p0), growing an internal
// slice as needed — the standard "unbounded channel" idiom in Go, since the
// language has no native unbounded channel type.
func (s *Scheduler) bufferP0(ctx context.Context) {
	var queue []P0Task
	for {
		if len(queue) == 0 {
			select {
			case t := <-s.p0in:
				queue = append(queue, t)
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case t := <-s.p0in:
			queue = append(queue, t)
		case s.p0 <- queue[0]:
			queue = queue[1:]
		case <-ctx.Done():
			return
		}
	}
}

// SubmitP0 enqueues a P0 task. Never blocks (the internal buffer is
// unbounded) and triggers a preemptive cancel-and-advance for wake events,
// since a new wake must invalidate any in-flight P1/P2 work immediately.
func (s *Scheduler) SubmitP0(t P0Task) {
	if t.Kind == WakeDetected && s.cancel != nil {
		s.cancel.CancelAllAndAdvance()
	}
	s.p0in <- t
}

// SubmitP1 enqueues with backpressure: a non-blocking try-send first (the
// common case), falling back to a blocking send honoring ctx so a burst of
// requests waits rather than silently drops.
func (s *Scheduler) SubmitP1(ctx context.Context, t P1Task) error {
	select {
	case s.p1 <- t:
		return nil
	default:
	}
	if s.metrics != nil {
		s.metrics.Record(metrics.MetricSchedulerQueueP1, float64(len(s.p1)))
	}
	select {
	case s.p1 <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitP2 enqueues with the same try-then-block backpressure as SubmitP1.
func (s *Scheduler) SubmitP2(ctx context.Context, t P2Task) error {
	select {
	case s.p2 <- t:
		return nil
	default:
	}
	if s.metrics != nil {
		s.metrics.Record(metrics.MetricSchedulerQueueP2, float64(len(s.p2)))
	}
	select {
	case s.p2 <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runP0 is the dedicated P0 consumer: it drains p0 exclusively, never
// selecting against p1/p2, so P0 latency never depends on P1/P2 load.
func (s *Scheduler) runP0(ctx context.Context) {
	for {
		select {
		case t := <-s.p0:
			if s.handleP0 != nil {
				s.handleP0(t)
			}
			metrics.SchedulerTasksTotal.WithLabelValues("p0", "handled").Inc()
		case <-ctx.Done():
			return
		}
	}
}

// runP1 drains the interactive-translation tier. Priority over P2 is
// structural: P1 and P2 have independent consumer loops, so a full P2
// queue never backs up P1 processing.
func (s *Scheduler) runP1(ctx context.Context) {
	for {
		select {
		case t := <-s.p1:
			if !t.Guard.ShouldContinue() {
				logStaleDrop("p1")
				metrics.SchedulerTasksTotal.WithLabelValues("p1", "stale").Inc()
				continue
			}
			if s.handleP1 != nil {
				s.handleP1(ctx, t)
			}
			metrics.SchedulerTasksTotal.WithLabelValues("p1", "handled").Inc()
		case <-ctx.Done():
			return
		}
	}
}

// runP2 drains the heavy-OCR tier.
func (s *Scheduler) runP2(ctx context.Context) {
	for {
		select {
		case t := <-s.p2:
			if !t.Guard.ShouldContinue() {
				logStaleDrop("p2")
				metrics.SchedulerTasksTotal.WithLabelValues("p2", "stale").Inc()
				continue
			}
			if s.handleP2 != nil {
				s.handleP2(ctx, t)
			}
			metrics.SchedulerTasksTotal.WithLabelValues("p2", "handled").Inc()
		case <-ctx.Done():
			return
		}
	}
}

// QueueDepths reports the current P1/P2 channel occupancy for metrics
// sampling; P0's internal buffer depth isn't exposed since it's expected to
// drain within microseconds.
func (s *Scheduler) QueueDepths() (p1, p2 int) {
	return len(s.p1), len(s.p2)
}

func logStaleDrop(tier string) {
	slog.Debug("scheduler dropped stale task", "tier", tier)
}
