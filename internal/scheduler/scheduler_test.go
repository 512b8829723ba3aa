package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tindervale/babelglass/internal/cancel"
	"github.com/tindervale/babelglass/internal/metrics"
)

func newTestScheduler(t *testing.T, handleP0 func(P0Task), handleP1 func(context.Context, P1Task), handleP2 func(context.Context, P2Task)) (*Scheduler, context.CancelFunc) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	s := New(ctx, Config{
		Cancel:   cancel.New(),
		Metrics:  metrics.NewRegistry(),
		HandleP0: handleP0,
		HandleP1: handleP1,
		HandleP2: handleP2,
	})
	t.Cleanup(cancelFn)
	return s, cancelFn
}

func TestP0TasksAreHandled(t *testing.T) {
	var got atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)
	s, _ := newTestScheduler(t, func(task P0Task) {
		got.Store(int32(task.Kind))
		wg.Done()
	}, nil, nil)

	s.SubmitP0(P0Task{Kind: PlaySound})

	waitOrTimeout(t, &wg, time.Second)
	if P0Kind(got.Load()) != PlaySound {
		t.Fatalf("expected PlaySound handled")
	}
}

func TestP1StaleGuardIsDropped(t *testing.T) {
	var handled atomic.Int32
	s, _ := newTestScheduler(t, nil, func(ctx context.Context, task P1Task) {
		handled.Add(1)
	}, nil)

	gen := cancel.NewGeneration()
	guard, _ := gen.ChildToken()
	gen.CancelAndAdvance() // stale before submission

	if err := s.SubmitP1(context.Background(), P1Task{Kind: Translate, Guard: guard}); err != nil {
		t.Fatalf("SubmitP1: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if handled.Load() != 0 {
		t.Fatalf("expected stale P1 task to be dropped, handled=%d", handled.Load())
	}
}

func TestP1LiveGuardIsHandled(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	s, _ := newTestScheduler(t, nil, func(ctx context.Context, task P1Task) {
		wg.Done()
	}, nil)

	gen := cancel.NewGeneration()
	guard, _ := gen.ChildToken()

	if err := s.SubmitP1(context.Background(), P1Task{Kind: Translate, Guard: guard}); err != nil {
		t.Fatalf("SubmitP1: %v", err)
	}
	waitOrTimeout(t, &wg, time.Second)
}

func TestWakeDetectedCancelsOutstandingGeneration(t *testing.T) {
	coord := cancel.New()
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()
	s := New(ctx, Config{Cancel: coord, Metrics: metrics.NewRegistry(), HandleP0: func(P0Task) {}})

	guard, _ := coord.P1.ChildToken()
	s.SubmitP0(P0Task{Kind: WakeDetected})

	time.Sleep(20 * time.Millisecond)
	if guard.ShouldContinue() {
		t.Fatalf("expected outstanding P1 guard cancelled by WakeDetected")
	}
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("timed out waiting for handler")
	}
}
