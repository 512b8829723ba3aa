package scheduler

import "context"

// BlockingPool bounds the number of concurrent goroutines running blocking
// offload work (subprocess capture, sidecar HTTP calls) so a burst of P2
// tasks can't spawn unbounded OS threads underneath the Go scheduler.
type BlockingPool struct {
	sem chan struct{}
}

// NewBlockingPool creates a pool allowing at most size concurrent Run calls
// to execute their function at once; excess calls block until a slot frees.
func NewBlockingPool(size int) *BlockingPool {
	if size < 1 {
		size = 1
	}
	return &BlockingPool{sem: make(chan struct{}, size)}
}

// Run executes fn once a slot is available, releasing the slot when fn
// returns. Blocks (observing ctx) while the pool is saturated.
func (p *BlockingPool) Run(ctx context.Context, fn func() error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()
	return fn()
}

// InUse reports how many slots are currently occupied.
func (p *BlockingPool) InUse() int {
	return len(p.sem)
}
