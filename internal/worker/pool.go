package worker

import (
	"context"
	"fmt"
	"sync"

	"shuttlebus/internal/utils"
)

// Task is a detached unit of background work. It has no result channel; failures are
// the task's own business to log.
type Task func(ctx context.Context)

type job struct {
	name string
	fn   Task
}

// Pool runs submitted tasks on a fixed number of goroutines with a bounded queue.
type Pool struct {
	jobs   chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool starts workers goroutines consuming a queue of the given size.
func NewPool(workers, queue int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:   make(chan job, queue),
		ctx:    ctx,
		cancel: cancel,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.exec(j)
	}
}

func (p *Pool) exec(j job) {
	defer func() {
		if r := recover(); r != nil {
			utils.Log().Error().Str("task", j.name).Str("panic", fmt.Sprint(r)).Msg("background task panicked")
		}
	}()
	j.fn(p.ctx)
}

// Submit queues fn without blocking. It returns false when the pool is closed or the
// queue is full; the task is dropped and logged.
func (p *Pool) Submit(name string, fn Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		utils.Log().Warn().Str("task", name).Msg("worker pool closed, task dropped")
		return false
	}
	select {
	case p.jobs <- job{name: name, fn: fn}:
		return true
	default:
		utils.Log().Warn().Str("task", name).Int("queue", cap(p.jobs)).Msg("worker queue full, task dropped")
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish. When ctx expires
// first, running tasks see their context cancelled and ctx.Err() is returned.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
