// Package worker provides a bounded task pool. The scoring path uses one
// pool for CPU-bound encode/predict work and a separate one for sink I/O,
// so a burst of requests cannot starve either side.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/growthml/leadscore/pkg/logger"
	"github.com/growthml/leadscore/pkg/metric"
)

const poolShutdownTimeout = 30 * time.Second

// Pool runs submitted tasks on a fixed set of goroutines fed from a
// bounded queue.
type Pool struct {
	name  string
	tasks chan func()

	closeOnce sync.Once
	wg        sync.WaitGroup
	done      chan struct{}
}

// NewPool creates a pool with the given worker count and queue depth.
// A non-positive size falls back to NumCPU.
func NewPool(name string, size, queueDepth int) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	if queueDepth < 1 {
		queueDepth = size
	}

	p := &Pool{
		name:  name,
		tasks: make(chan func(), queueDepth),
		done:  make(chan struct{}),
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.run()
	}
	logger.Info(fmt.Sprintf("Worker pool %s started with %d workers, queue depth %d", name, size, queueDepth))
	return p
}

// run consumes tasks until done is signalled, then drains whatever is
// still queued. The task channel is never closed: a submit racing with
// shutdown must never panic on a closed channel, its task is either
// drained here or left behind.
func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			p.invoke(task)
		case <-p.done:
			for {
				select {
				case task := <-p.tasks:
					p.invoke(task)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) invoke(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("Recovered from panic in pool %s: %v", p.name, r), nil)
			metric.Count("leadscore.pool.task.panic", 1, []string{"pool:" + p.name})
		}
	}()
	task()
}

// Submit queues a task, blocking until there is room or ctx expires.
// The caller's goroutine is free while the task waits and runs.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case <-p.done:
		return fmt.Errorf("pool %s is shut down", p.name)
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		metric.Count("leadscore.pool.submit.timeout", 1, []string{"pool:" + p.name})
		return ctx.Err()
	case <-p.done:
		return fmt.Errorf("pool %s is shut down", p.name)
	}
}

// TrySubmit queues a task without blocking. Returns false when the queue
// is full or the pool is stopped; fire-and-forget callers log and count
// the drop instead of waiting.
func (p *Pool) TrySubmit(task func()) bool {
	select {
	case <-p.done:
		return false
	default:
	}

	select {
	case p.tasks <- task:
		return true
	default:
		metric.Count("leadscore.pool.task.dropped", 1, []string{"pool:" + p.name})
		return false
	}
}

// Shutdown stops intake and drains queued tasks, bounded by ctx and a hard
// timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() {
		close(p.done)
	})

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pool %s shutdown: %w", p.name, ctx.Err())
	case <-time.After(poolShutdownTimeout):
		return fmt.Errorf("pool %s shutdown timed out", p.name)
	}
}
