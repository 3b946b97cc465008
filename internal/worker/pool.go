// Package worker runs catalog fetches and update pipelines off the display
// loop on a small bounded pool.
package worker

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	appdebug "nextui-updater/internal/debug"
)

// Task is a unit of background work. The context is cancelled when the
// pool is shut down without waiting for in-flight work.
type Task func(ctx context.Context)

// Pool is a bounded goroutine pool with a fixed-size task queue.
type Pool struct {
	log *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	queue chan namedTask
	wg    sync.WaitGroup

	// mu orders Submit against StopAccepting and the queue close: a Submit
	// that saw accepting set finishes its send before either can proceed.
	mu        sync.RWMutex
	accepting atomic.Bool
	stopOnce  sync.Once
	closeOnce sync.Once
	stopChan  chan struct{}
}

type namedTask struct {
	name string
	run  Task
}

// New creates a pool with workers goroutines and a queue of queueSize.
func New(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		log:      appdebug.L("worker"),
		ctx:      ctx,
		cancel:   cancel,
		queue:    make(chan namedTask, queueSize),
		stopChan: make(chan struct{}),
	}
	p.accepting.Store(true)

	for i := 0; i < workers; i++ {
		go p.worker()
	}

	p.log.Debugw("worker pool started", "workers", workers, "queueSize", queueSize)
	return p
}

// Submit enqueues a named task. It returns false if the pool is stopped or
// the queue is full.
func (p *Pool) Submit(name string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.accepting.Load() {
		p.log.Debugw("task rejected, pool stopped", "task", name)
		return false
	}

	// Add before enqueue so Drain cannot miss the task.
	p.wg.Add(1)
	select {
	case p.queue <- namedTask{name: name, run: task}:
		return true
	default:
		p.wg.Done()
		p.log.Warnw("worker pool queue full, task rejected", "task", name)
		return false
	}
}

// StopAccepting prevents new tasks from being submitted.
func (p *Pool) StopAccepting() {
	p.mu.Lock()
	p.accepting.Store(false)
	p.mu.Unlock()
}

// Context returns the context handed to every task.
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Drain waits for all in-flight and queued tasks, bounded by ctx, then
// cancels the tasks' context. Drain stops accepting new tasks itself. It
// reports whether every task finished in time.
func (p *Pool) Drain(ctx context.Context) bool {
	p.StopAccepting()
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	drained := true
	select {
	case <-done:
		p.log.Debug("worker pool drained")
	case <-ctx.Done():
		drained = false
		p.log.Warn("worker pool drain timed out")
	}
	p.cancel()

	p.closeOnce.Do(func() {
		p.mu.Lock()
		close(p.queue)
		p.mu.Unlock()
	})
	return drained
}

// Shutdown stops accepting tasks and drains the pool.
func (p *Pool) Shutdown(ctx context.Context) bool {
	p.StopAccepting()
	return p.Drain(ctx)
}

func (p *Pool) worker() {
	for {
		select {
		case task, ok := <-p.queue:
			if !ok {
				return
			}
			p.runTask(task)
		case <-p.stopChan:
			for {
				select {
				case task, ok := <-p.queue:
					if !ok {
						return
					}
					p.runTask(task)
				default:
					return
				}
			}
		}
	}
}

// runTask executes a single task with panic recovery.
func (p *Pool) runTask(task namedTask) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("task panicked", "task", task.name, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	p.log.Debugw("task started", "task", task.name)
	task.run(p.ctx)
	p.log.Debugw("task finished", "task", task.name)
}
