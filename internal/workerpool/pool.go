package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrPoolClosed is returned by Do after Close has been called.
	ErrPoolClosed = errors.New("worker pool closed")

	// ErrTaskPanicked is returned by Do when the task panicked.
	ErrTaskPanicked = errors.New("task panicked")
)

type task struct {
	fn        func()
	done      chan struct{}
	recovered any
}

// Pool is a fixed-size set of workers draining a bounded task queue.
type Pool struct {
	size       int
	maxPending int

	tasks     chan *task
	admission *semaphore.Weighted
	pending   atomic.Int64
	busy      atomic.Int64

	mutex  sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	busyGauge    prometheus.Gauge
	pendingGauge prometheus.Gauge
}

// Option configures a Pool.
type Option func(*Pool)

// WithGauges reports the pool size, busy workers and pending tasks through
// the given gauges.
func WithGauges(size, busy, pending prometheus.Gauge) Option {
	return func(p *Pool) {
		size.Set(float64(p.size))
		p.busyGauge = busy
		p.pendingGauge = pending
	}
}

// New starts size workers. maxPending bounds the number of tasks admitted
// but not yet finished; it is raised to size when smaller.
func New(size, maxPending int, opts ...Option) *Pool {
	if size < 1 {
		size = 1
	}
	if maxPending < size {
		maxPending = size
	}

	p := &Pool{
		size:       size,
		maxPending: maxPending,
		tasks:      make(chan *task, maxPending),
		admission:  semaphore.NewWeighted(int64(maxPending)),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}

	return p
}

// Do runs fn on a worker and waits for it to return.
//
// Do blocks while maxPending tasks are already admitted. If ctx ends before
// admission, fn is never run and the context error is returned.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	if err := p.admission.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.admission.Release(1)

	t := &task{fn: fn, done: make(chan struct{})}

	p.mutex.RLock()
	if p.closed {
		p.mutex.RUnlock()
		return ErrPoolClosed
	}
	p.addPending(1)
	// Never blocks: admitted tasks never exceed the queue capacity.
	p.tasks <- t
	p.mutex.RUnlock()

	<-t.done
	p.addPending(-1)

	if t.recovered != nil {
		return fmt.Errorf("%w: %v", ErrTaskPanicked, t.recovered)
	}

	return nil
}

// Close stops accepting tasks and waits for queued ones to finish.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mutex.Unlock()

	p.wg.Wait()
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// MaxPending returns the admission bound.
func (p *Pool) MaxPending() int {
	return p.maxPending
}

// Pending returns the number of admitted tasks that have not completed.
func (p *Pool) Pending() int {
	return int(p.pending.Load())
}

// Busy returns the number of workers currently running a task.
func (p *Pool) Busy() int {
	return int(p.busy.Load())
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for t := range p.tasks {
		p.run(t)
	}
}

func (p *Pool) run(t *task) {
	p.addBusy(1)
	defer p.addBusy(-1)
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			t.recovered = r
		}
	}()

	t.fn()
}

func (p *Pool) addPending(delta int64) {
	p.pending.Add(delta)
	if p.pendingGauge != nil {
		p.pendingGauge.Add(float64(delta))
	}
}

func (p *Pool) addBusy(delta int64) {
	p.busy.Add(delta)
	if p.busyGauge != nil {
		p.busyGauge.Add(float64(delta))
	}
}
