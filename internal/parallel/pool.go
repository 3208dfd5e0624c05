// Package parallel runs batches of independent jobs on a fixed set of
// goroutines. The software backend uses it to rasterize large triangles
// and the frame driver uses it to record command graph nodes.
package parallel

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("parallel: worker pool closed")

// WorkerPool is a pool of goroutines with one queue each. A worker whose
// queue is empty steals from the other queues, so a batch with one slow
// job does not hold back the rest.
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool. If workers is 0 or negative, GOMAXPROCS is
// used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
			continue
		default:
		}

		if job := p.steal(id); job != nil {
			job()
			continue
		}
		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			job()
		}
	}
}

func (p *WorkerPool) drain(q chan func()) {
	for {
		select {
		case job := <-q:
			job()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case job := <-p.queues[i]:
			return job
		default:
		}
	}
	return nil
}

// ExecuteAll runs every job and waits for all of them. Jobs are handed out
// round-robin. After Close it does nothing.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		job := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.queues[i%p.workers] <- job:
		case <-p.done:
			wg.Done()
		}
	}
	wg.Wait()
}

// Run runs every job, waits for all of them and returns their errors
// joined in job order. Jobs that did not run because the pool was closed
// report ErrClosed.
func (p *WorkerPool) Run(work []func() error) error {
	if len(work) == 0 {
		return nil
	}
	if !p.running.Load() {
		return ErrClosed
	}
	errs := make([]error, len(work))
	jobs := make([]func(), len(work))
	for i, fn := range work {
		errs[i] = ErrClosed
		jobs[i] = func() { errs[i] = fn() }
	}
	p.ExecuteAll(jobs)
	return errors.Join(errs...)
}

// Close stops the workers after the queued jobs ran. It is safe to call
// more than once.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }
