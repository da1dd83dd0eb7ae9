package workerpool

import (
	"sync"
)

// Pool runs submitted jobs on a fixed number of goroutines.
type Pool struct {
	workers    int
	jobs       chan func()
	wg         sync.WaitGroup
	mu         sync.RWMutex
	stopped    bool
	stopOnce   sync.Once
	stopSignal chan struct{}
}

// New starts workers goroutines behind a queue of queueSize pending jobs.
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 2
	}
	p := &Pool{
		workers:    workers,
		jobs:       make(chan func(), queueSize),
		stopSignal: make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	// jobs is drained until closed, so queued work survives Stop
	for job := range p.jobs {
		p.run(job)
	}
}

// run isolates a panicking job from the worker goroutine.
func (p *Pool) run(job func()) {
	defer func() { _ = recover() }()
	job()
}

// Submit queues job without blocking. It reports false when the queue is
// full or the pool is stopping.
func (p *Pool) Submit(job func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}
	select {
	case <-p.stopSignal:
		return false
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop rejects new jobs, lets queued ones finish and waits for the workers.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopSignal)
		p.mu.Lock()
		p.stopped = true
		close(p.jobs)
		p.mu.Unlock()
	})
	p.wg.Wait()
}
