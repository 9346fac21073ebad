package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs data-parallel work items on a fixed set of goroutines.
//
// Every stage of the volume pipeline (clearing voxels, splatting atom groups,
// resampling blocks, marching screen tiles) is expressed as a slice of
// independent work items handed to ExecuteAll. Each worker owns a queue and
// steals from the other queues when its own runs dry, which keeps the load
// balanced when atom groups or tiles take uneven time.
//
// Thread safety: WorkerPool is safe for concurrent use. Two pipeline stages
// that do not depend on each other may call ExecuteAll at the same time.
type WorkerPool struct {
	workers int

	// queues holds one buffered queue per worker.
	queues []chan func()

	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	depth := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), depth)
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
		case fn := <-own:
			run(fn)
		default:
			if fn := p.steal(id); fn != nil {
				fn()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case fn := <-own:
				run(fn)
			}
		}
	}
}

func run(fn func()) {
	if fn != nil {
		fn()
	}
}

func (p *WorkerPool) drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			run(fn)
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
		case fn := <-p.queues[i]:
			return fn
		default:
		}
	}
	return nil
}

// ExecuteAll distributes work round-robin across the workers and blocks
// until every item has returned. If the pool is closed the items run on the
// calling goroutine so a stage never silently drops cells or pixels.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range work {
			run(fn)
		}
		return
	}

	var pending sync.WaitGroup
	pending.Add(len(work))

	for i, fn := range work {
		item := fn
		wrapped := func() {
			defer pending.Done()
			run(item)
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}

	pending.Wait()
}

// For splits [0, n) into chunks of at most grain indices and runs fn on each
// chunk in parallel. The chunks cover every index exactly once.
func (p *WorkerPool) For(n, grain int, fn func(lo, hi int)) {
	spans := Ranges(n, grain)
	work := make([]func(), len(spans))
	for i, s := range spans {
		work[i] = func() { fn(s.Lo, s.Hi) }
	}
	p.ExecuteAll(work)
}

// Close stops the workers after the queued work has drained.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
