package compute

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum group count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 16

// groupChunk represents a range of groups for a worker to run.
type groupChunk struct {
	start, end int
	run        func(group int)
}

// pool is a persistent set of worker goroutines that run dispatch groups.
type pool struct {
	numWorkers int

	workChan chan groupChunk // sends work to workers
	doneChan chan struct{}   // workers signal completion
	stopChan chan struct{}   // signals workers to exit
	wg       sync.WaitGroup  // tracks active workers
	running  bool            // true if workers are running
}

func newPool(workers int) *pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &pool{numWorkers: workers}
}

// start launches the worker goroutines.
func (p *pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan groupChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *pool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			for g := chunk.start; g < chunk.end; g++ {
				chunk.run(g)
			}
			p.doneChan <- struct{}{}
		}
	}
}

// dispatch runs run(g) for every g in [0, groups) and returns once all
// groups have finished.
func (p *pool) dispatch(groups int, run func(group int)) {
	if groups <= 0 {
		return
	}
	if groups < parallelThreshold || p.numWorkers == 1 {
		for g := 0; g < groups; g++ {
			run(g)
		}
		return
	}

	p.start()

	chunkSize := (groups + p.numWorkers - 1) / p.numWorkers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, groups)
		if start >= end {
			continue
		}

		p.workChan <- groupChunk{start: start, end: end, run: run}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
