package sim

import (
	"sync"

	"github.com/sjenson/growth/spatial"
)

// parallelThreshold is the minimum particle count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// phaseKind selects the work a chunk performs.
type phaseKind int

const (
	phaseCollision phaseKind = iota
	phaseForces
)

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Neighbors []spatial.Neighbor
}

// workChunk represents a range of particles for a worker to process.
type workChunk struct {
	start, end int
	phase      phaseKind
}

// workerPool holds resources for parallel phase computation.
type workerPool struct {
	scratches  []workerScratch
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(numWorkers int) *workerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].Neighbors = make([]spatial.Neighbor, 0, 64)
	}
	return &workerPool{
		numWorkers: numWorkers,
		scratches:  scratches,
	}
}

// startWorkers launches persistent worker goroutines.
func (p *workerPool) startWorkers(s *Simulation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *workerPool) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker(s *Simulation, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// run splits n particles into one contiguous range per worker and waits
// for all of them. Small populations run inline on the caller's goroutine.
func (p *workerPool) run(s *Simulation, n int, phase phaseKind) {
	if n == 0 {
		return
	}

	if n < parallelThreshold || p.numWorkers == 1 {
		s.computeChunk(workChunk{start: 0, end: n, phase: phase}, &p.scratches[0])
		return
	}

	if !p.running {
		p.startWorkers(s)
	}

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * n / p.numWorkers
		end := (w + 1) * n / p.numWorkers
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, phase: phase}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
