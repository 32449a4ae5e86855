// Package sim orchestrates the per-frame growth pipeline: food accumulation,
// splitting, collision repulsion, local forces, and position integration.
// The two heavy phases run data-parallel over contiguous index ranges of the
// particle arena; everything that mutates topology or population stays
// serial.
package sim

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sjenson/growth/cell"
	"github.com/sjenson/growth/config"
	"github.com/sjenson/growth/spatial"
	"github.com/sjenson/growth/telemetry"
)

// Simulation owns the particle arena and advances it frame by frame.
type Simulation struct {
	cfg *config.Config
	rng *rand.Rand

	particles []*cell.Particle
	frame     int
	frozen    int
	capHit    bool

	index     spatial.Index
	positions []r3.Vec

	pool *workerPool

	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
}

// New creates a simulation over a freshly seeded arena and initializes
// any food-mode state the seed particles need.
func New(cfg *config.Config, particles []*cell.Particle, rng *rand.Rand) *Simulation {
	s := newSimulation(cfg, particles, rng)
	s.seedFoodState()
	return s
}

// Resume creates a simulation over an arena restored from a snapshot.
// Food-mode state is part of the restored particles, so it is not reseeded.
func Resume(cfg *config.Config, particles []*cell.Particle, rng *rand.Rand, frame int) *Simulation {
	s := newSimulation(cfg, particles, rng)
	s.frame = frame
	return s
}

func newSimulation(cfg *config.Config, particles []*cell.Particle, rng *rand.Rand) *Simulation {
	return &Simulation{
		cfg:       cfg,
		rng:       rng,
		particles: particles,
		index:     spatial.New(cfg.Derived.Backend, cfg.Collision.Radius),
		positions: make([]r3.Vec, 0, len(particles)),
		pool:      newWorkerPool(cfg.Derived.Threads),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow),
	}
}

// Step advances the simulation one frame. Phases run in a fixed order with
// a barrier between each: growth (while below the population cap), collision,
// local forces, integration.
func (s *Simulation) Step() {
	s.perf.StartFrame()

	grew := false
	if len(s.particles) < s.cfg.Population.Max {
		s.perf.StartPhase(telemetry.PhaseFood)
		s.addFood()
		s.perf.StartPhase(telemetry.PhaseSplit)
		s.split()
		grew = true
	} else if !s.capHit {
		s.capHit = true
		s.collector.RecordCapHit()
		Logf("Population cap %d reached, growth disabled. Frame: %d", s.cfg.Population.Max, s.frame)
	}

	s.perf.StartPhase(telemetry.PhaseCollision)
	s.collide()

	s.perf.StartPhase(telemetry.PhaseForces)
	s.forces()

	s.perf.StartPhase(telemetry.PhaseIntegrate)
	s.integrate()

	s.frame++
	s.perf.EndFrame()

	if grew {
		Logf("Add Food. Split. Collision. CPU forces. Update. Frame: %d Pop: %d.", s.frame, len(s.particles))
	} else {
		Logf("Collision. CPU forces. Update. Frame: %d Pop: %d.", s.frame, len(s.particles))
	}
}

// computeChunk routes a work chunk to the phase it belongs to. Called from
// pool workers and, for small populations, inline.
func (s *Simulation) computeChunk(chunk workChunk, scratch *workerScratch) {
	switch chunk.phase {
	case phaseCollision:
		s.collideRange(chunk.start, chunk.end, scratch)
	case phaseForces:
		s.forceRange(chunk.start, chunk.end)
	}
}

// integrate applies accumulated deltas serially. Frozen particles are
// counted and never move or age.
func (s *Simulation) integrate() {
	dampening := s.cfg.Forces.Dampening
	frozen := 0
	for _, p := range s.particles {
		if p.Frozen {
			frozen++
			continue
		}
		p.Update(dampening)
	}
	s.frozen = frozen
}

// Frame returns the number of completed frames.
func (s *Simulation) Frame() int {
	return s.frame
}

// Population returns the current particle count.
func (s *Simulation) Population() int {
	return len(s.particles)
}

// FrozenCount returns the frozen particle count from the last integration.
func (s *Simulation) FrozenCount() int {
	return s.frozen
}

// CapHit reports whether growth has stopped at the population cap.
func (s *Simulation) CapHit() bool {
	return s.capHit
}

// Particles exposes the arena for snapshotting and projection. Callers must
// not mutate it.
func (s *Simulation) Particles() []*cell.Particle {
	return s.particles
}

// ShouldFlushStats reports whether a stats window has elapsed.
func (s *Simulation) ShouldFlushStats() bool {
	return s.collector.ShouldFlush(s.frame)
}

// FlushStats aggregates the elapsed window into a WindowStats and resets
// the window counters.
func (s *Simulation) FlushStats() telemetry.WindowStats {
	foods := make([]float64, len(s.particles))
	degrees := make([]int, len(s.particles))
	var areaTotal float64
	for i, p := range s.particles {
		foods[i] = p.Food
		degrees[i] = p.Degree()
		areaTotal += p.Area
	}
	return s.collector.Flush(s.frame, len(s.particles), s.frozen, foods, degrees, areaTotal)
}

// PerfStats returns rolling phase timing statistics.
func (s *Simulation) PerfStats() telemetry.PerfStats {
	return s.perf.Stats()
}

// Close stops the worker pool.
func (s *Simulation) Close() {
	s.pool.stopWorkers()
}
