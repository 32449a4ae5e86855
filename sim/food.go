package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sjenson/growth/cell"
	"github.com/sjenson/growth/config"
)

// tentacleBabyInterval is the cadence, in frames, at which a special
// particle flags its next child as the start of a new tentacle.
const tentacleBabyInterval = 1500

// seedFoodState initializes per-particle state some food modes depend on.
func (s *Simulation) seedFoodState() {
	switch s.cfg.Derived.FoodMode {
	case config.FoodInherit:
		// Heavily skewed seed reserves so a few lineages dominate growth.
		for _, p := range s.particles {
			p.Inherited = math.Pow(s.rng.Float64(), 100)
		}
	case config.FoodTentacle:
		// Seed particles never grow on their own; only the special lineage
		// does, starting from a single marked particle.
		for _, p := range s.particles {
			p.Generation = 99
		}
		if len(s.particles) > 0 {
			s.particles[0].Special = true
		}
	}
}

// addFood accumulates food for every live particle by the active strategy.
// Frozen and environment particles have their reserves zeroed instead.
func (s *Simulation) addFood() {
	mode := s.cfg.Derived.FoodMode
	for _, p := range s.particles {
		if p.Frozen || p.Environs {
			p.Food = 0
			continue
		}
		s.accumulateFood(p, mode)
	}
}

// accumulateFood adds one frame's worth of food to p. Area-driven modes
// read last frame's area; curvature-driven modes refresh curvature (and
// area with it) in place before reading.
func (s *Simulation) accumulateFood(p *cell.Particle, mode config.FoodMode) {
	switch mode {
	case config.FoodRandom:
		p.Food += s.rng.Float64()

	case config.FoodArea:
		p.Food += p.Area

	case config.FoodXCoord:
		p.Food += p.Position.X + 50

	case config.FoodRadial:
		d := r3.Norm(p.Position)
		if d < 0.5 {
			d = 0.5
		}
		p.Food += 100 / (d * d)

	case config.FoodCollisions:
		if p.Collisions > 0 {
			p.Food += 1 / float64(p.Collisions)
		}

	case config.FoodCurvature:
		p.CalculateCurvature()
		if !math.IsNaN(p.Curvature) && p.Curvature > 0 {
			p.Food += math.Pow(p.Curvature, s.cfg.Growth.CurvatureFactor)
		}

	case config.FoodInherit:
		p.Food += p.Inherited

	case config.FoodHybrid:
		p.CalculateCurvature()
		if !math.IsNaN(p.Curvature) && p.Curvature > 0 {
			p.Food += p.Curvature * p.Area
		}

	case config.FoodShift:
		// Area-driven expansion early, raw curvature once the form exists.
		if s.frame < 250 {
			p.Food += p.Area
		} else {
			p.CalculateCurvature()
			if !math.IsNaN(p.Curvature) && p.Curvature > 0 {
				p.Food += p.Curvature
			}
		}

	case config.FoodTentacle:
		if p.Special {
			p.Food += p.Area
			if s.frame%tentacleBabyInterval == tentacleBabyInterval-1 {
				p.SpecialBaby = true
			}
		} else if p.Generation < 2 {
			p.Food += p.Area
		}
	}
}
