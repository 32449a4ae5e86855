package sim

import "github.com/sjenson/growth/config"

// forces runs the local spring/planar/bulge computation in parallel.
func (s *Simulation) forces() {
	s.pool.run(s, len(s.particles), phaseForces)
}

// forceRange adds local force contributions into Delta for one contiguous
// arena range. Frozen particles never exert forces; in environment mode the
// enclosure particles are skipped too.
func (s *Simulation) forceRange(start, end int) {
	f := s.cfg.Forces
	environment := s.cfg.Derived.ShapeMode == config.ShapeEnvironment

	for i := start; i < end; i++ {
		p := s.particles[i]
		if p.Frozen {
			continue
		}
		if environment && p.Environs {
			continue
		}
		p.Calculate(f.Spring, f.Planar, f.Bulge, f.SpringLength)
	}
}
