package sim

import (
	"github.com/sjenson/growth/cell"
	"github.com/sjenson/growth/config"
)

// split walks the pre-phase population snapshot and divides every candidate
// whose reserves or degree demand it. Children appended mid-loop are not
// candidates until next frame. Candidates with degenerate rings freeze
// instead of dividing, as does either side of a split whose ring comes out
// invalid.
func (s *Simulation) split() {
	threshold := s.cfg.Growth.Threshold
	maxDegree := s.cfg.Growth.MaxDegree
	maxPop := s.cfg.Population.Max
	displaceLong := s.cfg.Derived.SplitMode == config.SplitLong

	count := len(s.particles)
	for i := 0; i < count; i++ {
		p := s.particles[i]
		if p.Frozen || p.Environs {
			continue
		}
		if p.Food <= threshold && p.Degree() <= maxDegree {
			continue
		}

		if len(s.particles) >= maxPop {
			if !s.capHit {
				s.capHit = true
				s.collector.RecordCapHit()
				Logf("Population cap %d reached, growth disabled. Frame: %d", maxPop, s.frame)
			}
			return
		}

		if !p.GoodLoop() {
			p.Frozen = true
			s.collector.RecordFreeze()
			continue
		}

		child := cell.NewParticle(len(s.particles), p.Position)
		p.Split(child, displaceLong)
		s.particles = append(s.particles, child)
		s.collector.RecordSplit()

		if !child.GoodLoop() {
			child.Frozen = true
			s.collector.RecordFreeze()
		}
		if !p.GoodLoop() {
			p.Frozen = true
			s.collector.RecordFreeze()
		}
	}
}
