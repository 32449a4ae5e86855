package sim

import "gonum.org/v1/gonum/spatial/r3"

// maxCollisionNeighbors caps how many nearby particles one query returns.
const maxCollisionNeighbors = 10

// collide rebuilds the spatial index from current positions, accumulates
// pairwise repulsion in parallel, then averages and applies it serially.
func (s *Simulation) collide() {
	n := len(s.particles)

	if cap(s.positions) < n {
		s.positions = make([]r3.Vec, n)
	}
	s.positions = s.positions[:n]
	for i, p := range s.particles {
		s.positions[i] = p.Position
	}
	s.index.Build(s.positions)

	s.pool.run(s, n, phaseCollision)

	// Average each particle's accumulated repulsion and store it as this
	// frame's net delta. Overwrites any prior value; the force phase adds
	// on top of it.
	factor := s.cfg.Collision.Factor
	pairs := 0
	for _, p := range s.particles {
		if p.Collisions == 0 {
			continue
		}
		pairs += p.Collisions
		p.Delta = r3.Scale(factor/float64(p.Collisions), p.CollisionTarget)
	}
	s.collector.RecordCollisionPairs(pairs)
}

// collideRange accumulates repulsion for one contiguous arena range. Each
// worker resets then writes only its own particles; the index is read-only
// here, so ranges need no locks.
func (s *Simulation) collideRange(start, end int, scratch *workerScratch) {
	radiusSq := s.cfg.Derived.RadiusSq
	ageThreshold := s.cfg.Collision.AgeThreshold

	for i := start; i < end; i++ {
		p := s.particles[i]
		p.Collisions = 0
		p.CollisionTarget = r3.Vec{}

		// Old particles stop seeking; younger ones still push off them.
		if ageThreshold > 0 && p.Age > ageThreshold {
			continue
		}

		scratch.Neighbors = s.index.QueryBall(scratch.Neighbors[:0], p.Position, radiusSq, maxCollisionNeighbors)
		for _, nb := range scratch.Neighbors {
			if nb.Index == i {
				continue
			}
			q := s.particles[nb.Index]
			if p.ConnectedTo(q) {
				continue
			}

			sep := r3.Sub(p.Position, q.Position)
			d := r3.Norm(sep)
			if d <= 0 {
				continue
			}
			strength := (radiusSq - nb.DistSq) / radiusSq
			p.CollisionTarget = r3.Add(p.CollisionTarget, r3.Scale(strength/d, sep))
			p.Collisions++
		}
	}
}
