// Package cell implements the particle entity of the growth mesh: position
// and normal, the ordered neighbor ring, the growth scalars, and the
// split/force/update operations that mutate them.
package cell

import "gonum.org/v1/gonum/spatial/r3"

// Particle is a single vertex of the growing mesh. Particles are owned by
// the simulation's population arena; Links hold non-owning pointers into
// that arena.
type Particle struct {
	Index    int
	Position r3.Vec
	Normal   r3.Vec

	// Links is the ordered 1-ring of mesh neighbors. Only AddLink, Connect
	// and Split may mutate it.
	Links []*Particle

	// Growth scalars, recomputed or accumulated per frame by the active
	// food mode.
	Food      float64
	Inherited float64
	Curvature float64
	Area      float64

	// Collision accumulator. Reset then written by the collision phase;
	// valid only within the frame that wrote it.
	Collisions      int
	CollisionTarget r3.Vec

	// Delta is the displacement accumulator consumed and cleared by Update.
	Delta r3.Vec

	Age        int
	Generation int

	Frozen      bool
	Environs    bool
	Special     bool
	SpecialBaby bool
}

// NewParticle returns a particle at the given arena index and position.
// The normal is the radial direction when the position is away from the
// origin, +Z otherwise; seeding and Update refine it.
func NewParticle(index int, pos r3.Vec) *Particle {
	normal := r3.Vec{Z: 1}
	if r3.Norm2(pos) > 0 {
		normal = r3.Unit(pos)
	}
	return &Particle{Index: index, Position: pos, Normal: normal}
}

// Degree returns the ring size.
func (p *Particle) Degree() int {
	return len(p.Links)
}

// ConnectedTo reports whether other appears in this particle's ring.
func (p *Particle) ConnectedTo(other *Particle) bool {
	for _, q := range p.Links {
		if q == other {
			return true
		}
	}
	return false
}

// AddLink appends other to the ring. Callers must avoid duplicate edges
// (check ConnectedTo first when the edge may already exist).
func (p *Particle) AddLink(other *Particle) {
	p.Links = append(p.Links, other)
}

// Connect adds the symmetric edge between p and other.
func (p *Particle) Connect(other *Particle) {
	p.AddLink(other)
	other.AddLink(p)
}

// replaceLink swaps old for new in the ring, keeping its position.
func (p *Particle) replaceLink(old, new *Particle) {
	for i, q := range p.Links {
		if q == old {
			p.Links[i] = new
			return
		}
	}
}

// GoodLoop reports whether the ring is a simple closed loop: at least two
// neighbors, all distinct, none of them this particle itself, and every
// one linked back. Degenerate rings disqualify a particle from growth.
func (p *Particle) GoodLoop() bool {
	if len(p.Links) < 2 {
		return false
	}
	for i, q := range p.Links {
		if q == p {
			return false
		}
		for j := i + 1; j < len(p.Links); j++ {
			if p.Links[j] == q {
				return false
			}
		}
		if !q.ConnectedTo(p) {
			return false
		}
	}
	return true
}
