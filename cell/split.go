package cell

import "gonum.org/v1/gonum/spatial/r3"

// Split grows the mesh at this particle. The child takes over the far half
// of the ring (each moved neighbor swaps this particle for the child in
// its own ring) and the new mutual edge is added, so the combined degree
// of the pair is the pre-split degree plus two and every old edge is kept
// by exactly one side. Food and Inherited are halved across the pair. With
// displaceLong the child is placed partway toward the neighbors it took;
// otherwise it sits coincident with the parent and collision repulsion
// separates the pair. Callers freeze either party whose ring comes out
// invalid.
func (p *Particle) Split(child *Particle, displaceLong bool) {
	n := len(p.Links)
	half := n / 2

	taken := make([]*Particle, n-half)
	copy(taken, p.Links[half:])
	p.Links = p.Links[:half]

	for _, q := range taken {
		q.replaceLink(p, child)
	}
	child.Links = append(child.Links, taken...)
	child.AddLink(p)
	p.AddLink(child)

	p.Food /= 2
	child.Food = p.Food
	p.Inherited /= 2
	child.Inherited = p.Inherited

	child.Generation = p.Generation + 1
	if p.SpecialBaby {
		child.Special = true
		p.SpecialBaby = false
	}
	child.Environs = p.Environs
	child.Normal = p.Normal

	child.Position = p.Position
	if displaceLong && len(taken) > 0 {
		var centroid r3.Vec
		for _, q := range taken {
			centroid = r3.Add(centroid, q.Position)
		}
		centroid = r3.Scale(1/float64(len(taken)), centroid)
		child.Position = r3.Add(p.Position, r3.Scale(0.5, r3.Sub(centroid, p.Position)))
	}
}
