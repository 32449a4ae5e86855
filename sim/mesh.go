package sim

// MeshBuffers is the render/export projection of the arena: flat vertex and
// normal arrays plus one triangle per ordered adjacent pair in each ring.
// Each face has a corner in three rings, so it comes out three times; the
// projection does not deduplicate.
type MeshBuffers struct {
	Vertices [][3]float64 `json:"vertices"`
	Normals  [][3]float64 `json:"normals"`
	Faces    [][3]int32   `json:"faces"`
}

// MeshBuffers flattens the current arena into render/export buffers.
// Call between frames; the projection reads but never mutates the arena.
func (s *Simulation) MeshBuffers() MeshBuffers {
	n := len(s.particles)
	m := MeshBuffers{
		Vertices: make([][3]float64, n),
		Normals:  make([][3]float64, n),
	}

	faces := 0
	for _, p := range s.particles {
		if len(p.Links) >= 2 {
			faces += len(p.Links)
		}
	}
	m.Faces = make([][3]int32, 0, faces)

	for i, p := range s.particles {
		m.Vertices[i] = [3]float64{p.Position.X, p.Position.Y, p.Position.Z}
		m.Normals[i] = [3]float64{p.Normal.X, p.Normal.Y, p.Normal.Z}

		d := len(p.Links)
		if d < 2 {
			continue
		}
		for j, q := range p.Links {
			r := p.Links[(j+1)%d]
			m.Faces = append(m.Faces, [3]int32{int32(p.Index), int32(r.Index), int32(q.Index)})
		}
	}
	return m
}
