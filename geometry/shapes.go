// Package geometry seeds the simulation: procedural closed-manifold shapes
// and a PLY loader, all producing fully ringed particle arenas.
package geometry

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sjenson/growth/cell"
	"github.com/sjenson/growth/config"
)

// mesh is an indexed triangle soup used while constructing seed shapes.
type mesh struct {
	vertices []r3.Vec
	faces    [][3]int32
}

// icosahedronMesh returns the 12-vertex, 20-face icosahedron with
// consistent outward winding.
func icosahedronMesh() mesh {
	t := (1.0 + math.Sqrt(5.0)) / 2.0

	vertices := []r3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}

	faces := [][3]int32{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	return mesh{vertices: vertices, faces: faces}
}

// subdivide splits every face into four, deduplicating edge midpoints so
// the result stays a closed manifold.
func subdivide(m mesh) mesh {
	midpoints := make(map[[2]int32]int32)
	vertices := make([]r3.Vec, len(m.vertices), len(m.vertices)*4)
	copy(vertices, m.vertices)
	faces := make([][3]int32, 0, len(m.faces)*4)

	midpoint := func(a, b int32) int32 {
		key := [2]int32{a, b}
		if a > b {
			key = [2]int32{b, a}
		}
		if mid, ok := midpoints[key]; ok {
			return mid
		}
		mid := int32(len(vertices))
		vertices = append(vertices, r3.Scale(0.5, r3.Add(m.vertices[a], m.vertices[b])))
		midpoints[key] = mid
		return mid
	}

	for _, f := range m.faces {
		a, b, c := f[0], f[1], f[2]
		ab := midpoint(a, b)
		bc := midpoint(b, c)
		ca := midpoint(c, a)
		faces = append(faces,
			[3]int32{a, ab, ca},
			[3]int32{b, bc, ab},
			[3]int32{c, ca, bc},
			[3]int32{ab, bc, ca},
		)
	}

	return mesh{vertices: vertices, faces: faces}
}

// icosphereMesh subdivides the icosahedron and projects every vertex onto
// the unit sphere.
func icosphereMesh(subdivisions int) mesh {
	m := icosahedronMesh()
	for i := 0; i < subdivisions; i++ {
		m = subdivide(m)
	}
	for i, v := range m.vertices {
		m.vertices[i] = r3.Unit(v)
	}
	return m
}

// particlesFromMesh converts an indexed triangle mesh into ringed
// particles. Curvature, area and normal recomputation all read the ring
// cyclically, so each vertex's neighbors are ordered by walking its
// incident faces. That walk requires a closed manifold with consistent
// winding; anything else is a load error.
func particlesFromMesh(vertices []r3.Vec, normals []r3.Vec, faces [][3]int32) ([]*cell.Particle, error) {
	particles := make([]*cell.Particle, len(vertices))
	for i, v := range vertices {
		particles[i] = cell.NewParticle(i, v)
		if normals != nil {
			if n := normals[i]; r3.Norm2(n) > 0 {
				particles[i].Normal = r3.Unit(n)
			}
		}
	}

	// Face (v, a, b) makes b follow a in v's ring.
	next := make([]map[int32]int32, len(vertices))
	for i := range next {
		next[i] = make(map[int32]int32, 6)
	}
	addSuccessor := func(v, a, b int32) error {
		if v < 0 || a < 0 || b < 0 || int(v) >= len(vertices) || int(a) >= len(vertices) || int(b) >= len(vertices) {
			return fmt.Errorf("face index out of range: (%d, %d, %d)", v, a, b)
		}
		if _, dup := next[v][a]; dup {
			return fmt.Errorf("vertex %d has two faces following neighbor %d: non-manifold or inconsistently wound mesh", v, a)
		}
		next[v][a] = b
		return nil
	}
	for _, f := range faces {
		if err := addSuccessor(f[0], f[1], f[2]); err != nil {
			return nil, err
		}
		if err := addSuccessor(f[1], f[2], f[0]); err != nil {
			return nil, err
		}
		if err := addSuccessor(f[2], f[0], f[1]); err != nil {
			return nil, err
		}
	}

	for v, succ := range next {
		if len(succ) == 0 {
			return nil, fmt.Errorf("vertex %d has no incident faces", v)
		}

		// Start the walk at the smallest neighbor so ring order is
		// reproducible run to run.
		start := int32(-1)
		for a := range succ {
			if start < 0 || a < start {
				start = a
			}
		}

		cur := start
		for {
			particles[v].AddLink(particles[int(cur)])
			nxt, ok := succ[cur]
			if !ok || len(particles[v].Links) > len(succ) {
				return nil, fmt.Errorf("vertex %d ring does not close: not a closed manifold", v)
			}
			cur = nxt
			if cur == start {
				break
			}
		}
		if len(particles[v].Links) != len(succ) {
			return nil, fmt.Errorf("vertex %d has a split fan: not a closed manifold", v)
		}
	}

	return particles, nil
}

// Triangle returns the minimal closed mesh: three particles on a circle in
// the XY plane, each ringed with the other two. The default radial normal
// would lie in the triangle's own plane, so the surface normal is pinned
// to +Z; the degree-2 ring fan cancels and never recomputes it.
func Triangle(radius float64) []*cell.Particle {
	positions := []r3.Vec{
		{X: radius},
		{X: -0.5 * radius, Y: math.Sqrt(3) / 2 * radius},
		{X: -0.5 * radius, Y: -math.Sqrt(3) / 2 * radius},
	}
	particles := make([]*cell.Particle, 3)
	for i, pos := range positions {
		particles[i] = cell.NewParticle(i, pos)
		particles[i].Normal = r3.Vec{Z: 1}
	}
	particles[0].Connect(particles[1])
	particles[1].Connect(particles[2])
	particles[2].Connect(particles[0])
	return particles
}

// Icosahedron returns the 12-vertex icosahedron scaled to radius.
func Icosahedron(radius float64) ([]*cell.Particle, error) {
	m := icosahedronMesh()
	for i, v := range m.vertices {
		m.vertices[i] = r3.Scale(radius, r3.Unit(v))
	}
	return particlesFromMesh(m.vertices, nil, m.faces)
}

// Icosphere returns a subdivided icosahedron projected onto a sphere of
// the given radius.
func Icosphere(radius float64, subdivisions int) ([]*cell.Particle, error) {
	m := icosphereMesh(subdivisions)
	for i, v := range m.vertices {
		m.vertices[i] = r3.Scale(radius, v)
	}
	return particlesFromMesh(m.vertices, nil, m.faces)
}

// Blob returns an icosphere displaced radially by smooth noise, giving an
// irregular organic seed.
func Blob(shape config.ShapeConfig) ([]*cell.Particle, error) {
	m := icosphereMesh(shape.Subdivisions)
	noise := opensimplex.New(shape.NoiseSeed)
	for i, v := range m.vertices {
		n := noise.Eval3(v.X*shape.NoiseFrequency, v.Y*shape.NoiseFrequency, v.Z*shape.NoiseFrequency)
		m.vertices[i] = r3.Scale(shape.Radius*(1+shape.NoiseAmplitude*n), v)
	}
	return particlesFromMesh(m.vertices, nil, m.faces)
}

// Environment returns a growing icosphere inside a fixed enclosing sphere.
// Enclosure particles are flagged so food, growth and forces skip them; the
// tissue comes first in the arena.
func Environment(shape config.ShapeConfig) ([]*cell.Particle, error) {
	particles, err := Icosphere(shape.Radius, shape.Subdivisions)
	if err != nil {
		return nil, err
	}

	enclosure := icosphereMesh(shape.Subdivisions + 1)
	for i, v := range enclosure.vertices {
		enclosure.vertices[i] = r3.Scale(shape.EnvironmentRadius, v)
	}
	walls, err := particlesFromMesh(enclosure.vertices, nil, enclosure.faces)
	if err != nil {
		return nil, err
	}

	offset := len(particles)
	for _, p := range walls {
		p.Index += offset
		p.Environs = true
		particles = append(particles, p)
	}
	return particles, nil
}

// CreateInitialPopulation builds the seed arena for the configured shape.
func CreateInitialPopulation(cfg *config.Config) ([]*cell.Particle, error) {
	switch cfg.Derived.ShapeMode {
	case config.ShapeTriangle:
		return Triangle(cfg.Shape.Radius), nil
	case config.ShapeIcosahedron:
		return Icosahedron(cfg.Shape.Radius)
	case config.ShapeIcosphere:
		return Icosphere(cfg.Shape.Radius, cfg.Shape.Subdivisions)
	case config.ShapeBlob:
		return Blob(cfg.Shape)
	case config.ShapeEnvironment:
		return Environment(cfg.Shape)
	case config.ShapePLY:
		return LoadPLY(cfg.Shape.PLYPath)
	}
	return nil, fmt.Errorf("unhandled shape mode %q", cfg.Shape.Mode)
}
