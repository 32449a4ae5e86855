package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Grid is the uniform-cell backend: cells sized to the collision radius,
// bounds refit to the points on every build. Faster than the tree when
// density is roughly uniform and the population stays in a bounded
// region.
type Grid struct {
	cellSize float64
	origin   r3.Vec
	nx       int
	ny       int
	nz       int
	cells    [][]int
	points   []r3.Vec
}

// NewGrid returns a grid with the given cell edge length.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{cellSize: cellSize}
}

// Build refits the grid bounds to the points and buckets every point.
func (g *Grid) Build(points []r3.Vec) {
	g.points = append(g.points[:0], points...)
	if len(points) == 0 {
		g.nx, g.ny, g.nz = 0, 0, 0
		return
	}

	min := points[0]
	max := min
	for _, p := range points[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
		if p.Z < min.Z {
			min.Z = p.Z
		}
		if p.Z > max.Z {
			max.Z = p.Z
		}
	}
	g.origin = min
	g.nx = int((max.X-min.X)/g.cellSize) + 1
	g.ny = int((max.Y-min.Y)/g.cellSize) + 1
	g.nz = int((max.Z-min.Z)/g.cellSize) + 1

	need := g.nx * g.ny * g.nz
	if cap(g.cells) < need {
		g.cells = make([][]int, need)
	} else {
		g.cells = g.cells[:need]
		for i := range g.cells {
			g.cells[i] = g.cells[i][:0]
		}
	}

	for i, p := range g.points {
		cx, cy, cz := g.cellOf(p)
		ci := (cz*g.ny+cy)*g.nx + cx
		g.cells[ci] = append(g.cells[ci], i)
	}
}

// cellOf clamps the point into the grid bounds.
func (g *Grid) cellOf(p r3.Vec) (int, int, int) {
	cx := int((p.X - g.origin.X) / g.cellSize)
	cy := int((p.Y - g.origin.Y) / g.cellSize)
	cz := int((p.Z - g.origin.Z) / g.cellSize)
	return clamp(cx, g.nx), clamp(cy, g.ny), clamp(cz, g.nz)
}

func clamp(c, n int) int {
	if c < 0 {
		return 0
	}
	if c >= n {
		return n - 1
	}
	return c
}

// QueryBall appends up to maxResults neighbors within radiusSq of point.
func (g *Grid) QueryBall(dst []Neighbor, point r3.Vec, radiusSq float64, maxResults int) []Neighbor {
	if len(g.points) == 0 || maxResults <= 0 {
		return dst
	}
	base := len(dst)

	// Cell reach covering the query radius, in case the radius exceeds
	// the cell size.
	reach := int(math.Sqrt(radiusSq)/g.cellSize) + 1
	cx := int((point.X - g.origin.X) / g.cellSize)
	cy := int((point.Y - g.origin.Y) / g.cellSize)
	cz := int((point.Z - g.origin.Z) / g.cellSize)

	for z := cz - reach; z <= cz+reach; z++ {
		if z < 0 || z >= g.nz {
			continue
		}
		for y := cy - reach; y <= cy+reach; y++ {
			if y < 0 || y >= g.ny {
				continue
			}
			for x := cx - reach; x <= cx+reach; x++ {
				if x < 0 || x >= g.nx {
					continue
				}
				for _, pi := range g.cells[(z*g.ny+y)*g.nx+x] {
					if len(dst)-base >= maxResults {
						return dst
					}
					if dsq := r3.Norm2(r3.Sub(point, g.points[pi])); dsq < radiusSq {
						dst = append(dst, Neighbor{Index: pi, DistSq: dsq})
					}
				}
			}
		}
	}
	return dst
}
