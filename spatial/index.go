// Package spatial provides the collision-query backends: a point KD-tree
// (canonical), a uniform grid, and a brute-force fallback, all behind one
// narrow contract.
package spatial

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sjenson/growth/config"
)

// Neighbor is one ball-query hit: the index of the point in the slice
// passed to Build, and its squared distance from the query point.
type Neighbor struct {
	Index  int
	DistSq float64
}

// Index answers radius queries against a snapshot of particle positions.
// Build replaces the snapshot from scratch; once built, QueryBall is safe
// for concurrent use. Implementations may short-circuit at maxResults, so
// result sets are equivalent across backends only modulo the cap.
type Index interface {
	Build(points []r3.Vec)
	// QueryBall appends up to maxResults neighbors with squared distance
	// below radiusSq to dst and returns the extended slice.
	QueryBall(dst []Neighbor, point r3.Vec, radiusSq float64, maxResults int) []Neighbor
}

// New returns the configured backend. The grid sizes its cells to the
// collision radius.
func New(backend config.Backend, collisionRadius float64) Index {
	switch backend {
	case config.BackendGrid:
		return NewGrid(collisionRadius)
	case config.BackendBrute:
		return NewBrute()
	}
	return NewKDTree()
}

func axis(v r3.Vec, dim int) float64 {
	switch dim {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}
