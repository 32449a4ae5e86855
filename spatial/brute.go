package spatial

import "gonum.org/v1/gonum/spatial/r3"

// Brute is the all-pairs fallback, kept for correctness testing at small
// populations.
type Brute struct {
	points []r3.Vec
}

// NewBrute returns an empty brute-force index.
func NewBrute() *Brute {
	return &Brute{}
}

// Build copies the positions.
func (b *Brute) Build(points []r3.Vec) {
	b.points = append(b.points[:0], points...)
}

// QueryBall appends up to maxResults neighbors within radiusSq of point.
func (b *Brute) QueryBall(dst []Neighbor, point r3.Vec, radiusSq float64, maxResults int) []Neighbor {
	added := 0
	for i, q := range b.points {
		if dsq := r3.Norm2(r3.Sub(point, q)); dsq < radiusSq {
			dst = append(dst, Neighbor{Index: i, DistSq: dsq})
			added++
			if added >= maxResults {
				break
			}
		}
	}
	return dst
}
