package spatial

import "gonum.org/v1/gonum/spatial/r3"

// Leaves hold up to this many points before splitting.
const leafSize = 8

type kdNode struct {
	splitDim int
	splitVal float64
	left     int // child node indices; -1 marks a leaf
	right    int
	start    int // leaf range into perm
	end      int
}

// KDTree is the canonical backend: a balanced point tree with median
// splits on the widest axis, rebuilt from scratch every frame. Nodes live
// in one flat slice and point indices in a permutation slice, both reused
// across builds.
type KDTree struct {
	points []r3.Vec
	perm   []int
	nodes  []kdNode
}

// NewKDTree returns an empty tree; call Build before querying.
func NewKDTree() *KDTree {
	return &KDTree{}
}

// Build indexes the given positions. The input slice is copied, so the
// caller may mutate it after Build returns.
func (t *KDTree) Build(points []r3.Vec) {
	t.points = append(t.points[:0], points...)
	t.perm = t.perm[:0]
	for i := range points {
		t.perm = append(t.perm, i)
	}
	t.nodes = t.nodes[:0]
	if len(points) > 0 {
		t.build(0, len(points))
	}
}

// build partitions perm[start:end) and returns the created node's index.
func (t *KDTree) build(start, end int) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, kdNode{left: -1, right: -1, start: start, end: end})
	if end-start <= leafSize {
		return idx
	}

	min := t.points[t.perm[start]]
	max := min
	for _, pi := range t.perm[start+1 : end] {
		p := t.points[pi]
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
	dim := 0
	spread := max.X - min.X
	if s := max.Y - min.Y; s > spread {
		dim, spread = 1, s
	}
	if s := max.Z - min.Z; s > spread {
		dim = 2
	}

	mid := (start + end) / 2
	t.selectNth(start, end, mid, dim)
	splitVal := axis(t.points[t.perm[mid]], dim)

	left := t.build(start, mid)
	right := t.build(mid, end)
	t.nodes[idx].splitDim = dim
	t.nodes[idx].splitVal = splitVal
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	return idx
}

// selectNth partially orders perm[start:end) on the axis so the nth entry
// sits in its sorted position (Hoare partition quickselect).
func (t *KDTree) selectNth(start, end, nth, dim int) {
	for end-start > 1 {
		pivot := axis(t.points[t.perm[(start+end)/2]], dim)
		lo, hi := start, end-1
		for lo <= hi {
			for axis(t.points[t.perm[lo]], dim) < pivot {
				lo++
			}
			for axis(t.points[t.perm[hi]], dim) > pivot {
				hi--
			}
			if lo <= hi {
				t.perm[lo], t.perm[hi] = t.perm[hi], t.perm[lo]
				lo++
				hi--
			}
		}
		if nth <= hi {
			end = hi + 1
		} else if nth >= lo {
			start = lo
		} else {
			return
		}
	}
}

// QueryBall appends up to maxResults neighbors within radiusSq of point.
func (t *KDTree) QueryBall(dst []Neighbor, point r3.Vec, radiusSq float64, maxResults int) []Neighbor {
	if len(t.nodes) == 0 || maxResults <= 0 {
		return dst
	}
	return t.query(dst, 0, point, radiusSq, len(dst), maxResults)
}

func (t *KDTree) query(dst []Neighbor, node int, point r3.Vec, radiusSq float64, base, maxResults int) []Neighbor {
	n := t.nodes[node]
	if n.left < 0 {
		for _, pi := range t.perm[n.start:n.end] {
			if len(dst)-base >= maxResults {
				return dst
			}
			if dsq := r3.Norm2(r3.Sub(point, t.points[pi])); dsq < radiusSq {
				dst = append(dst, Neighbor{Index: pi, DistSq: dsq})
			}
		}
		return dst
	}

	near, far := n.left, n.right
	dx := axis(point, n.splitDim) - n.splitVal
	if dx >= 0 {
		near, far = far, near
	}
	dst = t.query(dst, near, point, radiusSq, base, maxResults)
	// The far slab only matters when the ball crosses the split plane.
	if len(dst)-base < maxResults && dx*dx < radiusSq {
		dst = t.query(dst, far, point, radiusSq, base, maxResults)
	}
	return dst
}
