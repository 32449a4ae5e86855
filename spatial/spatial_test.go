package spatial

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sjenson/growth/config"
)

func randomCloud(n int, seed int64) []r3.Vec {
	rng := rand.New(rand.NewSource(seed))
	points := make([]r3.Vec, n)
	for i := range points {
		points[i] = r3.Vec{
			X: rng.Float64()*20 - 10,
			Y: rng.Float64()*20 - 10,
			Z: rng.Float64()*20 - 10,
		}
	}
	return points
}

// hits runs an uncapped query and returns the result indices sorted.
func hits(idx Index, point r3.Vec, radiusSq float64, n int) []int {
	res := idx.QueryBall(nil, point, radiusSq, n)
	out := make([]int, len(res))
	for i, h := range res {
		out[i] = h.Index
	}
	sort.Ints(out)
	return out
}

func TestBackendsAgree(t *testing.T) {
	points := randomCloud(200, 42)
	radius := 3.0
	radiusSq := radius * radius

	kd := NewKDTree()
	grid := NewGrid(radius)
	brute := NewBrute()
	for _, idx := range []Index{kd, grid, brute} {
		idx.Build(points)
	}

	queries := randomCloud(25, 7)
	queries = append(queries, points[0], points[57])
	for qi, q := range queries {
		want := hits(brute, q, radiusSq, len(points))
		gotKD := hits(kd, q, radiusSq, len(points))
		gotGrid := hits(grid, q, radiusSq, len(points))

		if !equalInts(gotKD, want) {
			t.Errorf("query %d: kdtree = %v, brute = %v", qi, gotKD, want)
		}
		if !equalInts(gotGrid, want) {
			t.Errorf("query %d: grid = %v, brute = %v", qi, gotGrid, want)
		}
	}
}

func TestQueryDistances(t *testing.T) {
	points := randomCloud(80, 3)
	kd := NewKDTree()
	kd.Build(points)

	q := r3.Vec{X: 1, Y: -2, Z: 0.5}
	for _, h := range kd.QueryBall(nil, q, 16, len(points)) {
		want := r3.Norm2(r3.Sub(q, points[h.Index]))
		if math.Abs(h.DistSq-want) > 1e-12 {
			t.Errorf("point %d: DistSq = %f, want %f", h.Index, h.DistSq, want)
		}
		if h.DistSq >= 16 {
			t.Errorf("point %d: DistSq = %f outside radius", h.Index, h.DistSq)
		}
	}
}

func TestQueryCap(t *testing.T) {
	points := randomCloud(100, 9)
	for name, idx := range map[string]Index{
		"kdtree": NewKDTree(), "grid": NewGrid(2), "brute": NewBrute(),
	} {
		idx.Build(points)
		res := idx.QueryBall(nil, r3.Vec{}, 400, 10)
		if len(res) != 10 {
			t.Errorf("%s: capped query returned %d results, want 10", name, len(res))
		}
	}
}

func TestQueryRadiusIsExclusive(t *testing.T) {
	points := []r3.Vec{{}, {X: 1}}
	for name, idx := range map[string]Index{
		"kdtree": NewKDTree(), "grid": NewGrid(1), "brute": NewBrute(),
	} {
		idx.Build(points)
		if got := len(idx.QueryBall(nil, r3.Vec{}, 1.0, 10)); got != 1 {
			t.Errorf("%s: boundary point included, got %d results, want 1 (self only)", name, got)
		}
		if got := len(idx.QueryBall(nil, r3.Vec{}, 1.0+1e-9, 10)); got != 2 {
			t.Errorf("%s: near-boundary point excluded, got %d results, want 2", name, got)
		}
	}
}

func TestQueryAppendsToDst(t *testing.T) {
	kd := NewKDTree()
	kd.Build([]r3.Vec{{}, {X: 0.1}})

	dst := []Neighbor{{Index: 99, DistSq: -1}}
	dst = kd.QueryBall(dst, r3.Vec{}, 1, 10)

	if dst[0].Index != 99 {
		t.Fatalf("dst prefix clobbered: %+v", dst[0])
	}
	if len(dst) != 3 {
		t.Errorf("len(dst) = %d, want 3 (prefix + 2 hits)", len(dst))
	}
}

func TestRebuildDropsStalePoints(t *testing.T) {
	kd := NewKDTree()
	kd.Build(randomCloud(50, 1))
	kd.Build([]r3.Vec{{X: 100}})

	if got := len(kd.QueryBall(nil, r3.Vec{}, 1e6, 100)); got != 1 {
		t.Errorf("after rebuild got %d results, want 1", got)
	}
}

func TestEmptyIndex(t *testing.T) {
	for name, idx := range map[string]Index{
		"kdtree": NewKDTree(), "grid": NewGrid(1), "brute": NewBrute(),
	} {
		idx.Build(nil)
		if got := len(idx.QueryBall(nil, r3.Vec{}, 100, 10)); got != 0 {
			t.Errorf("%s: empty index returned %d results", name, got)
		}
	}
}

func TestNewSelectsBackend(t *testing.T) {
	if _, ok := New(config.BackendKDTree, 1).(*KDTree); !ok {
		t.Error("New(BackendKDTree) is not a *KDTree")
	}
	if _, ok := New(config.BackendGrid, 1).(*Grid); !ok {
		t.Error("New(BackendGrid) is not a *Grid")
	}
	if _, ok := New(config.BackendBrute, 1).(*Brute); !ok {
		t.Error("New(BackendBrute) is not a *Brute")
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
