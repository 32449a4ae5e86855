package cell

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// fanAround connects hub to one particle per position, in order.
func fanAround(hub *Particle, positions ...r3.Vec) []*Particle {
	neighbors := make([]*Particle, len(positions))
	for i, pos := range positions {
		neighbors[i] = NewParticle(hub.Index+1+i, pos)
		hub.Connect(neighbors[i])
	}
	return neighbors
}

func TestCurvatureDegenerateRings(t *testing.T) {
	t.Run("no links", func(t *testing.T) {
		p := NewParticle(0, r3.Vec{})
		p.CalculateCurvature()
		if !math.IsNaN(p.Curvature) {
			t.Errorf("Curvature = %f, want NaN", p.Curvature)
		}
		if p.Area != 0 {
			t.Errorf("Area = %f, want 0", p.Area)
		}
	})

	t.Run("degree two keeps area but no curvature", func(t *testing.T) {
		p := NewParticle(0, r3.Vec{})
		fanAround(p, r3.Vec{X: 1}, r3.Vec{Y: 1})
		p.CalculateCurvature()
		if !math.IsNaN(p.Curvature) {
			t.Errorf("Curvature = %f, want NaN for degree 2", p.Curvature)
		}
		// Both cyclic pairs sweep the same triangle.
		if math.Abs(p.Area-1.0) > 1e-9 {
			t.Errorf("Area = %f, want 1.0", p.Area)
		}
	})

	t.Run("collinear ring has no area", func(t *testing.T) {
		p := NewParticle(0, r3.Vec{})
		fanAround(p, r3.Vec{X: 1}, r3.Vec{X: 2}, r3.Vec{X: 3})
		p.CalculateCurvature()
		if !math.IsNaN(p.Curvature) {
			t.Errorf("Curvature = %f, want NaN for flat degenerate ring", p.Curvature)
		}
	})
}

func TestCurvatureSigns(t *testing.T) {
	flat := NewParticle(0, r3.Vec{})
	flat.Normal = r3.Vec{Z: 1}
	fanAround(flat, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{X: -1}, r3.Vec{Y: -1})
	flat.CalculateCurvature()
	if math.Abs(flat.Curvature) > 1e-9 {
		t.Errorf("flat ring Curvature = %f, want 0", flat.Curvature)
	}
	if math.Abs(flat.Area-2.0) > 1e-9 {
		t.Errorf("flat ring Area = %f, want 2.0", flat.Area)
	}

	bump := NewParticle(0, r3.Vec{})
	bump.Normal = r3.Vec{Z: 1}
	fanAround(bump,
		r3.Vec{X: 1, Z: -0.5}, r3.Vec{Y: 1, Z: -0.5},
		r3.Vec{X: -1, Z: -0.5}, r3.Vec{Y: -1, Z: -0.5})
	bump.CalculateCurvature()
	if !(bump.Curvature > 0) {
		t.Errorf("convex bump Curvature = %f, want > 0", bump.Curvature)
	}

	dent := NewParticle(0, r3.Vec{})
	dent.Normal = r3.Vec{Z: 1}
	fanAround(dent,
		r3.Vec{X: 1, Z: 0.5}, r3.Vec{Y: 1, Z: 0.5},
		r3.Vec{X: -1, Z: 0.5}, r3.Vec{Y: -1, Z: 0.5})
	dent.CalculateCurvature()
	if !(dent.Curvature < 0) {
		t.Errorf("concave dent Curvature = %f, want < 0", dent.Curvature)
	}
}

func TestCalculateSpring(t *testing.T) {
	p := NewParticle(0, r3.Vec{})
	fanAround(p, r3.Vec{X: 2})

	p.Calculate(1.0, 0, 0, 1.0)

	// The single spring target sits at rest distance 1 from the neighbor,
	// toward p: (1, 0, 0).
	want := r3.Vec{X: 1}
	if d := r3.Norm(r3.Sub(p.Delta, want)); d > 1e-9 {
		t.Errorf("Delta = %v, want %v", p.Delta, want)
	}
}

func TestCalculatePlanar(t *testing.T) {
	p := NewParticle(0, r3.Vec{Z: 1})
	p.Normal = r3.Vec{Z: 1}
	fanAround(p, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{X: -1}, r3.Vec{Y: -1})

	p.Calculate(0, 1.0, 0, 1.0)

	if math.Abs(p.Delta.Z+1) > 1e-9 {
		t.Errorf("Delta.Z = %f, want -1 (pull down to the ring plane)", p.Delta.Z)
	}
	if math.Abs(p.Delta.X) > 1e-9 || math.Abs(p.Delta.Y) > 1e-9 {
		t.Errorf("Delta = %v, want purely normal-direction", p.Delta)
	}
}

func TestCalculateBulgeFiltersNaN(t *testing.T) {
	p := NewParticle(0, r3.Vec{})
	fanAround(p, r3.Vec{X: 1}, r3.Vec{Y: 1}) // degree 2: NaN curvature

	p.Calculate(0, 0, 1.0, 1.0)

	if math.IsNaN(p.Delta.X) || math.IsNaN(p.Delta.Y) || math.IsNaN(p.Delta.Z) {
		t.Fatalf("Delta = %v, NaN curvature leaked into forces", p.Delta)
	}
}

func TestCalculateAccumulates(t *testing.T) {
	p := NewParticle(0, r3.Vec{})
	fanAround(p, r3.Vec{X: 2})
	p.Delta = r3.Vec{Y: 5}

	p.Calculate(1.0, 0, 0, 1.0)

	if math.Abs(p.Delta.Y-5) > 1e-9 {
		t.Errorf("Delta.Y = %f, want 5 (prior delta preserved)", p.Delta.Y)
	}
	if math.Abs(p.Delta.X-1) > 1e-9 {
		t.Errorf("Delta.X = %f, want 1 (spring added)", p.Delta.X)
	}
}

func TestUpdateIntegrates(t *testing.T) {
	p := NewParticle(0, r3.Vec{X: 1})
	p.Delta = r3.Vec{X: 2, Y: 4}

	p.Update(0.5)

	want := r3.Vec{X: 2, Y: 2}
	if d := r3.Norm(r3.Sub(p.Position, want)); d > 1e-9 {
		t.Errorf("Position = %v, want %v", p.Position, want)
	}
	if p.Delta != (r3.Vec{}) {
		t.Errorf("Delta = %v, want cleared", p.Delta)
	}
	if p.Age != 1 {
		t.Errorf("Age = %d, want 1", p.Age)
	}
}

func TestUpdateRecomputesNormal(t *testing.T) {
	p := NewParticle(0, r3.Vec{})
	p.Normal = r3.Vec{Z: 1}
	fanAround(p, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{X: -1}, r3.Vec{Y: -1})

	p.Update(0)

	if d := r3.Norm(r3.Sub(p.Normal, r3.Vec{Z: 1})); d > 1e-9 {
		t.Errorf("Normal = %v, want +Z", p.Normal)
	}

	// Flip the stored normal: recompute stays aligned with it rather
	// than snapping to the opposite face.
	p.Normal = r3.Vec{Z: -1}
	p.Update(0)
	if p.Normal.Z >= 0 {
		t.Errorf("Normal = %v, want -Z aligned", p.Normal)
	}
}
