package cell

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Rings flatter than this are treated as having no measurable curvature.
const minRingArea = 1e-12

// CalculateCurvature recomputes Area and Curvature from the ring. Area is
// the summed area of the fan triangles over cyclic neighbor pairs.
// Curvature is a signed mean-curvature estimate: the normal component of
// the umbrella vector (mean neighbor offset) scaled by inverse area,
// positive over convex bumps. Rings with fewer than three neighbors or
// vanishing area get NaN; callers treat NaN as no contribution.
func (p *Particle) CalculateCurvature() {
	n := len(p.Links)
	if n < 2 {
		p.Area = 0
		p.Curvature = math.NaN()
		return
	}

	var area float64
	var umbrella r3.Vec
	for i, q := range p.Links {
		r := p.Links[(i+1)%n]
		a := r3.Sub(q.Position, p.Position)
		b := r3.Sub(r.Position, p.Position)
		area += 0.5 * r3.Norm(r3.Cross(a, b))
		umbrella = r3.Add(umbrella, a)
	}
	p.Area = area

	if n < 3 || area < minRingArea {
		p.Curvature = math.NaN()
		return
	}
	umbrella = r3.Scale(1/float64(n), umbrella)
	p.Curvature = -2 * r3.Dot(umbrella, p.Normal) / area
}

// Calculate adds this particle's local force contribution into Delta:
// spring toward the rest-length-adjusted neighbor average, planar along
// the normal toward the ring centroid plane, and a curvature-driven bulge
// along the normal. Area and Curvature are refreshed first. Invoked only
// for non-frozen particles.
func (p *Particle) Calculate(spring, planar, bulge, restLength float64) {
	n := len(p.Links)
	if n == 0 {
		return
	}
	p.CalculateCurvature()

	var springTarget, centroid r3.Vec
	for _, q := range p.Links {
		toP := r3.Sub(p.Position, q.Position)
		target := q.Position
		if d := r3.Norm(toP); d > 0 {
			target = r3.Add(q.Position, r3.Scale(restLength/d, toP))
		}
		springTarget = r3.Add(springTarget, target)
		centroid = r3.Add(centroid, q.Position)
	}
	inv := 1 / float64(n)
	springTarget = r3.Scale(inv, springTarget)
	centroid = r3.Scale(inv, centroid)

	p.Delta = r3.Add(p.Delta, r3.Scale(spring, r3.Sub(springTarget, p.Position)))
	p.Delta = r3.Add(p.Delta, r3.Scale(planar*r3.Dot(r3.Sub(centroid, p.Position), p.Normal), p.Normal))
	if !math.IsNaN(p.Curvature) {
		p.Delta = r3.Add(p.Delta, r3.Scale(bulge*p.Curvature*p.Area, p.Normal))
	}
}

// Update integrates Delta into Position with the damping factor, clears it
// for the next frame, advances Age, and refreshes the normal from the ring
// fan when that is well defined. Called only for non-frozen particles.
func (p *Particle) Update(dampening float64) {
	p.Position = r3.Add(p.Position, r3.Scale(dampening, p.Delta))
	p.Delta = r3.Vec{}
	p.Age++
	p.recomputeNormal()
}

// recomputeNormal sums the fan cross products and keeps the previous
// normal when the sum degenerates (tiny rings, folded fans). The result
// is sign-aligned with the previous normal so orientation never flips
// frame to frame.
func (p *Particle) recomputeNormal() {
	n := len(p.Links)
	if n < 3 {
		return
	}
	var sum r3.Vec
	for i, q := range p.Links {
		r := p.Links[(i+1)%n]
		a := r3.Sub(q.Position, p.Position)
		b := r3.Sub(r.Position, p.Position)
		sum = r3.Add(sum, r3.Cross(a, b))
	}
	if r3.Norm2(sum) <= minRingArea {
		return
	}
	u := r3.Unit(sum)
	if r3.Dot(u, p.Normal) < 0 {
		u = r3.Scale(-1, u)
	}
	p.Normal = u
}
