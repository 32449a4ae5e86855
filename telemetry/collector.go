package telemetry

// Collector accumulates events within frame windows and produces WindowStats.
type Collector struct {
	windowFrames int

	// Current window tracking
	windowStartFrame int

	// Event counters for current window
	splits         int
	freezes        int
	capHit         bool
	collisionPairs int
}

// NewCollector creates a new stats collector.
// windowFrames: how many frames each stats window covers.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}

	return &Collector{
		windowFrames:     windowFrames,
		windowStartFrame: 0,
	}
}

// RecordSplit records a particle division.
func (c *Collector) RecordSplit() {
	c.splits++
}

// RecordFreeze records a particle frozen out of the simulation.
func (c *Collector) RecordFreeze() {
	c.freezes++
}

// RecordCapHit records that growth stopped at the population cap.
func (c *Collector) RecordCapHit() {
	c.capHit = true
}

// RecordCollisionPairs records the number of colliding pairs found in a frame.
func (c *Collector) RecordCollisionPairs(pairs int) {
	c.collisionPairs += pairs
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame int) bool {
	return currentFrame-c.windowStartFrame >= c.windowFrames
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller must provide:
// - currentFrame: the current simulation frame
// - population, frozen: current population counts
// - foods: food reserve values for percentile calculation
// - degrees: link counts per particle
// - areaTotal: summed one-ring area over the mesh
func (c *Collector) Flush(
	currentFrame int,
	population, frozen int,
	foods []float64,
	degrees []int,
	areaTotal float64,
) WindowStats {
	foodMean, foodP10, foodP50, foodP90 := ComputeFoodStats(foods)
	degreeMean, degreeMax := ComputeDegreeStats(degrees)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,

		Population: population,
		Frozen:     frozen,

		Splits:  c.splits,
		Freezes: c.freezes,
		CapHit:  c.capHit,

		CollisionPairs: c.collisionPairs,

		FoodMean: foodMean,
		FoodP10:  foodP10,
		FoodP50:  foodP50,
		FoodP90:  foodP90,

		DegreeMean: degreeMean,
		DegreeMax:  degreeMax,
		AreaTotal:  areaTotal,
	}

	// Reset for next window
	c.windowStartFrame = currentFrame
	c.splits = 0
	c.freezes = 0
	c.capHit = false
	c.collisionPairs = 0

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int {
	return c.windowFrames
}
