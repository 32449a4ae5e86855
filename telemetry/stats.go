package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated statistics for a window of frames.
type WindowStats struct {
	WindowStartFrame int `csv:"-"`
	WindowEndFrame   int `csv:"window_end"`

	// Population counts at window end
	Population int `csv:"population"`
	Frozen     int `csv:"frozen"`

	// Events during window
	Splits  int  `csv:"splits"`
	Freezes int  `csv:"freezes"`
	CapHit  bool `csv:"cap_hit"`

	// Collision pressure during window
	CollisionPairs int `csv:"collision_pairs"`

	// Food reserve distribution (sampled at window end)
	FoodMean float64 `csv:"food_mean"`
	FoodP10  float64 `csv:"food_p10"`
	FoodP50  float64 `csv:"food_p50"`
	FoodP90  float64 `csv:"food_p90"`

	// Mesh geometry (sampled at window end)
	DegreeMean float64 `csv:"degree_mean"`
	DegreeMax  int     `csv:"degree_max"`
	AreaTotal  float64 `csv:"area_total"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeFoodStats calculates mean and percentiles from food reserve values.
func ComputeFoodStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	// Calculate mean
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeDegreeStats calculates the mean and maximum link count.
func ComputeDegreeStats(degrees []int) (mean float64, max int) {
	n := len(degrees)
	if n == 0 {
		return 0, 0
	}

	var sum int
	for _, d := range degrees {
		sum += d
		if d > max {
			max = d
		}
	}
	return float64(sum) / float64(n), max
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartFrame),
		slog.Int("window_end", s.WindowEndFrame),
		slog.Int("population", s.Population),
		slog.Int("frozen", s.Frozen),
		slog.Int("splits", s.Splits),
		slog.Int("freezes", s.Freezes),
		slog.Bool("cap_hit", s.CapHit),
		slog.Int("collision_pairs", s.CollisionPairs),
		slog.Float64("food_mean", s.FoodMean),
		slog.Float64("food_p10", s.FoodP10),
		slog.Float64("food_p50", s.FoodP50),
		slog.Float64("food_p90", s.FoodP90),
		slog.Float64("degree_mean", s.DegreeMean),
		slog.Int("degree_max", s.DegreeMax),
		slog.Float64("area_total", s.AreaTotal),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"population", s.Population,
		"frozen", s.Frozen,
		"splits", s.Splits,
		"freezes", s.Freezes,
		"cap_hit", s.CapHit,
		"collision_pairs", s.CollisionPairs,
		"food_mean", s.FoodMean,
		"food_p10", s.FoodP10,
		"food_p50", s.FoodP50,
		"food_p90", s.FoodP90,
		"degree_mean", s.DegreeMean,
		"degree_max", s.DegreeMax,
		"area_total", s.AreaTotal,
	)
}
