package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few frames
	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseCollision)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseForces)
		time.Sleep(200 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseCollision]; !ok {
		t.Error("expected collision phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseForces]; !ok {
		t.Error("expected forces phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseCollision)
		pc.EndFrame()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration after window filled")
	}

	if stats.FramesPerSecond <= 0 {
		t.Error("expected positive frames per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]

	// Slow phase should take more % than fast
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgFrameDuration != 0 {
		t.Error("expected zero avg frame duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 3; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseFood)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseIntegrate)
		time.Sleep(10 * time.Microsecond)
		pc.EndFrame()
	}

	record := pc.Stats().ToCSV(250)

	if record.WindowEnd != 250 {
		t.Errorf("WindowEnd = %v, want 250", record.WindowEnd)
	}

	if record.AvgFrameUS <= 0 {
		t.Error("expected positive average frame time in CSV record")
	}

	if record.FoodPct <= 0 {
		t.Error("expected positive food phase percentage in CSV record")
	}
}
