package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sjenson/growth/config"
)

func sampleWindowStats(windowEnd int) WindowStats {
	return WindowStats{
		WindowStartFrame: windowEnd - 25,
		WindowEndFrame:   windowEnd,
		Population:       100,
		Frozen:           3,
		Splits:           12,
		Freezes:          1,
		CollisionPairs:   40,
		FoodMean:         2.5,
		FoodP10:          0.5,
		FoodP50:          2.0,
		FoodP90:          5.0,
		DegreeMean:       5.8,
		DegreeMax:        9,
		AreaTotal:        120.5,
	}
}

func samplePerfStats() PerfStats {
	pc := NewPerfCollector(10)
	for i := 0; i < 3; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseCollision)
		time.Sleep(time.Millisecond)
		pc.StartPhase(PhaseForces)
		time.Sleep(time.Millisecond)
		pc.EndFrame()
	}
	return pc.Stats()
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager(\"\") error = %v", err)
	}
	if om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, want nil", om)
	}

	// All methods must be safe on the nil manager.
	if err := om.WriteStats(sampleWindowStats(25)); err != nil {
		t.Errorf("nil WriteStats() error = %v", err)
	}
	if err := om.WritePerf(samplePerfStats(), 25); err != nil {
		t.Errorf("nil WritePerf() error = %v", err)
	}
	if err := om.WriteConfig(nil); err != nil {
		t.Errorf("nil WriteConfig() error = %v", err)
	}
	if got := om.Dir(); got != "" {
		t.Errorf("nil Dir() = %q, want empty", got)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}

func TestWriteStatsHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager() error = %v", err)
	}

	if err := om.WriteStats(sampleWindowStats(25)); err != nil {
		t.Fatalf("WriteStats() error = %v", err)
	}
	if err := om.WriteStats(sampleWindowStats(50)); err != nil {
		t.Fatalf("WriteStats() error = %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 3 {
		t.Fatalf("stats.csv has %d lines, want 3 (header + 2 rows)", len(lines))
	}
	if got := strings.Count(content, "window_end"); got != 1 {
		t.Errorf("header written %d times, want 1", got)
	}
	for _, col := range []string{"window_end", "population", "food_p90", "degree_max", "area_total"} {
		if !strings.Contains(lines[0], col) {
			t.Errorf("header missing column %q: %q", col, lines[0])
		}
	}
	if !strings.Contains(lines[1], "25") || !strings.Contains(lines[2], "50") {
		t.Errorf("rows out of order: %q / %q", lines[1], lines[2])
	}
}

func TestWritePerfHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager() error = %v", err)
	}

	perf := samplePerfStats()
	if err := om.WritePerf(perf, 25); err != nil {
		t.Fatalf("WritePerf() error = %v", err)
	}
	if err := om.WritePerf(perf, 50); err != nil {
		t.Fatalf("WritePerf() error = %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("perf.csv has %d lines, want 3 (header + 2 rows)", len(lines))
	}
	if got := strings.Count(string(data), "avg_frame_us"); got != 1 {
		t.Errorf("header written %d times, want 1", got)
	}
}

func TestWriteConfigRoundTrip(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}

	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager() error = %v", err)
	}
	defer om.Close()

	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}

	reloaded, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("config.Load(written) error = %v", err)
	}
	if reloaded.Growth.Threshold != cfg.Growth.Threshold {
		t.Errorf("Threshold = %v, want %v", reloaded.Growth.Threshold, cfg.Growth.Threshold)
	}
	if reloaded.Collision.Radius != cfg.Collision.Radius {
		t.Errorf("Radius = %v, want %v", reloaded.Collision.Radius, cfg.Collision.Radius)
	}
	if reloaded.Growth.FoodMode != cfg.Growth.FoodMode {
		t.Errorf("FoodMode = %q, want %q", reloaded.Growth.FoodMode, cfg.Growth.FoodMode)
	}
}
