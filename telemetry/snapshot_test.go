package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sjenson/growth/cell"
)

// triangleArena builds three mutually linked particles.
func triangleArena() []*cell.Particle {
	a := cell.NewParticle(0, r3.Vec{X: 1, Y: 0, Z: 0})
	b := cell.NewParticle(1, r3.Vec{X: -0.5, Y: 0.866, Z: 0})
	c := cell.NewParticle(2, r3.Vec{X: -0.5, Y: -0.866, Z: 0})
	a.Connect(b)
	b.Connect(c)
	c.Connect(a)
	return []*cell.Particle{a, b, c}
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	particles := triangleArena()
	particles[0].Food = 7.5
	particles[0].Inherited = 0.25
	particles[0].Age = 12
	particles[0].Generation = 3
	particles[0].Special = true
	particles[1].Frozen = true
	particles[2].Curvature = 0.125
	particles[2].Area = 2.0
	particles[2].Collisions = 4

	snapshot := CaptureSnapshot(42, 1000, "area", "zero", particles)

	// Save the snapshot
	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	// Load the snapshot
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	// Verify loaded data matches original
	if loaded.Version != snapshot.Version {
		t.Errorf("Version mismatch: got %d, want %d", loaded.Version, snapshot.Version)
	}
	if loaded.RNGSeed != snapshot.RNGSeed {
		t.Errorf("RNGSeed mismatch: got %d, want %d", loaded.RNGSeed, snapshot.RNGSeed)
	}
	if loaded.Frame != snapshot.Frame {
		t.Errorf("Frame mismatch: got %d, want %d", loaded.Frame, snapshot.Frame)
	}
	if loaded.FoodMode != "area" || loaded.SplitMode != "zero" {
		t.Errorf("modes = %s/%s, want area/zero", loaded.FoodMode, loaded.SplitMode)
	}
	if len(loaded.Particles) != len(snapshot.Particles) {
		t.Fatalf("particle count mismatch: got %d, want %d", len(loaded.Particles), len(snapshot.Particles))
	}

	restored, err := loaded.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	p0 := restored[0]
	if p0.Food != 7.5 || p0.Inherited != 0.25 || p0.Age != 12 || p0.Generation != 3 || !p0.Special {
		t.Errorf("particle 0 state not restored: %+v", p0)
	}
	if !restored[1].Frozen {
		t.Error("particle 1 frozen flag not restored")
	}
	if restored[2].Curvature != 0.125 || restored[2].Area != 2.0 || restored[2].Collisions != 4 {
		t.Errorf("particle 2 geometry not restored: curvature=%v area=%v collisions=%v",
			restored[2].Curvature, restored[2].Area, restored[2].Collisions)
	}

	// Links restored by index
	for i, p := range restored {
		if len(p.Links) != 2 {
			t.Fatalf("particle %d has %d links, want 2", i, len(p.Links))
		}
	}
	if !restored[0].ConnectedTo(restored[1]) || !restored[0].ConnectedTo(restored[2]) {
		t.Error("particle 0 links not restored")
	}
}

func TestSnapshotNaNCurvature(t *testing.T) {
	particles := triangleArena()
	particles[0].Curvature = math.NaN()

	snapshot := CaptureSnapshot(1, 0, "random", "zero", particles)

	if snapshot.Particles[0].Curvature != nil {
		t.Error("NaN curvature should capture as nil")
	}

	restored, err := snapshot.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if !math.IsNaN(restored[0].Curvature) {
		t.Errorf("restored curvature = %v, want NaN", restored[0].Curvature)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Frame:   3000,
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestSnapshotRestoreRejectsBadVersion(t *testing.T) {
	snapshot := &Snapshot{Version: SnapshotVersion + 1}
	if _, err := snapshot.Restore(); err == nil {
		t.Error("expected error for unknown snapshot version")
	}
}

func TestSnapshotRestoreRejectsBadLink(t *testing.T) {
	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Particles: []ParticleState{
			{Index: 0, Links: []int{5}},
		},
	}
	if _, err := snapshot.Restore(); err == nil {
		t.Error("expected error for out-of-range link index")
	}
}
