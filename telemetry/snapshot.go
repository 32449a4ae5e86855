package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sjenson/growth/cell"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for resume.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	FoodMode  string `json:"food_mode"`
	SplitMode string `json:"split_mode"`

	Frame int `json:"frame"`

	Particles []ParticleState `json:"particles"`
}

// ParticleState holds one particle's complete state. Links are stored as
// indices into the snapshot's particle list. Curvature is nil when the
// one-ring is degenerate, since JSON cannot carry NaN.
type ParticleState struct {
	Index    int        `json:"index"`
	Position [3]float64 `json:"position"`
	Normal   [3]float64 `json:"normal"`
	Links    []int      `json:"links"`

	Food      float64  `json:"food"`
	Inherited float64  `json:"inherited,omitempty"`
	Curvature *float64 `json:"curvature,omitempty"`
	Area      float64  `json:"area,omitempty"`

	Collisions int `json:"collisions,omitempty"`

	Age        int `json:"age,omitempty"`
	Generation int `json:"generation,omitempty"`

	Frozen      bool `json:"frozen,omitempty"`
	Environs    bool `json:"environs,omitempty"`
	Special     bool `json:"special,omitempty"`
	SpecialBaby bool `json:"special_baby,omitempty"`
}

// CaptureSnapshot builds a snapshot from the live particle arena.
func CaptureSnapshot(seed int64, frame int, foodMode, splitMode string, particles []*cell.Particle) *Snapshot {
	states := make([]ParticleState, len(particles))
	for i, p := range particles {
		st := ParticleState{
			Index:       p.Index,
			Position:    [3]float64{p.Position.X, p.Position.Y, p.Position.Z},
			Normal:      [3]float64{p.Normal.X, p.Normal.Y, p.Normal.Z},
			Links:       make([]int, len(p.Links)),
			Food:        p.Food,
			Inherited:   p.Inherited,
			Area:        p.Area,
			Collisions:  p.Collisions,
			Age:         p.Age,
			Generation:  p.Generation,
			Frozen:      p.Frozen,
			Environs:    p.Environs,
			Special:     p.Special,
			SpecialBaby: p.SpecialBaby,
		}
		if !math.IsNaN(p.Curvature) {
			c := p.Curvature
			st.Curvature = &c
		}
		for j, q := range p.Links {
			st.Links[j] = q.Index
		}
		states[i] = st
	}

	return &Snapshot{
		Version:   SnapshotVersion,
		RNGSeed:   seed,
		FoodMode:  foodMode,
		SplitMode: splitMode,
		Frame:     frame,
		Particles: states,
	}
}

// Restore rebuilds the particle arena from a snapshot.
func (s *Snapshot) Restore() ([]*cell.Particle, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, expected %d", s.Version, SnapshotVersion)
	}

	particles := make([]*cell.Particle, len(s.Particles))
	for i, st := range s.Particles {
		p := cell.NewParticle(i, r3.Vec{X: st.Position[0], Y: st.Position[1], Z: st.Position[2]})
		p.Normal = r3.Vec{X: st.Normal[0], Y: st.Normal[1], Z: st.Normal[2]}
		p.Food = st.Food
		p.Inherited = st.Inherited
		p.Area = st.Area
		p.Collisions = st.Collisions
		p.Age = st.Age
		p.Generation = st.Generation
		p.Frozen = st.Frozen
		p.Environs = st.Environs
		p.Special = st.Special
		p.SpecialBaby = st.SpecialBaby
		if st.Curvature != nil {
			p.Curvature = *st.Curvature
		} else {
			p.Curvature = math.NaN()
		}
		particles[i] = p
	}

	// Second pass: resolve link indices into pointers.
	for i, st := range s.Particles {
		for _, li := range st.Links {
			if li < 0 || li >= len(particles) {
				return nil, fmt.Errorf("particle %d links to %d, snapshot has %d particles", i, li, len(particles))
			}
			particles[i].AddLink(particles[li])
		}
	}

	return particles, nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d.json", snapshot.Frame)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
