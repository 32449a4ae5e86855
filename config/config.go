// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// FoodMode selects the per-frame food accumulation strategy.
type FoodMode int

const (
	FoodRandom FoodMode = iota
	FoodArea
	FoodXCoord
	FoodRadial
	FoodCollisions
	FoodCurvature
	FoodInherit
	FoodHybrid
	FoodShift
	FoodTentacle
)

// SplitMode selects where a split places the new particle.
type SplitMode int

const (
	SplitZero SplitMode = iota // child coincident with parent
	SplitLong                  // child offset along the local growth direction
)

// ShapeMode selects the initial seed geometry.
type ShapeMode int

const (
	ShapeTriangle ShapeMode = iota
	ShapeIcosahedron
	ShapeIcosphere
	ShapeBlob
	ShapeEnvironment
	ShapePLY
)

// Backend selects the spatial index used for collision queries.
type Backend int

const (
	BackendKDTree Backend = iota
	BackendGrid
	BackendBrute
)

// Config holds all simulation configuration parameters.
type Config struct {
	Population PopulationConfig `yaml:"population"`
	Growth     GrowthConfig     `yaml:"growth"`
	Forces     ForcesConfig     `yaml:"forces"`
	Collision  CollisionConfig  `yaml:"collision"`
	Shape      ShapeConfig      `yaml:"shape"`
	Stream     StreamConfig     `yaml:"stream"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PopulationConfig bounds the particle population and the worker pool.
type PopulationConfig struct {
	Max     int `yaml:"max"`     // hard particle cap; growth stops here
	Threads int `yaml:"threads"` // parallel workers; 0 = max(1, NumCPU-2)
}

// GrowthConfig holds the food accumulation and split parameters.
type GrowthConfig struct {
	FoodMode        string  `yaml:"food_mode"`        // random|area|x_coord|radial|collisions|curvature|inherit|hybrid|shift|tentacle
	SplitMode       string  `yaml:"split_mode"`       // zero|long
	Threshold       float64 `yaml:"threshold"`        // food level that triggers a split
	MaxDegree       int     `yaml:"max_degree"`       // ring size that triggers a split regardless of food
	CurvatureFactor float64 `yaml:"curvature_factor"` // exponent for curvature-driven feeding
}

// ForcesConfig holds the local force weights.
type ForcesConfig struct {
	Spring       float64 `yaml:"spring"`
	Planar       float64 `yaml:"planar"`
	Bulge        float64 `yaml:"bulge"`
	SpringLength float64 `yaml:"spring_length"` // rest length for ring edges
	Dampening    float64 `yaml:"dampening"`     // integration damping factor
}

// CollisionConfig holds the repulsion parameters.
type CollisionConfig struct {
	Backend      string  `yaml:"backend"`       // kdtree|grid|brute
	Radius       float64 `yaml:"radius"`        // repulsion reach
	Factor       float64 `yaml:"factor"`        // scale applied to the averaged displacement
	AgeThreshold int     `yaml:"age_threshold"` // particles older than this stop seeking; 0 disables
}

// ShapeConfig holds the initial geometry parameters.
type ShapeConfig struct {
	Mode              string  `yaml:"mode"` // triangle|icosahedron|icosphere|blob|environment|ply
	Radius            float64 `yaml:"radius"`
	Subdivisions      int     `yaml:"subdivisions"`
	NoiseSeed         int64   `yaml:"noise_seed"`
	NoiseAmplitude    float64 `yaml:"noise_amplitude"`
	NoiseFrequency    float64 `yaml:"noise_frequency"`
	PLYPath           string  `yaml:"ply_path"`
	EnvironmentRadius float64 `yaml:"environment_radius"`
}

// StreamConfig holds the websocket mesh stream parameters.
type StreamConfig struct {
	Addr  string `yaml:"addr"`  // listen address, e.g. ":8080"; empty disables the server
	Every int    `yaml:"every"` // broadcast cadence in frames
}

// TelemetryConfig holds stats and perf collection parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // frames per stats row
	PerfWindow  int `yaml:"perf_window"`  // rolling window for phase timing means
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FoodMode  FoodMode  // parsed Growth.FoodMode
	SplitMode SplitMode // parsed Growth.SplitMode
	ShapeMode ShapeMode // parsed Shape.Mode
	Backend   Backend   // parsed Collision.Backend
	Threads   int       // resolved worker count
	RadiusSq  float64   // Collision.Radius squared
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Parse mode strings and compute derived values
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// computeDerived parses mode strings into enums and resolves defaults.
func (c *Config) computeDerived() error {
	var err error
	if c.Derived.FoodMode, err = ParseFoodMode(c.Growth.FoodMode); err != nil {
		return err
	}
	if c.Derived.SplitMode, err = ParseSplitMode(c.Growth.SplitMode); err != nil {
		return err
	}
	if c.Derived.ShapeMode, err = ParseShapeMode(c.Shape.Mode); err != nil {
		return err
	}
	if c.Derived.Backend, err = ParseBackend(c.Collision.Backend); err != nil {
		return err
	}

	if c.Derived.ShapeMode == ShapePLY && c.Shape.PLYPath == "" {
		return fmt.Errorf("shape mode %q requires shape.ply_path", c.Shape.Mode)
	}

	threads := c.Population.Threads
	if threads <= 0 {
		threads = runtime.NumCPU() - 2
		if threads < 1 {
			threads = 1
		}
	}
	c.Derived.Threads = threads
	c.Derived.RadiusSq = c.Collision.Radius * c.Collision.Radius
	return nil
}

// ParseFoodMode converts a config string to a FoodMode.
func ParseFoodMode(s string) (FoodMode, error) {
	switch strings.ToLower(s) {
	case "random":
		return FoodRandom, nil
	case "area":
		return FoodArea, nil
	case "x_coord":
		return FoodXCoord, nil
	case "radial":
		return FoodRadial, nil
	case "collisions":
		return FoodCollisions, nil
	case "curvature":
		return FoodCurvature, nil
	case "inherit":
		return FoodInherit, nil
	case "hybrid":
		return FoodHybrid, nil
	case "shift":
		return FoodShift, nil
	case "tentacle":
		return FoodTentacle, nil
	}
	return 0, fmt.Errorf("unknown food mode %q", s)
}

// ParseSplitMode converts a config string to a SplitMode.
func ParseSplitMode(s string) (SplitMode, error) {
	switch strings.ToLower(s) {
	case "zero":
		return SplitZero, nil
	case "long":
		return SplitLong, nil
	}
	return 0, fmt.Errorf("unknown split mode %q", s)
}

// ParseShapeMode converts a config string to a ShapeMode.
func ParseShapeMode(s string) (ShapeMode, error) {
	switch strings.ToLower(s) {
	case "triangle":
		return ShapeTriangle, nil
	case "icosahedron":
		return ShapeIcosahedron, nil
	case "icosphere":
		return ShapeIcosphere, nil
	case "blob":
		return ShapeBlob, nil
	case "environment":
		return ShapeEnvironment, nil
	case "ply":
		return ShapePLY, nil
	}
	return 0, fmt.Errorf("unknown shape mode %q", s)
}

// ParseBackend converts a config string to a collision Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "kdtree":
		return BackendKDTree, nil
	case "grid":
		return BackendGrid, nil
	case "brute":
		return BackendBrute, nil
	}
	return 0, fmt.Errorf("unknown collision backend %q", s)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
