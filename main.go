package main

import (
	"flag"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sjenson/growth/config"
	"github.com/sjenson/growth/geometry"
	"github.com/sjenson/growth/sim"
	"github.com/sjenson/growth/stream"
	"github.com/sjenson/growth/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("frames", 0, "Stop after N frames (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	snapshotEvery := flag.Int("snapshot-every", 0, "Write a snapshot every N frames (0 = only at exit)")
	resumePath := flag.String("resume", "", "Resume from a snapshot file")
	serveAddr := flag.String("serve", "", "Websocket listen address (empty = use config)")
	meshOut := flag.String("mesh-out", "", "Write the final mesh to this PLY file")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	quiet := flag.Bool("quiet", false, "Suppress per-frame status lines")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *quiet {
		sim.SetLogWriter(io.Discard)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	s, err := buildSimulation(cfg, *resumePath, *seed, &rngSeed)
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}

	addr := cfg.Stream.Addr
	if *serveAddr != "" {
		addr = *serveAddr
	}
	var server *stream.Server
	if addr != "" {
		server = stream.New(addr)
		if err := server.Start(); err != nil {
			slog.Error("failed to start stream server", "error", err)
			os.Exit(1)
		}
		defer server.Close()
	}

	slog.Info("starting growth simulation",
		"seed", rngSeed,
		"shape", cfg.Shape.Mode,
		"food_mode", cfg.Growth.FoodMode,
		"population", s.Population(),
		"max_frames", *maxFrames,
	)

	streamEvery := cfg.Stream.Every
	if streamEvery < 1 {
		streamEvery = 1
	}

	for {
		s.Step()

		if s.ShouldFlushStats() {
			stats := s.FlushStats()
			perf := s.PerfStats()
			if *logStats {
				stats.LogStats()
				perf.LogStats()
			}
			if err := om.WriteStats(stats); err != nil {
				slog.Warn("failed to write stats", "error", err)
			}
			if err := om.WritePerf(perf, s.Frame()); err != nil {
				slog.Warn("failed to write perf stats", "error", err)
			}
		}

		if server != nil && s.Frame()%streamEvery == 0 {
			server.Broadcast(meshFrame(s))
		}

		if *snapshotDir != "" && *snapshotEvery > 0 && s.Frame()%*snapshotEvery == 0 {
			writeSnapshot(s, rngSeed, cfg, *snapshotDir)
		}

		if *maxFrames > 0 && s.Frame() >= *maxFrames {
			slog.Info("max frames reached", "frame", s.Frame(), "population", s.Population())
			break
		}
	}

	if *snapshotDir != "" {
		writeSnapshot(s, rngSeed, cfg, *snapshotDir)
	}
	if *meshOut != "" {
		m := s.MeshBuffers()
		if err := geometry.WritePLY(*meshOut, m.Vertices, m.Normals, m.Faces); err != nil {
			slog.Error("failed to write mesh", "error", err)
			os.Exit(1)
		}
		slog.Info("wrote final mesh", "path", *meshOut, "vertices", len(m.Vertices), "faces", len(m.Faces))
	}
}

// buildSimulation seeds a fresh arena from the configured shape, or
// restores one from a snapshot. A snapshot's stored seed is reused unless
// the -seed flag overrides it.
func buildSimulation(cfg *config.Config, resumePath string, seedFlag int64, rngSeed *int64) (*sim.Simulation, error) {
	if resumePath == "" {
		particles, err := geometry.CreateInitialPopulation(cfg)
		if err != nil {
			return nil, err
		}
		rng := rand.New(rand.NewSource(*rngSeed))
		return sim.New(cfg, particles, rng), nil
	}

	snapshot, err := telemetry.LoadSnapshot(resumePath)
	if err != nil {
		return nil, err
	}
	particles, err := snapshot.Restore()
	if err != nil {
		return nil, err
	}
	if seedFlag == 0 && snapshot.RNGSeed != 0 {
		*rngSeed = snapshot.RNGSeed
	}
	rng := rand.New(rand.NewSource(*rngSeed))
	slog.Info("resumed from snapshot",
		"path", resumePath,
		"frame", snapshot.Frame,
		"population", len(particles),
	)
	return sim.Resume(cfg, particles, rng, snapshot.Frame), nil
}

func meshFrame(s *sim.Simulation) stream.MeshFrame {
	m := s.MeshBuffers()
	return stream.MeshFrame{
		Type:       "mesh",
		Frame:      s.Frame(),
		Population: s.Population(),
		Frozen:     s.FrozenCount(),
		Vertices:   m.Vertices,
		Normals:    m.Normals,
		Faces:      m.Faces,
	}
}

func writeSnapshot(s *sim.Simulation, seed int64, cfg *config.Config, dir string) {
	snapshot := telemetry.CaptureSnapshot(seed, s.Frame(), cfg.Growth.FoodMode, cfg.Growth.SplitMode, s.Particles())
	path, err := telemetry.SaveSnapshot(snapshot, dir)
	if err != nil {
		slog.Error("failed to write snapshot", "error", err)
		return
	}
	slog.Info("wrote snapshot", "path", path, "frame", s.Frame(), "population", s.Population())
}
