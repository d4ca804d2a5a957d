package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pthm-cable/forcefield/config"
	"github.com/pthm-cable/forcefield/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logFile := flag.String("log-file", "", "Rotated JSON log file (empty = use config)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	}

	// Set up slog (JSON to stdout, plus a rotated file when configured)
	runID := uuid.New()
	closeLog := setupLogger(cfg.Logging, *debug, runID)
	defer closeLog()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	s, err := sim.New(cfg, sim.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to build scene", "error", err)
		os.Exit(1)
	}
	defer s.Unload()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"fields", len(cfg.Fields),
		"bodies", cfg.Spawn.Count,
		"max_ticks", *maxTicks,
		"output_dir", *outputDir,
	)

	var progress *rate.Sometimes
	if cfg.Logging.ProgressInterval > 0 {
		progress = &rate.Sometimes{Interval: time.Duration(cfg.Logging.ProgressInterval * float64(time.Second))}
	}
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "tick", s.Tick())
			return
		default:
		}

		s.Update()

		if progress != nil {
			progress.Do(func() {
				elapsed := time.Since(start).Seconds()
				slog.Info("progress",
					"tick", s.Tick(),
					"bodies", s.BodyCount(),
					"ticks_per_sec", float64(s.Tick())/elapsed,
				)
			})
		}

		if *maxTicks > 0 && int(s.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			return
		}
	}
}

// setupLogger installs the default slog logger tagged with the run ID and
// returns a function that closes the log file, if any.
func setupLogger(cfg config.LoggingConfig, debug bool, runID uuid.UUID) func() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		w = io.MultiWriter(os.Stdout, file)
		closeFn = func() { file.Close() }
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger.With("run_id", runID.String()))
	return closeFn
}
