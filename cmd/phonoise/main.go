// Command phonoise turns a file of clean transcript lines into
// (noised, original) sentence pairs for grammar-error-correction training.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/rcoulter13/phonoise/internal/batch"
	"github.com/rcoulter13/phonoise/internal/config"
	"github.com/rcoulter13/phonoise/internal/corpus"
	"github.com/rcoulter13/phonoise/internal/dataset"
	"github.com/rcoulter13/phonoise/internal/health"
	"github.com/rcoulter13/phonoise/internal/noise"
	"github.com/rcoulter13/phonoise/internal/observe"
	"github.com/rcoulter13/phonoise/internal/resilience"
	"github.com/rcoulter13/phonoise/pkg/provider/homophone"
	"github.com/rcoulter13/phonoise/pkg/provider/homophone/datamuse"
	"github.com/rcoulter13/phonoise/pkg/provider/homophone/dictionary"
)

// exitInterrupted is returned when a signal stopped the batch early. The
// partial result has still been written.
const exitInterrupted = 130

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to an optional YAML configuration file")
	inputPath := flag.String("path", "", "text file with one transcript sentence per line")
	percent := flag.Float64("percent", 0, "fraction (0.0-1.0) of each sentence's words to corrupt")
	outPath := flag.String("outpath", "", "directory the noised pairs are written to")
	outName := flag.String("output-name", "", "name used in the output file NOISED-<percent>_<name>.<ext>")
	format := flag.String("format", "", "output format: csv, tsv, json, xlsx, postgres")
	seed := flag.Uint64("seed", 0, "random seed; 0 seeds from the clock")
	flag.Parse()

	// A missing .env is normal.
	_ = godotenv.Load()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "phonoise: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "phonoise: %v\n", err)
		return 1
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.Input.Path = *inputPath
		case "percent":
			cfg.Noise.Percent = *percent
		case "outpath":
			cfg.Output.Dir = *outPath
		case "output-name":
			cfg.Output.Name = *outName
		case "format":
			cfg.Output.Format = config.Format(*format)
		case "seed":
			cfg.Seed = *seed
		}
	})
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "phonoise: invalid configuration:\n%v\n", err)
		return 1
	}
	if cfg.Input.Path == "" {
		fmt.Fprintln(os.Stderr, "phonoise: no input file; pass -path or set input.path")
		return 1
	}
	if cfg.Output.Name == "" {
		cfg.Output.Name = trimExt(filepath.Base(cfg.Input.Path))
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.LogLevel))

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	runID := uuid.NewString()
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		RunID:             runID,
		Percent:           cfg.Noise.Percent,
		Format:            string(cfg.Output.Format),
		HomophoneProvider: string(cfg.Homophone.Provider),
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Input ─────────────────────────────────────────────────────────────────
	lines, err := corpus.ReadLines(cfg.Input.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Error("input file not found", "path", cfg.Input.Path)
		} else {
			slog.Error("failed to read input", "err", err)
		}
		return 1
	}

	// ── Noiser ────────────────────────────────────────────────────────────────
	provider, err := buildProvider(ctx, cfg)
	if err != nil {
		slog.Error("failed to build homophone provider", "err", err)
		return 1
	}
	noiser, err := buildNoiser(cfg, provider)
	if err != nil {
		slog.Error("failed to build noiser", "err", err)
		return 1
	}

	printStartupSummary(cfg, len(lines))

	// ── Run ───────────────────────────────────────────────────────────────────
	ctrl := batch.NewController(noiser, batch.WithRunID(runID))
	if addr := cfg.Telemetry.MetricsAddr; addr != "" {
		srv := startMetricsServer(addr, probes(ctrl, provider))
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}
	report, runErr := ctrl.Run(ctx, lines)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("batch failed", "err", runErr)
		return 1
	}

	// The batch context may already be cancelled; the partial result is still
	// written.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer cancel()
	dest, err := writeOutput(wctx, cfg, ctrl.RunID(), report.Pairs)
	if err != nil {
		slog.Error("failed to write output", "err", err)
		return 1
	}

	printReport(report, dest)
	if runErr != nil {
		slog.Warn("run interrupted; partial output written", "pairs", len(report.Pairs), "dest", dest)
		return exitInterrupted
	}
	return 0
}

// ── Wiring ────────────────────────────────────────────────────────────────────

// buildProvider assembles the homophone lookup chain. The remote backend, when
// selected, is primary and the local dictionary is its fallback. A nil
// provider disables homophone swaps.
func buildProvider(ctx context.Context, cfg *config.Config) (homophone.Provider, error) {
	h := cfg.Homophone
	if h.Provider == config.ProviderNone {
		return nil, nil
	}
	fbCfg := resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  h.CircuitBreaker.MaxFailures,
			ResetTimeout: h.CircuitBreaker.ResetTimeout,
		},
	}
	opts := []resilience.HomophoneOption{
		resilience.WithLookupTimeout(h.Timeout),
		resilience.WithMetrics(observe.DefaultMetrics()),
	}
	hasDictionary := len(h.DictionaryFiles) > 0 || len(h.WordLists) > 0

	loadDictionary := func() (*dictionary.Dictionary, error) {
		d := dictionary.New(dictionary.WithSimilarity(h.Similarity))
		if err := dictionary.LoadFiles(ctx, d, h.DictionaryFiles, h.WordLists); err != nil {
			return nil, err
		}
		slog.Info("homophone dictionary loaded", "words", d.Len())
		return d, nil
	}

	switch h.Provider {
	case config.ProviderDatamuse:
		dm, err := datamuse.New(h.BaseURL)
		if err != nil {
			return nil, err
		}
		chain := resilience.NewHomophoneFallback(dm, "datamuse", fbCfg, opts...)
		if h.Fallback && hasDictionary {
			d, err := loadDictionary()
			if err != nil {
				return nil, err
			}
			chain.AddFallback("dictionary", d)
		}
		return chain, nil
	default:
		d, err := loadDictionary()
		if err != nil {
			return nil, err
		}
		return resilience.NewHomophoneFallback(d, "dictionary", fbCfg, opts...), nil
	}
}

func buildNoiser(cfg *config.Config, provider homophone.Provider) (*noise.Noiser, error) {
	guide, err := cfg.Guidebook()
	if err != nil {
		return nil, err
	}
	engineOpts := []noise.EngineOption{noise.WithMaxStalls(cfg.Noise.MaxStalls)}
	if provider != nil {
		timeout := cfg.Homophone.Timeout
		if chain, ok := provider.(*resilience.HomophoneFallback); ok {
			timeout = chain.Timeout() * time.Duration(chain.Backends())
		}
		engineOpts = append(engineOpts, noise.WithOperation(&noise.HomophoneSwap{
			Provider: provider,
			Timeout:  timeout,
		}))
	}
	return noise.NewNoiser(cfg.Noise.Percent,
		noise.WithEngine(noise.NewEngine(guide, engineOpts...)),
		noise.WithRand(noise.NewRand(cfg.Seed)),
	), nil
}

// writeOutput persists pairs and returns a description of where they went.
func writeOutput(ctx context.Context, cfg *config.Config, runID string, pairs []dataset.Pair) (string, error) {
	f, err := dataset.ParseFormat(string(cfg.Output.Format))
	if err != nil {
		return "", err
	}
	if f == dataset.FormatPostgres {
		w, err := dataset.NewPostgresWriter(ctx, cfg.Output.PostgresDSN, cfg.Output.Table, runID)
		if err != nil {
			return "", err
		}
		defer w.Close()
		if err := w.Write(ctx, pairs); err != nil {
			return "", err
		}
		return fmt.Sprintf("postgres table %s (run_id=%s)", cfg.Output.Table, runID), nil
	}
	path := filepath.Join(cfg.Output.Dir, dataset.OutputName(cfg.Noise.Percent, cfg.Output.Name, f))
	if err := dataset.WriteFile(ctx, path, f, pairs); err != nil {
		return "", err
	}
	return path, nil
}

// probes exposes batch progress and homophone backend availability.
func probes(ctrl *batch.Controller, provider homophone.Provider) *health.Handler {
	opts := []health.Option{
		health.WithStatus(func() any { return ctrl.Progress() }),
	}
	if chain, ok := provider.(*resilience.HomophoneFallback); ok {
		opts = append(opts, health.WithChecker("homophone", chain.Check))
	}
	return health.New(opts...)
}

// metricsHandler routes /metrics and the probe endpoints through the
// request instrumentation.
func metricsHandler(probes *health.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", observe.MetricsHandler())
	probes.Register(mux)
	return observe.Middleware(observe.DefaultMetrics())(mux)
}

func startMetricsServer(addr string, probes *health.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsHandler(probes),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr, "path", "/metrics")
	return srv
}

// ── Summaries ─────────────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, lines int) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          phonoise run summary         ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Input", filepath.Base(cfg.Input.Path))
	printRow("Lines", fmt.Sprint(lines))
	printRow("Percent", fmt.Sprint(cfg.Noise.Percent))
	printRow("Homophones", string(cfg.Homophone.Provider))
	printRow("Format", string(cfg.Output.Format))
	if cfg.Seed != 0 {
		printRow("Seed", fmt.Sprint(cfg.Seed))
	} else {
		printRow("Seed", "(clock)")
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printReport(r *batch.Report, dest string) {
	fmt.Println("╔═══════════════════════════════════════╗")
	printRow("Noised", fmt.Sprint(r.Processed))
	printRow("Changed", fmt.Sprint(r.Changed))
	printRow("Skipped", fmt.Sprint(r.Skipped))
	printRow("Elapsed", r.Elapsed.Round(time.Millisecond).String())
	printRow("Sentences/s", fmt.Sprintf("%.1f", r.Throughput()))
	printRow("p95 latency", r.Latency.P95.String())
	ops := make([]noise.OpName, 0, len(r.Ops))
	for op := range r.Ops {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	for _, op := range ops {
		st := r.Ops[op]
		printRow(string(op), fmt.Sprintf("%d ok / %d failed", st.Succeeded, st.Failed))
	}
	fmt.Println("╚═══════════════════════════════════════╝")
	fmt.Printf("Noised data written to %s\n", dest)
}

func printRow(label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-13s  : %-19s ║\n", label, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
