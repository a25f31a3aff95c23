// Command phonoshift learns how a speaker mispronounces words and predicts
// their pronunciation of new ones.
//
// Server mode (default) trains every configured speaker and serves the JSON
// API, health probes, Prometheus metrics and optionally MCP over HTTP:
//
//	phonoshift -config phonoshift.yaml
//
// One-shot mode trains on a single file and prints guesses:
//
//	phonoshift -train alex.txt "G-EY-M" "K-UH-M"
//
// With -mcp-stdio the trained speakers are served to one MCP client over
// stdin/stdout instead of HTTP.
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
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MrWong99/phonoshift/internal/api"
	"github.com/MrWong99/phonoshift/internal/config"
	"github.com/MrWong99/phonoshift/internal/dataset"
	"github.com/MrWong99/phonoshift/internal/health"
	"github.com/MrWong99/phonoshift/internal/mcp"
	"github.com/MrWong99/phonoshift/internal/observe"
	"github.com/MrWong99/phonoshift/internal/resilience"
	"github.com/MrWong99/phonoshift/internal/speaker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultShutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "phonoshift.yaml", "path to the YAML configuration file")
	trainFile := flag.String("train", "", "train on `FILE`, print guesses for the remaining arguments and exit")
	format := flag.String("format", "", "format of the -train file (lines or yaml); inferred from the extension when empty")
	contrast := flag.Bool("contrast", false, "with -train, enable contrast refinement")
	explain := flag.Bool("explain", false, "with -train, print the rule behind every phoneme")
	mcpStdio := flag.Bool("mcp-stdio", false, "serve MCP over stdin/stdout instead of HTTP")
	flag.Parse()

	if *trainFile != "" {
		opts := trainOptions{format: *format, contrast: *contrast, explain: *explain}
		if err := train(os.Stdout, *trainFile, flag.Args(), opts); err != nil {
			fmt.Fprintf(os.Stderr, "phonoshift: %v\n", err)
			return 1
		}
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "phonoshift: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "phonoshift: %v\n", err)
		}
		return 1
	}

	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("phonoshift starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"speakers", len(cfg.Speakers),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shutdownOTel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
		Registry:       promReg,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "err", err)
		return 1
	}
	defer closeStore()

	specs, err := withStoredSpeakers(ctx, store, speaker.SpecsFromConfig(cfg))
	if err != nil {
		slog.Warn("could not list stored speakers", "err", err)
	}
	registry := speaker.New(specs,
		speaker.WithStore(store),
		speaker.WithMetrics(metrics),
		speaker.WithLogger(slog.Default()),
		speaker.WithContrastRefinement(cfg.Training.ContrastRefinement),
	)
	if err := registry.TrainAll(ctx); err != nil {
		slog.Warn("some speakers failed to train", "err", err)
	}

	mcpServer := mcp.NewServer(registry, version, mcp.WithMetrics(metrics))

	if *mcpStdio || (cfg.MCP.Enabled && cfg.MCP.Transport == config.MCPStdio) {
		slog.Info("serving MCP over stdio")
		if err := mcpServer.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("mcp error", "err", err)
			return 1
		}
		return 0
	}

	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			level.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if !d.SpeakersChanged && !d.TrainingChanged {
			return
		}
		if err := registry.Apply(ctx, new, d); err != nil {
			slog.Warn("config reload: retrain failed", "err", err)
		}
	})
	if err != nil {
		slog.Warn("config hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	mux := http.NewServeMux()
	api.New(registry, slog.Default()).Register(mux)
	health.New(
		health.Checker{Name: "speakers", Check: registry.Ready},
		health.Ping("store", store),
	).Register(mux)
	mux.Handle("GET /metrics", observe.MetricsHandler(promReg))
	if cfg.MCP.Enabled && cfg.MCP.Transport == config.MCPStreamableHTTP {
		mux.Handle("/mcp", mcpServer.Handler())
	}

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           api.Wrap(mux, metrics, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()
	slog.Info("server ready, press Ctrl+C to shut down", "addr", cfg.Server.ListenAddr, "mcp", cfg.MCP.Enabled)

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			return 1
		}
	case <-ctx.Done():
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	slog.Info("shutdown signal received, stopping")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// openStore connects to PostgreSQL when a DSN is configured and falls back to
// an in-memory store otherwise.
func openStore(ctx context.Context, cfg config.StoreConfig) (dataset.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		return dataset.NewMemStore(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := dataset.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	slog.Info("using postgres store")
	guarded := dataset.Guard(store, resilience.New(resilience.Config{
		Name:   "postgres",
		Logger: slog.Default(),
	}))
	return guarded, pool.Close, nil
}

// withStoredSpeakers appends a store-backed spec for every speaker the store
// knows that the config does not declare.
func withStoredSpeakers(ctx context.Context, store dataset.Store, specs []speaker.Spec) ([]speaker.Spec, error) {
	names, err := store.Speakers(ctx)
	if err != nil {
		return specs, err
	}
	declared := make(map[string]bool, len(specs))
	for _, s := range specs {
		declared[s.Name] = true
	}
	for _, name := range names {
		if !declared[name] {
			specs = append(specs, speaker.Spec{Name: name})
		}
	}
	return specs, nil
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
