package control

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/x402nexus/relay/internal/api"
	"github.com/x402nexus/relay/internal/core/config"
	"github.com/x402nexus/relay/internal/events"
	"github.com/x402nexus/relay/internal/infra/archive"
	"github.com/x402nexus/relay/internal/infra/chain"
	"github.com/x402nexus/relay/internal/infra/store"
	"github.com/x402nexus/relay/internal/orchestrator"
	"github.com/x402nexus/relay/internal/retry"
	"github.com/x402nexus/relay/internal/verifier"
)

// Config holds the application configuration.
type Config struct {
	App  *config.AppConfig
	Demo bool // wire the simulated settlement backend
}

// Relay is the main application struct that wires the payment pipeline and
// manages its lifecycle.
type Relay struct {
	cfg      Config
	store    store.Store
	arch     archive.Archiver
	bus      *events.Bus
	orch     *orchestrator.Orchestrator
	verifier *verifier.Verifier
	server   *api.Server
}

// NewRelay creates a Relay instance with all dependencies initialized.
func NewRelay(cfg Config) (*Relay, error) {
	app := cfg.App

	// 1. State store: Redis, or the degraded no-op store when Redis is
	// unreachable. Demo mode without Redis gets the in-memory store so the
	// pipeline stays observable.
	var st store.Store
	if app.Redis.URL == "" {
		if cfg.Demo {
			st = store.NewMemoryStore()
			slog.Info("using in-memory state store (demo mode)")
		} else {
			st = store.NewNullStore()
			slog.Warn("no redis configured, running with no-op state store")
		}
	} else if rs, err := store.NewRedisStore(app.Redis); err != nil {
		slog.Warn("redis unreachable, running with no-op state store", "error", err)
		st = store.NewNullStore()
	} else {
		st = rs
		slog.Info("using redis state store")
	}

	// 2. Durable archive (optional).
	var arch archive.Archiver = archive.Noop{}
	if app.Database.URL != "" {
		pg, err := archive.NewPostgres(context.Background(), app.Database, "migrations")
		if err != nil {
			return nil, err
		}
		arch = pg
		slog.Info("payment archive enabled")
	}

	// 3. Settlement backend.
	var settler chain.Settler
	if cfg.Demo {
		settler = chain.NewSimulator(chain.SimulatorConfig{
			FailureRate: app.Demo.Simulator.FailureRate,
			ClaimAfter:  app.Demo.Simulator.ClaimAfter,
			Latency:     app.Demo.Simulator.Latency.Std(),
			Seed:        app.Demo.Simulator.Seed,
		})
		slog.Info("using simulated settlement backend",
			"failure_rate", app.Demo.Simulator.FailureRate)
	} else {
		settler = chain.NewHTTPClient(app.Settlement.Endpoint, app.Settlement.Timeout.Std())
		slog.Info("using settlement gateway", "endpoint", app.Settlement.Endpoint)
	}

	// 4. Pipeline.
	bus := events.NewBus()
	engine := retry.NewEngine(retry.NewTracker())
	orch := orchestrator.New(st, engine, settler, bus, arch, app.Settlement.Provider)
	ver := verifier.New(st, settler, bus, arch)
	server := api.NewServer(orch, st, app.Server.Port)

	return &Relay{
		cfg:      cfg,
		store:    st,
		arch:     arch,
		bus:      bus,
		orch:     orch,
		verifier: ver,
		server:   server,
	}, nil
}

// Bus exposes the lifecycle event bus for external sinks.
func (r *Relay) Bus() *events.Bus { return r.bus }

// Orchestrator exposes the payment orchestrator.
func (r *Relay) Orchestrator() *orchestrator.Orchestrator { return r.orch }

// Start launches the verifier loop and the HTTP server.
func (r *Relay) Start(ctx context.Context) error {
	r.verifier.Start(r.cfg.App.Verifier.Interval.Std())

	go func() {
		slog.Info("HTTP server listening", "port", r.cfg.App.Server.Port)
		if err := r.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the pipeline down gracefully.
func (r *Relay) Stop(ctx context.Context) error {
	r.verifier.Stop()

	if err := r.server.Stop(ctx); err != nil {
		slog.Error("failed to stop HTTP server", "error", err)
	}
	if err := r.store.Close(); err != nil {
		slog.Error("failed to close state store", "error", err)
	}
	if err := r.arch.Close(); err != nil {
		slog.Error("failed to close archive", "error", err)
	}
	return nil
}
