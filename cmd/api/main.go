package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/kaigi-sim/backend/internal/analysis/roledisplay"
	"github.com/kaigi-sim/backend/internal/config"
	"github.com/kaigi-sim/backend/internal/handler"
	"github.com/kaigi-sim/backend/internal/metrics"
	"github.com/kaigi-sim/backend/internal/model/role"
	"github.com/kaigi-sim/backend/internal/service/ai"
	"github.com/kaigi-sim/backend/internal/service/retry"
	"github.com/kaigi-sim/backend/internal/service/simulation"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		klog.Warningf("failed to load .env file: %v; continuing with system environment variables only", err)
	}

	cfg, err := config.Load()
	if err != nil {
		klog.Fatalf("failed to load configuration: %v", err)
	}

	roles := role.Seed()
	if cfg.RoleCatalogFile != "" {
		roles, err = role.LoadFile(cfg.RoleCatalogFile, roles)
		if err != nil {
			klog.Fatalf("failed to load role catalog %s: %v", cfg.RoleCatalogFile, err)
		}
		klog.Infof("role catalog loaded from %s (%d roles)", cfg.RoleCatalogFile, len(roles))
	}
	roleStore := role.NewMemoryStore(roles)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// A nil interface keeps the orchestrator in its unavailable state.
	var generator ai.TextGenerator
	if cfg.AI.Enabled() {
		svc, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			klog.Warningf("failed to initialize AI service: %v; generation endpoints will answer 503", err)
		} else {
			generator = svc
			klog.Infof("AI service initialized (provider=%s model=%s)", cfg.AI.Provider, cfg.AI.Model)
		}
	} else {
		klog.Warning("AI provider credentials not configured; generation endpoints will answer 503")
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
	}
	orchestrator := simulation.NewOrchestrator(
		generator,
		ai.NewPromptBuilder(roleStore),
		simulation.WithPolicy(policy),
		simulation.WithTimeouts(simulation.Timeouts{
			Step:    cfg.AI.StepTimeout,
			Full:    cfg.AI.FullTimeout,
			Summary: cfg.AI.SummaryTimeout,
		}),
		simulation.WithMetrics(m),
	)

	router := handler.NewRouter(handler.Dependencies{
		Server:         cfg.Server,
		Simulation:     simulation.NewService(orchestrator, m),
		Roles:          roleStore,
		Resolver:       roledisplay.FromStore(roleStore),
		TypingInterval: cfg.Stream.TypingInterval,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if serverCfg.AuthEnabled() {
		klog.Info("basic authentication enabled")
	}
	klog.Infof("meeting simulation backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		klog.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
