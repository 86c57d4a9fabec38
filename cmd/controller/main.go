// Package main is the entry point for the jobcoordinator controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobcoordinator/internal/config"
	"jobcoordinator/internal/controller"
	"jobcoordinator/internal/coordinator"
	"jobcoordinator/internal/killer"
	"jobcoordinator/internal/launcher"
	"jobcoordinator/internal/nodestate"
	"jobcoordinator/internal/observability"
	"jobcoordinator/internal/resolver"
	"jobcoordinator/internal/store/postgres"
	"jobcoordinator/internal/worker/runtime"
)

func main() {
	configPath := flag.String("config", "", "Path to an optional YAML config file (none is read when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// New pings and runs pending migrations before returning, so the
	// controller never serves admission requests against a schema it
	// doesn't recognize.
	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer store.Close()

	shutdownTracer, err := observability.Init(ctx, "jobcoordinator-controller", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	rt, err := buildRuntime(cfg)
	if err != nil {
		log.Fatalf("Failed to build runtime %q: %v", cfg.Runtime, err)
	}

	k := killer.New(logger)
	ns := nodestate.New()
	l := launcher.New(store, rt, k, ns, logger)
	res := resolver.NewCatalogResolver(store)

	coord, err := coordinator.New(store, store, res, ns, l, k, logger, coordinator.Limits{
		ArchiveRoot:        cfg.ArchiveRoot,
		DefaultJobMemory:   cfg.DefaultJobMemory,
		MaxJobMemory:       cfg.MaxJobMemory,
		MaxSystemMemory:    cfg.MaxSystemMemory,
		ActiveLimitEnabled: cfg.ActiveLimitEnabled,
		Hostname:           cfg.Hostname,
	})
	if err != nil {
		log.Fatalf("Failed to build coordinator: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, coord, store, store, cfg, metricsHandler)

	go func() {
		log.Printf("jobcoordinator controller starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down controller...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}

// buildRuntime constructs the node-local execution backend named by
// cfg.Runtime. config.Load already rejects any other value.
func buildRuntime(cfg *config.Config) (runtime.Runtime, error) {
	switch cfg.Runtime {
	case "docker":
		return runtime.NewDockerRuntime()
	case "kubernetes":
		return runtime.NewKubernetesRuntime(runtime.KubernetesConfig{})
	default:
		return runtime.NewExecRuntime(cfg.RuntimeWorkDir), nil
	}
}
