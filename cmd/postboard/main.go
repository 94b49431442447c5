package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postboard/internal/admission"
	"postboard/internal/api"
	"postboard/internal/config"
	"postboard/internal/logger"
	"postboard/internal/members"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/posts"
	"postboard/internal/storage"
	"postboard/internal/version"
)

var configFile = flag.String("config", "", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, version.GetInfo())
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	ctx := context.Background()

	// Initialize storage
	storageInstance, err := storage.NewStorage(ctx, storage.Config{
		Type:             cfg.Storage.Type,
		ConnectionString: cfg.Storage.Database.DSN,
		MaxOpenConns:     cfg.Storage.Database.MaxOpenConns,
	})
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer storageInstance.Close()

	// Wrap storage with instrumentation if metrics are enabled
	var activeStorage storage.Storage = storageInstance
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedStorage(storageInstance)
		if err != nil {
			slog.Error("Failed to create instrumented storage", "error", err)
			os.Exit(1)
		}
		activeStorage = instrumented
	}

	// Initialize domain services
	membersService := members.NewService(activeStorage)

	if cfg.Security.BootstrapToken != "" {
		member, err := membersService.Bootstrap(ctx, cfg.Security.BootstrapToken)
		if err != nil {
			slog.Error("Failed to seed bootstrap member", "error", err)
			os.Exit(1)
		}
		slog.Info("Bootstrap admin member ready", "id", member.ID, "prefix", member.Prefix)
	}

	var directory posts.DirectoryClient
	if cfg.Upstream.Enabled {
		directory = posts.NewDirectory(posts.DirectoryOptions{
			BaseURL:           cfg.Upstream.BaseURL,
			Timeout:           cfg.Upstream.Timeout,
			RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
			Burst:             cfg.Upstream.Burst,
		})
	}
	postsService := posts.NewService(activeStorage, directory)

	// Initialize the rate counter store and admission controller
	counterStore, err := newCounterStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize rate counter store", "error", err)
		os.Exit(1)
	}
	defer counterStore.Close()

	var admissionMetrics admission.MetricsRecorder
	if cfg.Metrics.Enabled {
		am, err := observability.NewAdmissionMetrics()
		if err != nil {
			slog.Error("Failed to create admission metrics", "error", err)
			os.Exit(1)
		}
		admissionMetrics = am
	}

	controller := admission.NewController(counterStore, admission.ControllerOptions{
		Policy: admission.Policy{
			RequestsPerPeriod: cfg.Admission.RequestsPerPeriod,
			TimePeriod:        cfg.Admission.TimePeriod,
			CooldownPeriod:    cfg.Admission.CooldownPeriod,
		},
		Enabled:  cfg.Admission.Enabled,
		FailOpen: cfg.Admission.FailOpen,
		Metrics:  admissionMetrics,
	})

	adm := admission.NewMiddleware(
		admission.NewResolver(activeStorage),
		controller,
		cfg.Security.EnableAuth,
		cfg.Admission.CountDenied,
	)

	// Initialize HTTP handlers and routes
	handlers := api.NewHandlers(postsService, membersService, activeStorage, counterStore)

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	router := api.SetupRoutes(handlers, adm, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "addr", server.Addr)

		var err error
		if cfg.Server.TLSEnabled {
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// newCounterStore creates the shared rate counter store based on configuration.
func newCounterStore(ctx context.Context, cfg *models.Config) (admission.CounterStore, error) {
	switch cfg.RateStore.Type {
	case models.RateStoreTypeRedis:
		return admission.NewRedisCounterStore(ctx, admission.RedisOptions{
			Addr:      cfg.RateStore.Redis.Addr,
			Password:  cfg.RateStore.Redis.Password,
			DB:        cfg.RateStore.Redis.DB,
			PoolSize:  cfg.RateStore.Redis.PoolSize,
			KeyPrefix: cfg.RateStore.Redis.KeyPrefix,
			OpTimeout: cfg.RateStore.OpTimeout,
		})
	case models.RateStoreTypeMemory:
		slog.Warn("Using in-process rate counters; budgets are not shared across instances")
		return admission.NewMemoryCounterStore(5 * time.Minute), nil
	default:
		return nil, fmt.Errorf("unsupported rate store type: %s", cfg.RateStore.Type)
	}
}
