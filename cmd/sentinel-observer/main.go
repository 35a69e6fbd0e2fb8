package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentinelstack/sentinel-observer/internal/config"
	"github.com/sentinelstack/sentinel-observer/internal/engine"
	"github.com/sentinelstack/sentinel-observer/internal/metrics"
	"github.com/sentinelstack/sentinel-observer/internal/models"
	"github.com/sentinelstack/sentinel-observer/internal/repo"
	"github.com/sentinelstack/sentinel-observer/internal/services"
	"github.com/sentinelstack/sentinel-observer/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting sentinel-observer",
		slog.String("prometheus", cfg.Prometheus.URL),
		slog.String("target", cfg.Target.Container))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	promClient := repo.NewPrometheusClient(cfg.Prometheus.URL, cfg.Prometheus.Timeout, logger)
	runner := repo.ExecRunner{}
	evidence := repo.NewDockerLogs(runner, logger)
	prober := repo.NewHealthProber(cfg.Target.HealthURL, cfg.Target.HealthTimeout, logger)

	backends := buildChain(cfg, logger)
	diagnoser := engine.NewDiagnosisEngine(backends, logger)
	gate := engine.NewRemediationGate(runner, prober, cfg.Remediation.SettleInterval, logger)

	observer := services.NewObserver(logger, promClient, evidence, diagnoser, gate, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Metrics.Address,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Metrics.Address))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		observer.Run(ctx)
		close(done)
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	<-done

	if metricsServer != nil {
		metricsCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancel()
	}

	logger.Info("sentinel-observer stopped")
}

// buildChain maps the configured model specs onto backend variants,
// preserving chain order.
func buildChain(cfg *config.Config, logger *slog.Logger) []engine.Backend {
	backends := make([]engine.Backend, 0, len(cfg.Models.Chain))
	for _, spec := range cfg.Models.Chain {
		switch spec.Kind {
		case models.BackendRemote:
			backends = append(backends, engine.NewRemoteBackend(spec.Name, cfg.Models.RemoteAPIKey, cfg.Models.RemoteBaseURL))
		case models.BackendLocal:
			backends = append(backends, engine.NewLocalBackend(spec.Name, cfg.Models.LocalURL, cfg.Models.Timeout))
		default:
			logger.Warn("unknown backend kind, skipping",
				slog.String("kind", string(spec.Kind)), slog.String("model", spec.Name))
		}
	}
	return backends
}
