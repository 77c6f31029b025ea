package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"churnguard/config"
	qhttp "churnguard/http"
	"churnguard/inference"
	"churnguard/logging"
	"churnguard/ml"
	"churnguard/monitoring"
)

func main() {
	configPath := "config.yaml"
	if p := os.Getenv("CHURNGUARD_CONFIG"); p != "" {
		configPath = p
	}

	// 1. Load config
	cfg := config.Default()
	_, statErr := os.Stat(configPath)
	if statErr == nil {
		loaded, err := config.Load(configPath)
		if err != nil {
			zap.NewExample().Fatal("failed to load config", zap.String("path", configPath), zap.Error(err))
		}
		cfg = loaded
	}

	logger, level := logging.New(cfg.Log)
	defer logger.Sync()

	if statErr == nil {
		stop, err := config.WatchLogLevel(configPath, level, logger)
		if err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
		} else {
			defer stop()
		}
	} else {
		logger.Info("no config file, using defaults", zap.String("path", configPath))
	}

	// 2. Load the model artifact; the service must not start without it
	artifact, err := ml.LoadArtifact(cfg.Model.Path)
	if err != nil {
		logger.Fatal("failed to load model artifact", zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	policy, err := ml.ParseInputPolicy(cfg.Model.OnUnrecognizedInput)
	if err != nil {
		logger.Fatal("invalid model config", zap.Error(err))
	}
	engine, err := ml.NewEngine(artifact.Classifier, artifact.Schema.Len(), cfg.Model.ScoreCacheSize)
	if err != nil {
		logger.Fatal("failed to build inference engine", zap.Error(err))
	}
	logger.Info("model loaded",
		zap.String("model_type", artifact.ModelType),
		zap.Int("features", artifact.Schema.Len()),
		zap.String("input_policy", string(policy)))

	// 3. Wire the pipeline
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cache := inference.NewCache()
	hub := monitoring.NewHub(cache.Latest, logger.Named("ws"))
	service := inference.NewService(
		ml.NewTransformer(artifact.Schema, policy),
		engine,
		cache,
		inference.WithLogger(logger.Named("inference")),
		inference.WithRecorder(monitoring.NewMetrics(registry)),
		inference.WithPublisher(hub),
	)

	api := http.NewServeMux()
	qhttp.NewHandlers(service, artifact.Schema, logger).Register(api)
	api.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// 4. Start HTTP server
	go hub.Run()
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, logger, api, map[string]http.Handler{
		"GET /api/ws/predictions": hub,
	})
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	hub.Stop()
	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}
