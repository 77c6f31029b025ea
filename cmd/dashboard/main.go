package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"churnguard/config"
	"churnguard/dashboard"
	"churnguard/db"
	qhttp "churnguard/http"
	"churnguard/logging"
)

func main() {
	// Look for config in root even if run from cmd/dashboard
	configPath := "config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = filepath.Join("..", "..", "config.yaml")
	}

	cfg := config.Default()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.Load(configPath)
		if err != nil {
			zap.NewExample().Fatal("failed to load config", zap.String("path", configPath), zap.Error(err))
		}
		cfg = loaded
	}

	logger, _ := logging.New(cfg.Log)
	defer logger.Sync()

	// 1. Load dataset into SQLite
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Fatal("failed to create database directory", zap.Error(err))
	}
	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer store.Close()

	customers, err := dashboard.LoadDataset(cfg.Dashboard.DatasetPath, cfg.Dashboard.Charset)
	if err != nil {
		logger.Fatal("failed to load dataset", zap.String("path", cfg.Dashboard.DatasetPath), zap.Error(err))
	}
	if err := store.ReplaceCustomers(context.Background(), customers); err != nil {
		logger.Fatal("failed to store dataset", zap.Error(err))
	}
	logger.Info("dataset loaded", zap.Int("customers", len(customers)))

	// 2. Start HTTP server
	mux := http.NewServeMux()
	client := dashboard.NewClient(cfg.Dashboard.ServiceURL, cfg.Dashboard.PollTimeout)
	dashboard.NewHandlers(store, client, logger.Named("dashboard")).Register(mux)

	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Dashboard.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, logger, mux, nil)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}
