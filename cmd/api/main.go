package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/api"
	"github.com/lunhatthanh83-boop/bottele/internal/config"
	"github.com/lunhatthanh83-boop/bottele/internal/license"
	"github.com/lunhatthanh83-boop/bottele/internal/metrics"
	"github.com/lunhatthanh83-boop/bottele/internal/probe"
	"github.com/lunhatthanh83-boop/bottele/internal/quota"
	"github.com/lunhatthanh83-boop/bottele/internal/scanner"
	"github.com/lunhatthanh83-boop/bottele/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	fs := afero.NewOsFs()
	accounts, err := store.NewAccountStore(fs, cfg.Storage.DataDir)
	if err != nil {
		logger.Fatal("Failed to open accounts store", zap.Error(err))
	}
	keys, err := store.NewKeyStore(fs, cfg.Storage.DataDir)
	if err != nil {
		logger.Fatal("Failed to open keys store", zap.Error(err))
	}
	stats, err := store.NewStatsStore(fs, cfg.Storage.DataDir)
	if err != nil {
		logger.Fatal("Failed to open stats store", zap.Error(err))
	}

	collector := metrics.NewCollector()
	tracker := quota.NewTracker(accounts, cfg.Quota, cfg.Bot.AdminID, logger)
	licenses := license.NewManager(keys, tracker, logger)
	registry := probe.NewRegistry(cfg.Targets, cfg.Scanner)
	sc := scanner.New(registry, cfg.Scanner.WorkerCount, logger, collector)

	server := api.NewServer(cfg, api.Deps{
		Scanner:  sc,
		Registry: registry,
		Licenses: licenses,
		Tracker:  tracker,
		Accounts: accounts,
		Stats:    stats,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("API server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
