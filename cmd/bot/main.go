package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/bot"
	"github.com/lunhatthanh83-boop/bottele/internal/config"
	"github.com/lunhatthanh83-boop/bottele/internal/license"
	"github.com/lunhatthanh83-boop/bottele/internal/mailcheck"
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
	mail := mailcheck.NewChecker(cfg.Mail.CheckURL, cfg.Mail.MaxRetries, logger, collector)

	tg, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		logger.Fatal("Failed to connect to Telegram", zap.Error(err))
	}
	logger.Info("Bot authorized", zap.String("username", tg.Self.UserName))

	handler := bot.NewHandler(bot.Deps{
		Bot:               tg,
		Scanner:           sc,
		Registry:          registry,
		Tracker:           tracker,
		Licenses:          licenses,
		Mail:              mail,
		Accounts:          accounts,
		Stats:             stats,
		Metrics:           collector,
		Logger:            logger,
		AdminID:           cfg.Bot.AdminID,
		ChannelInviteLink: cfg.Bot.ChannelInviteLink,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := tg.GetUpdatesChan(u)

	logger.Info("Bot started")
	handler.Run(ctx, updates)

	tg.StopReceivingUpdates()
	logger.Info("Bot stopped")
}
