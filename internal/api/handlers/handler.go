package handlers

import (
	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/config"
	"github.com/lunhatthanh83-boop/bottele/internal/license"
	"github.com/lunhatthanh83-boop/bottele/internal/probe"
	"github.com/lunhatthanh83-boop/bottele/internal/quota"
	"github.com/lunhatthanh83-boop/bottele/internal/scanner"
	"github.com/lunhatthanh83-boop/bottele/internal/store"
)

type Handler struct {
	config   *config.Config
	scanner  *scanner.Scanner
	registry *probe.Registry
	licenses *license.Manager
	tracker  *quota.Tracker
	accounts *store.AccountStore
	stats    *store.StatsStore
	logger   *zap.Logger
}

func NewHandler(
	cfg *config.Config,
	sc *scanner.Scanner,
	registry *probe.Registry,
	licenses *license.Manager,
	tracker *quota.Tracker,
	accounts *store.AccountStore,
	stats *store.StatsStore,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		config:   cfg,
		scanner:  sc,
		registry: registry,
		licenses: licenses,
		tracker:  tracker,
		accounts: accounts,
		stats:    stats,
		logger:   logger,
	}
}
