package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/catering/internal/clients"
	"github.com/odyssey-erp/catering/internal/documents"
	"github.com/odyssey-erp/catering/internal/menu"
	"github.com/odyssey-erp/catering/internal/settings"
	"github.com/odyssey-erp/catering/internal/shared"
)

// Services bundles the domain services shared by the API and the worker.
type Services struct {
	Clients     *clients.Service
	Menu        *menu.Service
	Settings    *settings.Service
	Documents   *documents.Service
	Audit       *shared.AuditLogger
	Idempotency *shared.IdempotencyStore
	Locker      *shared.DocumentLocker
}

// NewServices wires repositories and services over the given connections.
// redisClient may be nil, which disables the settings cache and document locks.
func NewServices(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, observer documents.TransitionObserver, logger *slog.Logger) *Services {
	auditLogger := shared.NewAuditLogger(pool)
	locker := shared.NewDocumentLocker(redisClient, cfg.DocumentLockTTL)

	clientService := clients.NewService(clients.NewRepository(pool))
	menuService := menu.NewService(menu.NewRepository(pool))
	settingsService := settings.NewService(
		settings.NewRepository(pool),
		settings.NewCache(redisClient, cfg.SettingsCacheTTL),
		logger,
	)

	hooks := documents.NewHooks(auditLogger, observer, logger)
	documentService := documents.NewService(
		documents.NewRepository(pool),
		clientService,
		menuService,
		hooks,
		locker,
		logger,
	)
	clientService.AttachIndex(documentService)

	return &Services{
		Clients:     clientService,
		Menu:        menuService,
		Settings:    settingsService,
		Documents:   documentService,
		Audit:       auditLogger,
		Idempotency: shared.NewIdempotencyStore(pool),
		Locker:      locker,
	}
}
