// Package bot contains the bot domain module
package bot

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/komuzik/media-bot/config"
	telegramDelivery "github.com/komuzik/media-bot/internal/domain/bot/delivery/telegram"
	"github.com/komuzik/media-bot/internal/domain/bot/deps"
	"github.com/komuzik/media-bot/internal/domain/bot/downloader"
	"github.com/komuzik/media-bot/internal/domain/bot/limiter"
	kafkaRepo "github.com/komuzik/media-bot/internal/domain/bot/repository/kafka"
	sqliteRepo "github.com/komuzik/media-bot/internal/domain/bot/repository/sqlite"
	"github.com/komuzik/media-bot/internal/domain/bot/usecase/buissines"
	"github.com/komuzik/media-bot/internal/infrastructure/gallerydl"
	"github.com/komuzik/media-bot/internal/infrastructure/telegram"
	"github.com/komuzik/media-bot/internal/infrastructure/ytdlp"
)

// Module provides bot domain components for fx dependency injection
var Module = fx.Module("bot",
	// Repository
	fx.Provide(provideStatsRepository),
	fx.Provide(kafkaRepo.NewProducer),

	// Download orchestration
	fx.Provide(provideLimiter),
	fx.Provide(provideFetcher),

	// UseCase
	fx.Provide(buissines.NewUseCase),

	// Delivery - Telegram (needs raw bot from infrastructure)
	fx.Provide(provideTelegramHandlers),
	fx.Provide(telegramDelivery.NewRouter),

	// Wire cyclic dependency and register routes
	fx.Invoke(wireAndRegister),
)

// provideStatsRepository creates the statistics repository
func provideStatsRepository(db *gorm.DB) deps.StatsRepository {
	return sqliteRepo.NewStatsRepository(db)
}

// provideLimiter creates the per-user download admission controller
func provideLimiter(cfg *config.DownloadsConfig, logger zerolog.Logger) deps.AdmissionController {
	return limiter.New(cfg.MaxPerUser, cfg.PrivilegedIDs, logger)
}

// provideFetcher creates the media fetch service on top of the
// extraction tool clients
func provideFetcher(
	yt *ytdlp.Client,
	gallery *gallerydl.Client,
	downloads *config.DownloadsConfig,
	platforms *config.PlatformsConfig,
	logger zerolog.Logger,
) deps.MediaFetcher {
	return downloader.NewService(yt, gallery, downloads, platforms, logger)
}

// provideTelegramHandlers creates Telegram handlers with raw bot
func provideTelegramHandlers(uc *buissines.UseCase, bot *telegram.Bot, logger zerolog.Logger) *telegramDelivery.Handlers {
	return telegramDelivery.NewHandlers(uc, bot.Raw(), logger)
}

// wireAndRegister resolves cyclic dependency and registers routes
func wireAndRegister(
	lc fx.Lifecycle,
	uc *buissines.UseCase,
	handlers *telegramDelivery.Handlers,
	router *telegramDelivery.Router,
	bot *telegram.Bot,
	producer deps.DownloadEventProducer,
) {
	// Handlers implements deps.TelegramSender interface
	// This resolves the cyclic dependency: UseCase -> TelegramSender <- Handlers -> UseCase
	uc.SetSender(handlers)

	// Register Telegram command and callback routes
	router.RegisterRoutes(bot.Raw())

	// Plain text messages carry platform links and report bodies
	bot.SetDefaultHandler(handlers.HandleFreeText)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			router.SetupCommands(ctx, bot.Raw())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
}
