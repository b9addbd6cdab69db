// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/komuzik/media-bot/config"
	"github.com/komuzik/media-bot/internal/domain"
	"github.com/komuzik/media-bot/internal/infrastructure"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(config.Out),

		// Infrastructure (logger, telegram bot, database, tool clients)
		infrastructure.Module,

		// Domain (bot business logic)
		domain.Module,
	)
}
