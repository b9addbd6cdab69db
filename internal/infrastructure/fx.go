// Package infrastructure contains infrastructure layer components
package infrastructure

import (
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/komuzik/media-bot/config"
	"github.com/komuzik/media-bot/internal/infrastructure/database"
	"github.com/komuzik/media-bot/internal/infrastructure/gallerydl"
	"github.com/komuzik/media-bot/internal/infrastructure/logger"
	"github.com/komuzik/media-bot/internal/infrastructure/telegram"
	"github.com/komuzik/media-bot/internal/infrastructure/ytdlp"
)

// Module provides all infrastructure components for fx dependency injection
var Module = fx.Module("infrastructure",
	logger.Module,
	telegram.Module,
	database.Module,
	fx.Provide(provideYtdlp),
	fx.Provide(provideGallerydl),
)

// provideYtdlp creates the yt-dlp subprocess client
func provideYtdlp(log zerolog.Logger) (*ytdlp.Client, error) {
	return ytdlp.NewClient(log)
}

// provideGallerydl creates the gallery-dl fallback client
func provideGallerydl(cfg *config.DownloadsConfig, log zerolog.Logger) *gallerydl.Client {
	return gallerydl.NewClient(time.Duration(cfg.GalleryTimeout)*time.Second, log)
}
