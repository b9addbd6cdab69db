// Package deps contains interface definitions for the bot domain dependencies
package deps

import (
	"context"

	"github.com/komuzik/media-bot/internal/domain/bot/dto"
	"github.com/komuzik/media-bot/internal/domain/bot/entities"
)

// TelegramSender defines interface for sending messages via Telegram.
// This interface is used to break the cyclic dependency between UseCase and TelegramHandler
type TelegramSender interface {
	// SendMessage sends a text message to a chat
	SendMessage(ctx context.Context, chatID int64, text string) error

	// SendMessageAndGetID sends a text message and returns the telegram message ID
	SendMessageAndGetID(ctx context.Context, chatID int64, text string) (messageID int, err error)

	// SendKeyboard sends a message with inline keyboard buttons
	SendKeyboard(ctx context.Context, chatID int64, text string, rows [][]entities.Button) error

	// EditMessage edits message text, dropping any previous keyboard
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error

	// EditKeyboard edits message text and replaces its keyboard
	EditKeyboard(ctx context.Context, chatID int64, messageID int, text string, rows [][]entities.Button) error

	// DeleteMessage deletes a message from a chat
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// SendChatAction sends an "uploading video/audio" style indicator
	SendChatAction(ctx context.Context, chatID int64, action string) error

	// SendVideo delivers a downloaded video file
	SendVideo(ctx context.Context, chatID int64, result *entities.FetchResult, caption string) error

	// SendAudio delivers a downloaded audio file
	SendAudio(ctx context.Context, chatID int64, result *entities.FetchResult, caption string) error

	// SendPhoto delivers a downloaded photo file
	SendPhoto(ctx context.Context, chatID int64, result *entities.FetchResult, caption string) error
}

// MediaFetcher defines interface for media fetch operations. Fetch
// methods return the result together with a release function that
// removes the result's workspace; callers must invoke it after
// delivery on every path.
type MediaFetcher interface {
	// FetchVideo downloads a YouTube video at the requested quality tier
	FetchVideo(ctx context.Context, url, quality string) (*entities.FetchResult, func(), error)

	// FetchAudio extracts audio from a YouTube video at the requested tier
	FetchAudio(ctx context.Context, url, quality string) (*entities.FetchResult, func(), error)

	// FetchTikTok downloads a TikTok video at best quality with retries
	FetchTikTok(ctx context.Context, url string) (*entities.FetchResult, func(), error)

	// FetchInstagram downloads an Instagram post, falling back to the
	// photo tool when the post holds no video
	FetchInstagram(ctx context.Context, url string) (*entities.FetchResult, func(), error)

	// Search returns video search results in extractor order
	Search(ctx context.Context, query string) ([]entities.SearchResult, error)

	// AvailableHeights probes selectable video heights sorted descending,
	// returning the fallback ladder when none are discoverable
	AvailableHeights(ctx context.Context, url string) []int
}

// AdmissionController defines interface for per-user download slots
type AdmissionController interface {
	// Start atomically registers a slot; false means the user is at quota
	Start(userID int64, token string) bool

	// Finish releases a slot; idempotent
	Finish(userID int64, token string)

	// ActiveCount returns the number of live slots for a user
	ActiveCount(userID int64) int

	// IsPrivileged reports whether the user bypasses the quota
	IsPrivileged(userID int64) bool
}

// StatsRepository defines interface for statistics persistence
type StatsRepository interface {
	// TrackUser records first/last activity of a user
	TrackUser(ctx context.Context, userID int64, username string) error

	// TrackSearch records a search event
	TrackSearch(ctx context.Context, userID int64, username string) error

	// TrackVideoDownload records a video download outcome
	TrackVideoDownload(ctx context.Context, userID int64, format, platform, username string, success bool, errMsg string) error

	// TrackAudioDownload records an audio download outcome
	TrackAudioDownload(ctx context.Context, userID int64, quality, username string, success bool, errMsg string) error

	// TrackTikTokDownload records a TikTok download outcome
	TrackTikTokDownload(ctx context.Context, userID int64, username string, success bool, errMsg string) error

	// SaveReport persists a user problem report
	SaveReport(ctx context.Context, userID int64, username, text string) error

	// GetAllUsers returns every tracked user
	GetAllUsers(ctx context.Context) ([]entities.User, error)

	// GetStatistics aggregates usage for period "day", "month" or "all"
	GetStatistics(ctx context.Context, period string) (*entities.StatsSummary, error)
}

// DownloadEventProducer defines interface for the downloads event stream
type DownloadEventProducer interface {
	// SendDownloadEvent publishes a download outcome event
	SendDownloadEvent(ctx context.Context, event *dto.DownloadEvent) error

	// SendUserReport publishes a user report event
	SendUserReport(ctx context.Context, event *dto.UserReportEvent) error

	// Close closes the producer
	Close() error
}
