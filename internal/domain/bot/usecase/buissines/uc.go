// Package buissines contains the bot business logic: URL routing,
// callback dispatch, admission control and download orchestration
package buissines

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/komuzik/media-bot/config"
	"github.com/komuzik/media-bot/internal/domain/bot/consts"
	"github.com/komuzik/media-bot/internal/domain/bot/deps"
	"github.com/komuzik/media-bot/internal/domain/bot/dto"
	"github.com/komuzik/media-bot/internal/domain/bot/entities"
	boterrors "github.com/komuzik/media-bot/internal/domain/bot/errors"
)

// chatActionInterval is how often the "uploading" indicator is renewed
// while a download is in flight
const chatActionInterval = 5 * time.Second

// downloadKind distinguishes the media fetch operations
type downloadKind int

const (
	downloadVideo downloadKind = iota
	downloadAudio
	downloadTikTok
	downloadInstagram
)

// UseCase implements the bot domain logic
type UseCase struct {
	limiter   deps.AdmissionController
	fetcher   deps.MediaFetcher
	stats     deps.StatsRepository
	producer  deps.DownloadEventProducer
	downloads *config.DownloadsConfig
	platforms *config.PlatformsConfig
	username  string
	logger    zerolog.Logger

	// sender is set after construction to break the cyclic dependency
	// with the delivery layer
	sender deps.TelegramSender

	mu        sync.Mutex
	reporting map[int64]bool

	// launch runs the download off the event-processing path; tests
	// replace it to run synchronously
	launch func(fn func())
}

// NewUseCase creates the bot use case
func NewUseCase(
	limiter deps.AdmissionController,
	fetcher deps.MediaFetcher,
	stats deps.StatsRepository,
	producer deps.DownloadEventProducer,
	downloads *config.DownloadsConfig,
	platforms *config.PlatformsConfig,
	telegram *config.TelegramConfig,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		limiter:   limiter,
		fetcher:   fetcher,
		stats:     stats,
		producer:  producer,
		downloads: downloads,
		platforms: platforms,
		username:  telegram.BotUsername,
		logger:    logger,
		reporting: make(map[int64]bool),
		launch:    func(fn func()) { go fn() },
	}
}

// SetSender wires the delivery layer after construction
func (uc *UseCase) SetSender(sender deps.TelegramSender) {
	uc.sender = sender
}

// HandleStart handles the /start command
func (uc *UseCase) HandleStart(ctx context.Context, chatID, userID int64, username string) error {
	uc.trackUser(ctx, userID, username)
	return uc.sender.SendMessage(ctx, chatID, msgStart)
}

// HandleHelp handles the /help command
func (uc *UseCase) HandleHelp(ctx context.Context, chatID, userID int64, username string) error {
	uc.trackUser(ctx, userID, username)
	return uc.sender.SendMessage(ctx, chatID, msgHelp)
}

// HandleSearch handles the /search command. Search consumes no
// admission slot; only downloads are gated.
func (uc *UseCase) HandleSearch(ctx context.Context, chatID, userID int64, username, query string) error {
	uc.trackUser(ctx, userID, username)

	query = strings.TrimSpace(query)
	if query == "" {
		return uc.sender.SendMessage(ctx, chatID, msgSearchUsage)
	}

	msgID, err := uc.sender.SendMessageAndGetID(ctx, chatID, formatSearching(query))
	if err != nil {
		return err
	}

	results, err := uc.fetcher.Search(ctx, query)
	if err != nil {
		uc.logger.Error().Err(err).Str("query", query).Msg("Search failed")
		return uc.sender.EditMessage(ctx, chatID, msgID, msgSearchNothing)
	}
	if len(results) == 0 {
		return uc.sender.EditMessage(ctx, chatID, msgID, msgSearchNothing)
	}

	if err := uc.stats.TrackSearch(ctx, userID, username); err != nil {
		uc.logger.Warn().Err(err).Msg("Failed to track search event")
	}

	return uc.sender.EditKeyboard(ctx, chatID, msgID, msgSearchPick, searchRows(results))
}

// HandleStats handles the /stats command
func (uc *UseCase) HandleStats(ctx context.Context, chatID int64) error {
	return uc.sender.SendKeyboard(ctx, chatID, msgStatsChoose, statsPeriodRows())
}

// HandleStatsPeriod handles a stats_<period> callback
func (uc *UseCase) HandleStatsPeriod(ctx context.Context, chatID int64, messageID int, period string) error {
	summary, err := uc.stats.GetStatistics(ctx, period)
	if err != nil {
		uc.logger.Error().Err(err).Str("period", period).Msg("Failed to load statistics")
		return err
	}
	return uc.sender.EditMessage(ctx, chatID, messageID, formatStats(summary))
}

// HandleReport handles the /report command: the user's next free-text
// message becomes the report body
func (uc *UseCase) HandleReport(ctx context.Context, chatID, userID int64, username string) error {
	uc.trackUser(ctx, userID, username)
	uc.setReporting(userID, true)
	return uc.sender.SendKeyboard(ctx, chatID, msgReportPrompt, reportCancelRows())
}

// HandleReportCancel handles the report_cancel callback
func (uc *UseCase) HandleReportCancel(ctx context.Context, chatID, userID int64, messageID int) error {
	uc.setReporting(userID, false)
	return uc.sender.EditMessage(ctx, chatID, messageID, msgReportCancelled)
}

// HandleFreeText routes a plain text message: active report capture
// first, then platform URL detection in fixed priority order.
func (uc *UseCase) HandleFreeText(ctx context.Context, chatID, userID int64, username, text string) error {
	if uc.isReporting(userID) {
		// Commands do not resolve the capture; only the cancel button
		// or non-command free text does.
		if strings.HasPrefix(text, "/") {
			return nil
		}
		return uc.submitReport(ctx, chatID, userID, username, text)
	}

	if strings.HasPrefix(text, "/") {
		return nil
	}

	uc.trackUser(ctx, userID, username)

	if url := consts.InstagramRegex.FindString(text); url != "" {
		return uc.startDownload(ctx, chatID, userID, username, downloadInstagram, url, "")
	}
	if url := consts.TikTokRegex.FindString(text); url != "" {
		return uc.startDownload(ctx, chatID, userID, username, downloadTikTok, url, "")
	}
	if url := consts.YouTubeRegex.FindString(text); url != "" {
		// Shorts play at a single quality, skip the selection flow
		if strings.Contains(url, consts.YouTubeShortsPath) {
			return uc.startDownload(ctx, chatID, userID, username, downloadVideo, url, "best")
		}
		return uc.sender.SendKeyboard(ctx, chatID, msgChooseContent, contentTypeRows(url))
	}

	return uc.sender.SendMessage(ctx, chatID, msgInvalidLink)
}

// HandleSelect handles a select_<url> callback from search results
func (uc *UseCase) HandleSelect(ctx context.Context, chatID int64, url string) error {
	return uc.sender.SendKeyboard(ctx, chatID, msgChooseContent, contentTypeRows(url))
}

// HandleContent handles a content_<kind>_<url> callback
func (uc *UseCase) HandleContent(ctx context.Context, chatID int64, messageID int, kind, url string) error {
	switch kind {
	case consts.ContentVideo:
		heights := uc.fetcher.AvailableHeights(ctx, url)
		rows := qualityRows(heights, url)
		if len(rows) == 0 {
			return uc.sender.EditMessage(ctx, chatID, messageID, msgNoFormats)
		}
		return uc.sender.EditKeyboard(ctx, chatID, messageID, msgChooseQuality, rows)
	case consts.ContentAudio:
		return uc.sender.EditKeyboard(ctx, chatID, messageID, msgChooseAudio, audioQualityRows(url))
	default:
		uc.logger.Warn().Str("kind", kind).Msg("Unknown content type in callback")
		return nil
	}
}

// HandleQuality handles a quality_<tier>_<url> callback
func (uc *UseCase) HandleQuality(ctx context.Context, chatID, userID int64, username, tier, url string) error {
	return uc.startDownload(ctx, chatID, userID, username, downloadVideo, url, tier)
}

// HandleAudio handles an audio_<tier>_<url> callback
func (uc *UseCase) HandleAudio(ctx context.Context, chatID, userID int64, username, tier, url string) error {
	return uc.startDownload(ctx, chatID, userID, username, downloadAudio, url, tier)
}

// startDownload gates the operation through the admission controller
// and runs the fetch off the event-processing path
func (uc *UseCase) startDownload(ctx context.Context, chatID, userID int64, username string, kind downloadKind, url, tier string) error {
	token := uuid.NewString()

	if !uc.limiter.Start(userID, token) {
		active := uc.limiter.ActiveCount(userID)
		return uc.sender.SendMessage(ctx, chatID,
			fmt.Sprintf(msgLimitReached, active, uc.downloads.MaxPerUser))
	}

	// The update context dies with the handler; the download must not
	bg := context.WithoutCancel(ctx)
	uc.launch(func() {
		defer uc.limiter.Finish(userID, token)
		uc.runDownload(bg, chatID, userID, username, kind, url, tier)
	})

	return nil
}

// runDownload performs fetch, delivery, cleanup and outcome recording
func (uc *UseCase) runDownload(ctx context.Context, chatID, userID int64, username string, kind downloadKind, url, tier string) {
	stopAction := uc.startChatAction(ctx, chatID, chatAction(kind))
	defer stopAction()

	procID, err := uc.sender.SendMessageAndGetID(ctx, chatID, processingMessage(kind))
	if err != nil {
		uc.logger.Warn().Err(err).Msg("Failed to send processing message")
	}

	uc.logger.Info().
		Int64("user_id", userID).
		Str("url", url).
		Str("tier", tier).
		Msg("Starting download")

	result, release, err := uc.fetch(ctx, kind, url, tier)
	if err != nil {
		uc.logger.Error().Err(err).Str("url", url).Msg("Download failed")
		uc.recordOutcome(ctx, kind, userID, username, tier, "", false, err.Error())
		_ = uc.sender.SendMessage(ctx, chatID, uc.failureMessage(kind, err))
		return
	}
	defer release()

	if err := uc.deliver(ctx, chatID, result); err != nil {
		uc.logger.Error().Err(err).Str("url", url).Msg("Delivery failed")
		uc.recordOutcome(ctx, kind, userID, username, tier, string(result.Kind), false, "delivery: "+err.Error())
		_ = uc.sender.SendMessage(ctx, chatID, fmt.Sprintf(msgDeliveryFailed, err.Error()))
		return
	}

	if procID != 0 {
		_ = uc.sender.DeleteMessage(ctx, chatID, procID)
	}

	uc.recordOutcome(ctx, kind, userID, username, tier, string(result.Kind), true, "")
}

// fetch dispatches to the media fetch operation for kind
func (uc *UseCase) fetch(ctx context.Context, kind downloadKind, url, tier string) (*entities.FetchResult, func(), error) {
	switch kind {
	case downloadAudio:
		return uc.fetcher.FetchAudio(ctx, url, tier)
	case downloadTikTok:
		return uc.fetcher.FetchTikTok(ctx, url)
	case downloadInstagram:
		return uc.fetcher.FetchInstagram(ctx, url)
	default:
		return uc.fetcher.FetchVideo(ctx, url, tier)
	}
}

// deliver sends the result with the send operation matching its kind
func (uc *UseCase) deliver(ctx context.Context, chatID int64, result *entities.FetchResult) error {
	caption := ""
	if uc.username != "" {
		caption = "@" + uc.username
	}

	switch result.Kind {
	case entities.KindAudio:
		return uc.sender.SendAudio(ctx, chatID, result, caption)
	case entities.KindPhoto:
		return uc.sender.SendPhoto(ctx, chatID, result, caption)
	default:
		return uc.sender.SendVideo(ctx, chatID, result, caption)
	}
}

// failureMessage builds the user-visible error. Transient failures
// that exhausted retries show only the platform template; terminal
// failures append the raw tool error for diagnosability.
func (uc *UseCase) failureMessage(kind downloadKind, err error) string {
	tmpl := uc.platforms.ByName(platformOf(kind)).ErrorMessage
	if boterrors.IsTransient(err) {
		return tmpl
	}
	return tmpl + ": " + err.Error()
}

// recordOutcome writes exactly one statistics event and one stream
// event per finished operation
func (uc *UseCase) recordOutcome(ctx context.Context, kind downloadKind, userID int64, username, tier, contentKind string, success bool, errMsg string) {
	var eventType, format string
	var trackErr error

	switch kind {
	case downloadAudio:
		eventType = "audio_download"
		format = tier
		trackErr = uc.stats.TrackAudioDownload(ctx, userID, tier, username, success, errMsg)
	case downloadTikTok:
		eventType = "tiktok_download"
		trackErr = uc.stats.TrackTikTokDownload(ctx, userID, username, success, errMsg)
	case downloadInstagram:
		eventType = "video_download"
		format = contentKind
		trackErr = uc.stats.TrackVideoDownload(ctx, userID, contentKind, consts.PlatformInstagram, username, success, errMsg)
	default:
		eventType = "video_download"
		format = tier
		trackErr = uc.stats.TrackVideoDownload(ctx, userID, tier, consts.PlatformYouTube, username, success, errMsg)
	}
	if trackErr != nil {
		uc.logger.Warn().Err(trackErr).Msg("Failed to track download event")
	}

	event := &dto.DownloadEvent{
		EventType:    eventType,
		UserID:       userID,
		Username:     username,
		Format:       format,
		Platform:     platformOf(kind),
		Success:      success,
		ErrorMessage: errMsg,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := uc.producer.SendDownloadEvent(ctx, event); err != nil {
		uc.logger.Warn().Err(err).Msg("Failed to publish download event")
	}
}

// submitReport persists and forwards a captured report, then clears
// the capture flag
func (uc *UseCase) submitReport(ctx context.Context, chatID, userID int64, username, text string) error {
	uc.setReporting(userID, false)

	text = strings.TrimSpace(text)
	if text == "" {
		return boterrors.ErrEmptyReport
	}

	if err := uc.stats.SaveReport(ctx, userID, username, text); err != nil {
		uc.logger.Error().Err(err).Msg("Failed to save report")
	}

	event := &dto.UserReportEvent{
		UserID:    userID,
		Username:  username,
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := uc.producer.SendUserReport(ctx, event); err != nil {
		uc.logger.Warn().Err(err).Msg("Failed to publish report event")
	}

	for _, adminID := range uc.downloads.PrivilegedIDs {
		notice := fmt.Sprintf("📣 Сообщение от @%s (%d):\n%s", username, userID, text)
		if err := uc.sender.SendMessage(ctx, adminID, notice); err != nil {
			uc.logger.Warn().Err(err).Int64("admin_id", adminID).Msg("Failed to forward report")
		}
	}

	return uc.sender.SendMessage(ctx, chatID, msgReportThanks)
}

// startChatAction keeps the "uploading" indicator alive until the
// returned stop function is called
func (uc *UseCase) startChatAction(ctx context.Context, chatID int64, action string) func() {
	actionCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(chatActionInterval)
		defer ticker.Stop()

		_ = uc.sender.SendChatAction(actionCtx, chatID, action)
		for {
			select {
			case <-actionCtx.Done():
				return
			case <-ticker.C:
				_ = uc.sender.SendChatAction(actionCtx, chatID, action)
			}
		}
	}()

	return cancel
}

func (uc *UseCase) trackUser(ctx context.Context, userID int64, username string) {
	if err := uc.stats.TrackUser(ctx, userID, username); err != nil {
		uc.logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to track user")
	}
}

func (uc *UseCase) isReporting(userID int64) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.reporting[userID]
}

func (uc *UseCase) setReporting(userID int64, active bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if active {
		uc.reporting[userID] = true
	} else {
		delete(uc.reporting, userID)
	}
}

func platformOf(kind downloadKind) string {
	switch kind {
	case downloadTikTok:
		return consts.PlatformTikTok
	case downloadInstagram:
		return consts.PlatformInstagram
	default:
		return consts.PlatformYouTube
	}
}

func chatAction(kind downloadKind) string {
	switch kind {
	case downloadAudio:
		return "upload_voice"
	case downloadInstagram:
		return "upload_photo"
	default:
		return "upload_video"
	}
}

func processingMessage(kind downloadKind) string {
	switch kind {
	case downloadAudio:
		return msgProcessingAudio
	case downloadTikTok:
		return msgProcessingTikTok
	case downloadInstagram:
		return msgProcessingInsta
	default:
		return msgProcessingVideo
	}
}
