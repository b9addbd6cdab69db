// Package telegram contains Telegram delivery handlers
package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/komuzik/media-bot/internal/domain/bot/entities"
	"github.com/komuzik/media-bot/internal/domain/bot/usecase/buissines"
)

// Constants for Telegram API
const (
	MaxMessageLength = 4096
	RequestTimeout   = 30 * time.Second
	UploadTimeout    = 5 * time.Minute
)

// Handlers contains Telegram command and callback handlers.
// Implements deps.TelegramSender interface
type Handlers struct {
	uc     *buissines.UseCase
	bot    *tgbot.Bot
	logger zerolog.Logger
}

// NewHandlers creates new Telegram handlers
func NewHandlers(uc *buissines.UseCase, bot *tgbot.Bot, logger zerolog.Logger) *Handlers {
	return &Handlers{
		uc:     uc,
		bot:    bot,
		logger: logger,
	}
}

// SendMessage implements deps.TelegramSender interface
func (h *Handlers) SendMessage(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		h.logger.Warn().Int64("chat_id", chatID).Msg("Attempt to send empty message")
		return fmt.Errorf("message text cannot be empty")
	}

	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	if len(text) > MaxMessageLength {
		text = text[:MaxMessageLength-3] + "..."
	}

	_, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})

	if err != nil {
		handledErr := h.handleSendMessageError(chatID, err)
		h.logMessageSend(chatID, len(text), false, handledErr)
		return handledErr
	}

	h.logMessageSend(chatID, len(text), true, nil)
	return nil
}

// SendMessageAndGetID sends a text message and returns the telegram message ID
func (h *Handlers) SendMessageAndGetID(ctx context.Context, chatID int64, text string) (int, error) {
	if text == "" {
		return 0, fmt.Errorf("message text cannot be empty")
	}

	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	msg, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})

	if err != nil {
		handledErr := h.handleSendMessageError(chatID, err)
		h.logMessageSend(chatID, len(text), false, handledErr)
		return 0, handledErr
	}

	h.logMessageSend(chatID, len(text), true, nil)
	return msg.ID, nil
}

// SendKeyboard implements deps.TelegramSender interface
func (h *Handlers) SendKeyboard(ctx context.Context, chatID int64, text string, rows [][]entities.Button) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: inlineKeyboard(rows),
	})

	if err != nil {
		return h.handleSendMessageError(chatID, err)
	}
	return nil
}

// EditMessage implements deps.TelegramSender interface
func (h *Handlers) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	if text == "" {
		return fmt.Errorf("message text cannot be empty")
	}

	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	if len(text) > MaxMessageLength {
		text = text[:MaxMessageLength-3] + "..."
	}

	_, err := h.bot.EditMessageText(msgCtx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})

	if err != nil {
		h.logger.Error().Int64("chat_id", chatID).Int("message_id", messageID).Err(err).Msg("Failed to edit message text")
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// EditKeyboard implements deps.TelegramSender interface
func (h *Handlers) EditKeyboard(ctx context.Context, chatID int64, messageID int, text string, rows [][]entities.Button) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.EditMessageText(msgCtx, &tgbot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: inlineKeyboard(rows),
	})

	if err != nil {
		h.logger.Error().Int64("chat_id", chatID).Int("message_id", messageID).Err(err).Msg("Failed to edit message keyboard")
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// DeleteMessage implements deps.TelegramSender interface
func (h *Handlers) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.DeleteMessage(msgCtx, &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})

	if err != nil {
		h.logger.Warn().Int64("chat_id", chatID).Int("message_id", messageID).Err(err).Msg("Failed to delete message")
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// SendChatAction implements deps.TelegramSender interface
func (h *Handlers) SendChatAction(ctx context.Context, chatID int64, action string) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendChatAction(msgCtx, &tgbot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatAction(action),
	})

	if err != nil {
		h.logger.Warn().Int64("chat_id", chatID).Str("action", action).Err(err).Msg("Failed to send chat action")
	}

	return err
}

// SendVideo uploads a downloaded video file to the chat
func (h *Handlers) SendVideo(ctx context.Context, chatID int64, result *entities.FetchResult, caption string) error {
	file, err := os.Open(result.FilePath)
	if err != nil {
		return fmt.Errorf("open video file: %w", err)
	}
	defer file.Close()

	msgCtx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	_, err = h.bot.SendVideo(msgCtx, &tgbot.SendVideoParams{
		ChatID:            chatID,
		Video:             &models.InputFileUpload{Filename: filepath.Base(result.FilePath), Data: file},
		Caption:           caption,
		Duration:          result.Duration,
		Width:             result.Width,
		Height:            result.Height,
		SupportsStreaming: true,
	})

	if err != nil {
		h.logMediaSend(chatID, "video", false, err)
		return fmt.Errorf("failed to send video: %w", err)
	}

	h.logMediaSend(chatID, "video", true, nil)
	return nil
}

// SendAudio uploads a downloaded audio file to the chat
func (h *Handlers) SendAudio(ctx context.Context, chatID int64, result *entities.FetchResult, caption string) error {
	file, err := os.Open(result.FilePath)
	if err != nil {
		return fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	msgCtx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	_, err = h.bot.SendAudio(msgCtx, &tgbot.SendAudioParams{
		ChatID:    chatID,
		Audio:     &models.InputFileUpload{Filename: filepath.Base(result.FilePath), Data: file},
		Caption:   caption,
		Title:     result.Track,
		Performer: result.Artist,
		Duration:  result.Duration,
	})

	if err != nil {
		h.logMediaSend(chatID, "audio", false, err)
		return fmt.Errorf("failed to send audio: %w", err)
	}

	h.logMediaSend(chatID, "audio", true, nil)
	return nil
}

// SendPhoto uploads a downloaded photo file to the chat
func (h *Handlers) SendPhoto(ctx context.Context, chatID int64, result *entities.FetchResult, caption string) error {
	file, err := os.Open(result.FilePath)
	if err != nil {
		return fmt.Errorf("open photo file: %w", err)
	}
	defer file.Close()

	msgCtx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	_, err = h.bot.SendPhoto(msgCtx, &tgbot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: filepath.Base(result.FilePath), Data: file},
		Caption: caption,
	})

	if err != nil {
		h.logMediaSend(chatID, "photo", false, err)
		return fmt.Errorf("failed to send photo: %w", err)
	}

	h.logMediaSend(chatID, "photo", true, nil)
	return nil
}

// HandleStart handles /start command
func (h *Handlers) HandleStart(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	h.logCommand(userID, "/start", "processing")

	if err := h.uc.HandleStart(ctx, chatID, userID, update.Message.From.Username); err != nil {
		h.logError(userID, "/start", err)
		return
	}

	h.logCommand(userID, "/start", "success")
}

// HandleHelp handles /help command
func (h *Handlers) HandleHelp(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	h.logCommand(userID, "/help", "processing")

	if err := h.uc.HandleHelp(ctx, chatID, userID, update.Message.From.Username); err != nil {
		h.logError(userID, "/help", err)
		return
	}

	h.logCommand(userID, "/help", "success")
}

// HandleSearch handles /search command. Everything after the command is
// the search query.
func (h *Handlers) HandleSearch(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	query := strings.TrimPrefix(update.Message.Text, "/search")
	h.logCommand(userID, "/search", "processing")

	if err := h.uc.HandleSearch(ctx, chatID, userID, update.Message.From.Username, query); err != nil {
		h.logError(userID, "/search", err)
		return
	}

	h.logCommand(userID, "/search", "success")
}

// HandleStats handles /stats command
func (h *Handlers) HandleStats(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	h.logCommand(userID, "/stats", "processing")

	if err := h.uc.HandleStats(ctx, chatID); err != nil {
		h.logError(userID, "/stats", err)
		return
	}

	h.logCommand(userID, "/stats", "success")
}

// HandleReport handles /report command
func (h *Handlers) HandleReport(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	h.logCommand(userID, "/report", "processing")

	if err := h.uc.HandleReport(ctx, chatID, userID, update.Message.From.Username); err != nil {
		h.logError(userID, "/report", err)
		return
	}

	h.logCommand(userID, "/report", "success")
}

// HandleFreeText handles plain text messages: platform links and active
// report capture
func (h *Handlers) HandleFreeText(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" || update.Message.From == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if err := h.uc.HandleFreeText(ctx, chatID, userID, update.Message.From.Username, update.Message.Text); err != nil {
		h.logError(userID, "free_text", err)
	}
}

// HandleCallback handles all inline keyboard callbacks
func (h *Handlers) HandleCallback(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}

	h.answerCallback(ctx, cb.ID)

	msg := cb.Message.Message
	if msg == nil {
		h.logger.Warn().Str("data", cb.Data).Msg("Callback without accessible message")
		return
	}

	userID := cb.From.ID
	username := cb.From.Username
	chatID := msg.Chat.ID
	messageID := msg.ID

	action, ok := parseCallback(cb.Data)
	if !ok {
		h.logger.Warn().Str("data", cb.Data).Msg("Unknown callback data")
		return
	}

	var err error
	switch action.verb {
	case verbReportCancel:
		err = h.uc.HandleReportCancel(ctx, chatID, userID, messageID)
	case verbStats:
		err = h.uc.HandleStatsPeriod(ctx, chatID, messageID, action.arg)
	case verbSelect:
		err = h.uc.HandleSelect(ctx, chatID, action.url)
	case verbContent:
		err = h.uc.HandleContent(ctx, chatID, messageID, action.arg, action.url)
	case verbQuality:
		err = h.uc.HandleQuality(ctx, chatID, userID, username, action.arg, action.url)
	case verbAudio:
		err = h.uc.HandleAudio(ctx, chatID, userID, username, action.arg, action.url)
	}

	if err != nil {
		h.logError(userID, action.verb, err)
	}
}

func (h *Handlers) answerCallback(ctx context.Context, callbackID string) {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.AnswerCallbackQuery(msgCtx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to answer callback query")
	}
}

// inlineKeyboard converts domain button rows to the Telegram markup
func inlineKeyboard(rows [][]entities.Button) *models.InlineKeyboardMarkup {
	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         b.Text,
				CallbackData: b.Data,
			})
		}
		keyboard = append(keyboard, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

func (h *Handlers) handleSendMessageError(chatID int64, err error) error {
	errorMsg := err.Error()

	switch {
	case strings.Contains(errorMsg, "Forbidden"):
		h.logger.Warn().Int64("chat_id", chatID).Msg("User blocked the bot or chat not found")
		return fmt.Errorf("user blocked the bot or chat not found")

	case strings.Contains(errorMsg, "Bad Request: chat not found"):
		h.logger.Warn().Int64("chat_id", chatID).Msg("Chat not found")
		return fmt.Errorf("chat not found")

	case strings.Contains(errorMsg, "Too Many Requests"):
		h.logger.Warn().Int64("chat_id", chatID).Msg("Rate limit exceeded")
		return fmt.Errorf("rate limit exceeded, please try again later")

	default:
		h.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Failed to send message")
		return fmt.Errorf("failed to send message: %w", err)
	}
}

// logMessageSend logs message send result
func (h *Handlers) logMessageSend(chatID int64, length int, success bool, err error) {
	logEvent := h.logger.Debug()
	if !success {
		logEvent = h.logger.Error()
	}

	logEvent.Int64("chat_id", chatID).Int("message_length", length).Bool("success", success)

	if err != nil {
		logEvent.Err(err)
	}

	logEvent.Msg("Message send attempt completed")
}

// logMediaSend logs media upload result
func (h *Handlers) logMediaSend(chatID int64, mediaType string, success bool, err error) {
	logEvent := h.logger.Info()
	if !success {
		logEvent = h.logger.Error()
	}

	logEvent.Int64("chat_id", chatID).Str("media_type", mediaType).Bool("success", success)

	if err != nil {
		logEvent.Err(err)
	}

	logEvent.Msg("Media send attempt completed")
}

// logCommand logs command processing milestones
func (h *Handlers) logCommand(userID int64, command, result string) {
	h.logger.Info().Int64("user_id", userID).Str("command", command).Str("result", result).Msg("Telegram command processed")
}

// logError logs command errors
func (h *Handlers) logError(userID int64, command string, err error) {
	h.logger.Error().Int64("user_id", userID).Str("command", command).Err(err).Msg("Telegram command failed")
}
