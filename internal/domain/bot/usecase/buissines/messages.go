package buissines

import (
	"fmt"
	"strings"

	"github.com/komuzik/media-bot/internal/domain/bot/entities"
)

// User-facing messages
const (
	msgStart = "👋 Привет! Я бот для скачивания видео и музыки с YouTube, TikTok и Instagram.\n\n" +
		"📺 YouTube: выбирайте качество видео и аудио\n" +
		"🎵 TikTok: автоматическая загрузка видео\n" +
		"📷 Instagram: видео и фото из постов\n\n" +
		"Просто отправьте мне ссылку на видео!\n\n" +
		"Для получения помощи используйте команду /help."

	msgHelp = "🔍 Как пользоваться ботом:\n\n" +
		"1. Отправьте мне ссылку на видео YouTube, TikTok или Instagram\n" +
		"2. Используйте /search для поиска видео на YouTube\n" +
		"3. Для YouTube: выберите тип контента (видео или аудио) и качество\n" +
		"4. Для TikTok и Instagram: загрузка начнётся автоматически\n" +
		"5. Дождитесь загрузки и получите файл\n\n" +
		"📌 Доступные команды:\n" +
		"/start - Запустить бота\n" +
		"/help - Показать справку\n" +
		"/search <запрос> - Поиск видео на YouTube\n" +
		"/stats - Показать статистику бота\n" +
		"/report - Сообщить о проблеме"

	msgInvalidLink      = "Пожалуйста, отправьте корректную ссылку на видео YouTube, TikTok или Instagram."
	msgSearchUsage      = "Пожалуйста, укажите поисковый запрос.\nПример: /search название песни"
	msgSearchNothing    = "Ничего не найдено. Попробуйте изменить запрос."
	msgSearchPick       = "Выберите видео из результатов поиска:"
	msgChooseContent    = "Выберите тип контента для загрузки:"
	msgChooseQuality    = "Выберите качество видео:"
	msgChooseAudio      = "Выберите качество аудио:"
	msgNoFormats        = "К сожалению, для этого видео нет доступных форматов. Попробуйте другое видео."
	msgLimitReached     = "⏳ Вы уже загружаете файл (%d/%d). Дождитесь завершения загрузки."
	msgProcessingVideo  = "Загрузка видео... Пожалуйста, подождите."
	msgProcessingAudio  = "Загрузка аудио... Пожалуйста, подождите."
	msgProcessingTikTok = "Загрузка TikTok видео... Пожалуйста, подождите."
	msgProcessingInsta  = "Загрузка из Instagram... Пожалуйста, подождите."
	msgDeliveryFailed   = "Произошла ошибка при отправке файла: %s"
	msgStatsChoose      = "📊 Выберите период статистики:"
	msgReportPrompt     = "✍️ Опишите проблему одним сообщением, и я передам его администраторам."
	msgReportCancelled  = "Отправка сообщения отменена."
	msgReportThanks     = "Спасибо! Ваше сообщение отправлено администраторам."
)

// formatSearching builds the transient search progress message
func formatSearching(query string) string {
	return fmt.Sprintf("🔍 Поиск: %s...", query)
}

// formatStats renders a statistics summary for one period
func formatStats(s *entities.StatsSummary) string {
	periodName := map[string]string{
		"day":   "за день",
		"month": "за месяц",
		"all":   "за всё время",
	}[s.Period]
	if periodName == "" {
		periodName = s.Period
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Статистика %s\n\n", periodName)
	fmt.Fprintf(&b, "👥 Пользователей: %d\n", s.TotalUsers)
	fmt.Fprintf(&b, "🔍 Поисков: %d\n", s.TotalSearches)
	fmt.Fprintf(&b, "🎬 Видео: %d\n", s.TotalVideos)
	fmt.Fprintf(&b, "🎵 Аудио: %d\n", s.TotalAudio)
	fmt.Fprintf(&b, "🎪 TikTok: %d\n", s.TotalTikToks)
	fmt.Fprintf(&b, "📦 Всего загрузок: %d (успешных %d, с ошибкой %d)\n", s.TotalDownloads, s.SuccessfulDownloads, s.FailedDownloads)
	fmt.Fprintf(&b, "⚠️ Ошибок: %d\n", s.ErrorCount)

	if len(s.PopularVideoFormats) > 0 {
		b.WriteString("\nПопулярные форматы видео:\n")
		for _, f := range s.PopularVideoFormats {
			fmt.Fprintf(&b, "• %s — %d\n", f.Format, f.Count)
		}
	}
	if len(s.PopularAudioFormats) > 0 {
		b.WriteString("\nПопулярные форматы аудио:\n")
		for _, f := range s.PopularAudioFormats {
			fmt.Fprintf(&b, "• %s — %d\n", f.Format, f.Count)
		}
	}

	return b.String()
}
