package buissines

import (
	"fmt"

	"github.com/komuzik/media-bot/internal/domain/bot/consts"
	"github.com/komuzik/media-bot/internal/domain/bot/entities"
)

// contentTypeRows builds the video/audio choice keyboard for a URL
func contentTypeRows(url string) [][]entities.Button {
	return [][]entities.Button{{
		{Text: "🎬 Видео", Data: consts.CallbackContent + consts.ContentVideo + "_" + url},
		{Text: "🎵 Аудио", Data: consts.CallbackContent + consts.ContentAudio + "_" + url},
	}}
}

// qualityLabel renders a height as a quality tier label
func qualityLabel(height int) string {
	switch {
	case height >= 2160:
		return fmt.Sprintf("%dp 4K", height)
	case height >= 1440:
		return fmt.Sprintf("%dp 2K", height)
	case height >= 720:
		return fmt.Sprintf("%dp HD", height)
	default:
		return fmt.Sprintf("%dp", height)
	}
}

// qualityRows builds the video quality keyboard, two buttons per row
func qualityRows(heights []int, url string) [][]entities.Button {
	var rows [][]entities.Button
	var row []entities.Button

	for _, h := range heights {
		row = append(row, entities.Button{
			Text: qualityLabel(h),
			Data: fmt.Sprintf("%s%dp_%s", consts.CallbackQuality, h, url),
		})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

// audioQualityRows builds the fixed three-tier audio keyboard
func audioQualityRows(url string) [][]entities.Button {
	return [][]entities.Button{
		{
			{Text: "Высокое качество", Data: consts.CallbackAudio + "high_" + url},
			{Text: "Среднее качество", Data: consts.CallbackAudio + "medium_" + url},
		},
		{
			{Text: "Низкое качество", Data: consts.CallbackAudio + "low_" + url},
		},
	}
}

// searchRows builds one button per search result
func searchRows(results []entities.SearchResult) [][]entities.Button {
	rows := make([][]entities.Button, 0, len(results))
	for i, r := range results {
		title := r.Title
		if len([]rune(title)) > 50 {
			title = string([]rune(title)[:50]) + "..."
		}
		text := fmt.Sprintf("%d. %s (%d:%02d)", i+1, title, r.Duration/60, r.Duration%60)
		rows = append(rows, []entities.Button{
			{Text: text, Data: consts.CallbackSelect + r.URL},
		})
	}
	return rows
}

// statsPeriodRows builds the statistics period keyboard
func statsPeriodRows() [][]entities.Button {
	return [][]entities.Button{
		{
			{Text: "За день", Data: consts.CallbackStats + consts.PeriodDay},
			{Text: "За месяц", Data: consts.CallbackStats + consts.PeriodMonth},
		},
		{
			{Text: "За всё время", Data: consts.CallbackStats + consts.PeriodAll},
		},
	}
}

// reportCancelRows builds the cancel affordance for report capture
func reportCancelRows() [][]entities.Button {
	return [][]entities.Button{{
		{Text: "Отмена", Data: consts.CallbackReportCancel},
	}}
}
