package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komuzik/media-bot/internal/domain/bot/entities"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name string
		data string
		want callbackAction
		ok   bool
	}{
		{
			name: "report cancel",
			data: "report_cancel",
			want: callbackAction{verb: verbReportCancel},
			ok:   true,
		},
		{
			name: "stats period",
			data: "stats_month",
			want: callbackAction{verb: verbStats, arg: "month"},
			ok:   true,
		},
		{
			name: "select keeps full url",
			data: "select_https://www.youtube.com/watch?v=abc_def",
			want: callbackAction{verb: verbSelect, url: "https://www.youtube.com/watch?v=abc_def"},
			ok:   true,
		},
		{
			name: "content video",
			data: "content_video_https://youtu.be/abc",
			want: callbackAction{verb: verbContent, arg: "video", url: "https://youtu.be/abc"},
			ok:   true,
		},
		{
			name: "quality with underscored url",
			data: "quality_1080p_https://www.youtube.com/watch?v=a_b_c",
			want: callbackAction{verb: verbQuality, arg: "1080p", url: "https://www.youtube.com/watch?v=a_b_c"},
			ok:   true,
		},
		{
			name: "audio tier",
			data: "audio_medium_https://youtu.be/abc",
			want: callbackAction{verb: verbAudio, arg: "medium", url: "https://youtu.be/abc"},
			ok:   true,
		},
		{
			name: "quality without url",
			data: "quality_1080p_",
			ok:   false,
		},
		{
			name: "unknown verb",
			data: "mystery_payload",
			ok:   false,
		},
		{
			name: "empty data",
			data: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCallback(tt.data)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestInlineKeyboardConversion(t *testing.T) {
	markup := inlineKeyboard([][]entities.Button{
		{
			{Text: "1080p HD", Data: "quality_1080p_https://youtu.be/abc"},
			{Text: "720p HD", Data: "quality_720p_https://youtu.be/abc"},
		},
		{
			{Text: "480p", Data: "quality_480p_https://youtu.be/abc"},
		},
	})

	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "1080p HD", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "quality_1080p_https://youtu.be/abc", markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "quality_480p_https://youtu.be/abc", markup.InlineKeyboard[1][0].CallbackData)
}
