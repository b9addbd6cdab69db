package buissines

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komuzik/media-bot/config"
	"github.com/komuzik/media-bot/internal/domain/bot/dto"
	"github.com/komuzik/media-bot/internal/domain/bot/entities"
	boterrors "github.com/komuzik/media-bot/internal/domain/bot/errors"
	"github.com/komuzik/media-bot/internal/domain/bot/limiter"
)

// fakeSender records everything the use case sends
type fakeSender struct {
	mu        sync.Mutex
	messages  []string
	keyboards [][][]entities.Button
	edits     []string
	videos    []*entities.FetchResult
	audios    []*entities.FetchResult
	photos    []*entities.FetchResult
	deleted   []int
	nextID    int
	sendErr   error
}

func (f *fakeSender) SendMessage(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeSender) SendMessageAndGetID(_ context.Context, _ int64, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeSender) SendKeyboard(_ context.Context, _ int64, text string, rows [][]entities.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	f.keyboards = append(f.keyboards, rows)
	return nil
}

func (f *fakeSender) EditMessage(_ context.Context, _ int64, _ int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeSender) EditKeyboard(_ context.Context, _ int64, _ int, text string, rows [][]entities.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	f.keyboards = append(f.keyboards, rows)
	return nil
}

func (f *fakeSender) DeleteMessage(_ context.Context, _ int64, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSender) SendChatAction(_ context.Context, _ int64, _ string) error {
	return nil
}

func (f *fakeSender) SendVideo(_ context.Context, _ int64, r *entities.FetchResult, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.videos = append(f.videos, r)
	return nil
}

func (f *fakeSender) SendAudio(_ context.Context, _ int64, r *entities.FetchResult, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.audios = append(f.audios, r)
	return nil
}

func (f *fakeSender) SendPhoto(_ context.Context, _ int64, r *entities.FetchResult, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.photos = append(f.photos, r)
	return nil
}

func (f *fakeSender) lastMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

// fakeFetcher returns canned results and records invocations
type fakeFetcher struct {
	result    *entities.FetchResult
	err       error
	released  int
	calls     []string
	lastTier  string
	heights   []int
	searchRes []entities.SearchResult
}

func (f *fakeFetcher) ret(op, tier string) (*entities.FetchResult, func(), error) {
	f.calls = append(f.calls, op)
	f.lastTier = tier
	if f.err != nil {
		return nil, func() {}, f.err
	}
	return f.result, func() { f.released++ }, nil
}

func (f *fakeFetcher) FetchVideo(_ context.Context, _, quality string) (*entities.FetchResult, func(), error) {
	return f.ret("video", quality)
}

func (f *fakeFetcher) FetchAudio(_ context.Context, _, quality string) (*entities.FetchResult, func(), error) {
	return f.ret("audio", quality)
}

func (f *fakeFetcher) FetchTikTok(_ context.Context, _ string) (*entities.FetchResult, func(), error) {
	return f.ret("tiktok", "")
}

func (f *fakeFetcher) FetchInstagram(_ context.Context, _ string) (*entities.FetchResult, func(), error) {
	return f.ret("instagram", "")
}

func (f *fakeFetcher) Search(_ context.Context, _ string) ([]entities.SearchResult, error) {
	return f.searchRes, nil
}

func (f *fakeFetcher) AvailableHeights(_ context.Context, _ string) []int {
	return f.heights
}

// fakeStats records tracked events
type fakeStats struct {
	mu     sync.Mutex
	events []entities.Statistic
	report *entities.Report
}

func (f *fakeStats) add(s entities.Statistic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, s)
	return nil
}

func (f *fakeStats) TrackUser(_ context.Context, _ int64, _ string) error { return nil }

func (f *fakeStats) TrackSearch(_ context.Context, userID int64, username string) error {
	return f.add(entities.Statistic{EventType: "search", UserID: userID, Username: username, Success: true})
}

func (f *fakeStats) TrackVideoDownload(_ context.Context, userID int64, format, platform, username string, success bool, errMsg string) error {
	return f.add(entities.Statistic{EventType: "video_download", UserID: userID, VideoFormat: format, Platform: platform, Username: username, Success: success, ErrorMessage: errMsg})
}

func (f *fakeStats) TrackAudioDownload(_ context.Context, userID int64, quality, username string, success bool, errMsg string) error {
	return f.add(entities.Statistic{EventType: "audio_download", UserID: userID, VideoFormat: quality, Username: username, Success: success, ErrorMessage: errMsg})
}

func (f *fakeStats) TrackTikTokDownload(_ context.Context, userID int64, username string, success bool, errMsg string) error {
	return f.add(entities.Statistic{EventType: "tiktok_download", UserID: userID, Username: username, Success: success, ErrorMessage: errMsg})
}

func (f *fakeStats) SaveReport(_ context.Context, userID int64, username, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.report = &entities.Report{UserID: userID, Username: username, Text: text}
	return nil
}

func (f *fakeStats) GetAllUsers(_ context.Context) ([]entities.User, error) { return nil, nil }

func (f *fakeStats) GetStatistics(_ context.Context, period string) (*entities.StatsSummary, error) {
	return &entities.StatsSummary{Period: period, TotalUsers: 7}, nil
}

func (f *fakeStats) downloadEvents() []entities.Statistic {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Statistic
	for _, e := range f.events {
		if e.EventType != "search" {
			out = append(out, e)
		}
	}
	return out
}

// fakeProducer records published stream events
type fakeProducer struct {
	mu      sync.Mutex
	events  []*dto.DownloadEvent
	reports []*dto.UserReportEvent
}

func (f *fakeProducer) SendDownloadEvent(_ context.Context, e *dto.DownloadEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeProducer) SendUserReport(_ context.Context, e *dto.UserReportEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, e)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

type ucFixture struct {
	uc       *UseCase
	sender   *fakeSender
	fetcher  *fakeFetcher
	stats    *fakeStats
	producer *fakeProducer
}

func newFixture() *ucFixture {
	sender := &fakeSender{}
	fetcher := &fakeFetcher{
		result:  &entities.FetchResult{FilePath: "/tmp/x/clip.mp4", Kind: entities.KindVideo},
		heights: []int{1080, 720},
	}
	stats := &fakeStats{}
	producer := &fakeProducer{}

	downloads := &config.DownloadsConfig{
		MaxPerUser:      1,
		PrivilegedIDs:   []int64{99},
		SearchResults:   5,
		FallbackHeights: []int{1080, 720, 480, 360, 240},
		Audio: config.AudioConfig{Format: "mp3", Bitrate: "192", Qualities: map[string]string{
			"high": "bestaudio/best", "medium": "m", "low": "l",
		}},
	}
	platforms := &config.PlatformsConfig{
		YouTube:   config.PlatformConfig{RetryAttempts: 1, BackoffBase: 2, ErrorMessage: "Не удалось загрузить контент с YouTube. Попробуйте позже"},
		TikTok:    config.PlatformConfig{RetryAttempts: 3, BackoffBase: 2, ErrorMessage: "Не удалось загрузить видео из TikTok. Попробуйте позже"},
		Instagram: config.PlatformConfig{RetryAttempts: 3, BackoffBase: 2, ErrorMessage: "Не удалось загрузить контент из Instagram. Попробуйте позже"},
	}

	uc := NewUseCase(
		limiter.New(1, downloads.PrivilegedIDs, zerolog.Nop()),
		fetcher, stats, producer,
		downloads, platforms,
		&config.TelegramConfig{BotUsername: "mediabot"},
		zerolog.Nop(),
	)
	uc.SetSender(sender)
	// Run downloads synchronously so tests can assert right away
	uc.launch = func(fn func()) { fn() }

	return &ucFixture{uc: uc, sender: sender, fetcher: fetcher, stats: stats, producer: producer}
}

const ytURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestAudioSelectionFlow(t *testing.T) {
	f := newFixture()
	f.fetcher.result = &entities.FetchResult{FilePath: "/tmp/x/track.mp3", Kind: entities.KindAudio}
	ctx := context.Background()

	// Link received: content type buttons appear
	require.NoError(t, f.uc.HandleFreeText(ctx, 10, 1, "alice", ytURL))
	require.Len(t, f.sender.keyboards, 1)
	assert.Equal(t, msgChooseContent, f.sender.lastMessage())

	// Audio picked: three tier buttons
	require.NoError(t, f.uc.HandleContent(ctx, 10, 1, "audio", ytURL))
	require.Len(t, f.sender.keyboards, 2)
	tiers := f.sender.keyboards[1]
	assert.Len(t, tiers, 2)
	assert.Contains(t, tiers[0][1].Data, "audio_medium_")

	// Medium picked: fetch, deliver, record
	require.NoError(t, f.uc.HandleAudio(ctx, 10, 1, "alice", "medium", ytURL))

	assert.Equal(t, []string{"audio"}, f.fetcher.calls)
	assert.Equal(t, "medium", f.fetcher.lastTier)
	assert.Len(t, f.sender.audios, 1)
	assert.Equal(t, 1, f.fetcher.released)

	events := f.stats.downloadEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "audio_download", events[0].EventType)
	assert.Equal(t, "medium", events[0].VideoFormat)
	assert.True(t, events[0].Success)

	require.Len(t, f.producer.events, 1)
	assert.Equal(t, "audio_download", f.producer.events[0].EventType)
}

func TestQuotaRejection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// First download never finishes, slot stays held
	f.uc.launch = func(fn func()) {}
	require.NoError(t, f.uc.HandleQuality(ctx, 10, 1, "alice", "720p", ytURL))

	f.uc.launch = func(fn func()) { fn() }
	require.NoError(t, f.uc.HandleQuality(ctx, 10, 1, "alice", "720p", ytURL))

	assert.Contains(t, f.sender.lastMessage(), "1/1")
	assert.Empty(t, f.fetcher.calls)
	assert.Empty(t, f.stats.downloadEvents())
	assert.Empty(t, f.producer.events)
}

func TestPrivilegedUserBypassesQuota(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.uc.launch = func(fn func()) {}
	for i := 0; i < 5; i++ {
		require.NoError(t, f.uc.HandleQuality(ctx, 10, 99, "admin", "720p", ytURL))
	}
	assert.NotContains(t, f.sender.lastMessage(), "/1")
}

func TestTikTokURLRoutesDirectly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.uc.HandleFreeText(ctx, 10, 1, "alice", "смотри https://vm.tiktok.com/ZM8abc/"))

	assert.Equal(t, []string{"tiktok"}, f.fetcher.calls)
	assert.Len(t, f.sender.videos, 1)

	events := f.stats.downloadEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "tiktok_download", events[0].EventType)
	assert.True(t, events[0].Success)
}

func TestInstagramPhotoFallbackScenario(t *testing.T) {
	f := newFixture()
	f.fetcher.result = &entities.FetchResult{FilePath: "/tmp/x/photo.jpg", Kind: entities.KindPhoto}
	ctx := context.Background()

	require.NoError(t, f.uc.HandleFreeText(ctx, 10, 1, "alice", "https://instagram.com/p/Cabc_def/"))

	assert.Equal(t, []string{"instagram"}, f.fetcher.calls)
	assert.Len(t, f.sender.photos, 1)

	events := f.stats.downloadEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "photo", events[0].VideoFormat)
	assert.Equal(t, "instagram", events[0].Platform)
	assert.True(t, events[0].Success)
}

func TestYouTubeShortsSkipsQualitySelection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.uc.HandleFreeText(ctx, 10, 1, "alice", "https://youtube.com/shorts/dQw4w9WgXcQ"))

	assert.Equal(t, []string{"video"}, f.fetcher.calls)
	assert.Equal(t, "best", f.fetcher.lastTier)
	assert.Empty(t, f.sender.keyboards)
}

func TestInvalidLinkMessage(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.uc.HandleFreeText(context.Background(), 10, 1, "alice", "просто текст"))

	assert.Equal(t, msgInvalidLink, f.sender.lastMessage())
	assert.Empty(t, f.fetcher.calls)
}

func TestTransientFailureShowsTemplateOnly(t *testing.T) {
	f := newFixture()
	f.fetcher.err = boterrors.Classify(fmt.Errorf("yt-dlp failed: unable to extract"))
	ctx := context.Background()

	require.NoError(t, f.uc.HandleFreeText(ctx, 10, 1, "alice", "https://vm.tiktok.com/ZM8abc/"))

	last := f.sender.lastMessage()
	assert.Equal(t, "Не удалось загрузить видео из TikTok. Попробуйте позже", last)
	assert.NotContains(t, last, "unable to extract")

	events := f.stats.downloadEvents()
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
}

func TestTerminalFailureAppendsRawError(t *testing.T) {
	f := newFixture()
	f.fetcher.err = boterrors.Classify(fmt.Errorf("yt-dlp failed: private video"))
	ctx := context.Background()

	require.NoError(t, f.uc.HandleQuality(ctx, 10, 1, "alice", "720p", ytURL))

	last := f.sender.lastMessage()
	assert.True(t, strings.HasPrefix(last, "Не удалось загрузить контент с YouTube"))
	assert.Contains(t, last, "private video")
}

func TestDeliveryFailureStillReleasesAndRecords(t *testing.T) {
	f := newFixture()
	f.sender.sendErr = fmt.Errorf("request entity too large")
	ctx := context.Background()

	require.NoError(t, f.uc.HandleQuality(ctx, 10, 1, "alice", "720p", ytURL))

	assert.Equal(t, 1, f.fetcher.released)
	events := f.stats.downloadEvents()
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Contains(t, events[0].ErrorMessage, "delivery")
	assert.Contains(t, f.sender.lastMessage(), "request entity too large")
}

func TestSlotReleasedAfterDownload(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.uc.HandleQuality(ctx, 10, 1, "alice", "720p", ytURL))
	require.NoError(t, f.uc.HandleQuality(ctx, 10, 1, "alice", "720p", ytURL))

	assert.Equal(t, []string{"video", "video"}, f.fetcher.calls)
}

func TestSearchFlow(t *testing.T) {
	f := newFixture()
	f.fetcher.searchRes = []entities.SearchResult{
		{ID: "abc", Title: "First Result", URL: "https://www.youtube.com/watch?v=abc", Duration: 125, Channel: "Ch"},
	}
	ctx := context.Background()

	require.NoError(t, f.uc.HandleSearch(ctx, 10, 1, "alice", "some song"))

	require.Len(t, f.sender.keyboards, 1)
	row := f.sender.keyboards[0][0]
	assert.Contains(t, row[0].Text, "First Result")
	assert.Contains(t, row[0].Text, "(2:05)")
	assert.Equal(t, "select_https://www.youtube.com/watch?v=abc", row[0].Data)

	require.Len(t, f.stats.events, 1)
	assert.Equal(t, "search", f.stats.events[0].EventType)
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.uc.HandleSearch(context.Background(), 10, 1, "alice", "   "))

	assert.Equal(t, msgSearchUsage, f.sender.lastMessage())
	assert.Empty(t, f.stats.events)
}

func TestContentVideoShowsQualityKeyboard(t *testing.T) {
	f := newFixture()
	f.fetcher.heights = []int{2160, 1440, 720, 360}

	require.NoError(t, f.uc.HandleContent(context.Background(), 10, 1, "video", ytURL))

	require.Len(t, f.sender.keyboards, 1)
	rows := f.sender.keyboards[0]
	require.Len(t, rows, 2)
	assert.Equal(t, "2160p 4K", rows[0][0].Text)
	assert.Equal(t, "1440p 2K", rows[0][1].Text)
	assert.Equal(t, "720p HD", rows[1][0].Text)
	assert.Equal(t, "360p", rows[1][1].Text)
	assert.Equal(t, "quality_2160p_"+ytURL, rows[0][0].Data)
}

func TestReportCaptureFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.uc.HandleReport(ctx, 10, 1, "alice"))
	assert.True(t, f.uc.isReporting(1))

	// Commands other than cancel leave the capture untouched
	require.NoError(t, f.uc.HandleFreeText(ctx, 10, 1, "alice", "/stats"))
	assert.True(t, f.uc.isReporting(1))

	require.NoError(t, f.uc.HandleFreeText(ctx, 10, 1, "alice", "бот не скачивает видео"))
	assert.False(t, f.uc.isReporting(1))

	require.NotNil(t, f.stats.report)
	assert.Equal(t, "бот не скачивает видео", f.stats.report.Text)
	require.Len(t, f.producer.reports, 1)

	// Forwarded to the privileged user, then confirmed to the sender
	joined := strings.Join(f.sender.messages, "\n")
	assert.Contains(t, joined, "бот не скачивает видео")
	assert.Equal(t, msgReportThanks, f.sender.lastMessage())

	// Capture resolved: URLs route normally again
	require.NoError(t, f.uc.HandleFreeText(ctx, 10, 1, "alice", "https://vm.tiktok.com/ZM8abc/"))
	assert.Equal(t, []string{"tiktok"}, f.fetcher.calls)
}

func TestReportCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.uc.HandleReport(ctx, 10, 1, "alice"))
	require.NoError(t, f.uc.HandleReportCancel(ctx, 10, 1, 5))

	assert.False(t, f.uc.isReporting(1))
	assert.Nil(t, f.stats.report)
}

func TestStatsPeriodCallback(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.uc.HandleStatsPeriod(context.Background(), 10, 3, "day"))

	require.Len(t, f.sender.edits, 1)
	assert.Contains(t, f.sender.edits[0], "за день")
	assert.Contains(t, f.sender.edits[0], "7")
}
