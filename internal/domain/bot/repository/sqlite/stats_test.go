package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/komuzik/media-bot/internal/domain/bot/consts"
	"github.com/komuzik/media-bot/internal/domain/bot/entities"
)

func newTestRepo(t *testing.T) *statsRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.Statistic{}, &entities.Report{}))

	return &statsRepository{db: db}
}

func TestTrackUserUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.TrackUser(ctx, 1, "alice"))
	require.NoError(t, repo.TrackUser(ctx, 1, "alice_renamed"))
	require.NoError(t, repo.TrackUser(ctx, 2, "bob"))

	users, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	var alice entities.User
	require.NoError(t, repo.db.Where("user_id = ?", 1).First(&alice).Error)
	assert.Equal(t, "alice_renamed", alice.Username)
}

func TestGetStatisticsCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.TrackUser(ctx, 1, "alice"))
	require.NoError(t, repo.TrackSearch(ctx, 1, "alice"))
	require.NoError(t, repo.TrackVideoDownload(ctx, 1, "720p", consts.PlatformYouTube, "alice", true, ""))
	require.NoError(t, repo.TrackVideoDownload(ctx, 1, "720p", consts.PlatformYouTube, "alice", true, ""))
	require.NoError(t, repo.TrackVideoDownload(ctx, 1, "1080p", consts.PlatformYouTube, "alice", false, "boom"))
	require.NoError(t, repo.TrackAudioDownload(ctx, 1, "medium", "alice", true, ""))
	require.NoError(t, repo.TrackTikTokDownload(ctx, 1, "alice", true, ""))

	stats, err := repo.GetStatistics(ctx, consts.PeriodAll)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalSearches)
	assert.Equal(t, int64(3), stats.TotalVideos)
	assert.Equal(t, int64(1), stats.TotalAudio)
	assert.Equal(t, int64(1), stats.TotalTikToks)
	assert.Equal(t, int64(5), stats.TotalDownloads)
	assert.Equal(t, int64(4), stats.SuccessfulDownloads)
	assert.Equal(t, int64(1), stats.FailedDownloads)
	assert.Equal(t, int64(1), stats.ErrorCount)

	require.NotEmpty(t, stats.PopularVideoFormats)
	assert.Equal(t, "720p", stats.PopularVideoFormats[0].Format)
	assert.Equal(t, int64(2), stats.PopularVideoFormats[0].Count)
}

func TestGetStatisticsDayPeriodExcludesNothingFresh(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.TrackVideoDownload(ctx, 1, "720p", consts.PlatformYouTube, "alice", true, ""))

	stats, err := repo.GetStatistics(ctx, consts.PeriodDay)
	require.NoError(t, err)

	// Freshly written events fall inside the day window
	assert.Equal(t, int64(1), stats.TotalVideos)
	assert.Equal(t, int64(1), stats.TotalUsers)
}

func TestSaveReport(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveReport(ctx, 1, "alice", "the bot ate my video"))

	var report entities.Report
	require.NoError(t, repo.db.First(&report).Error)
	assert.Equal(t, int64(1), report.UserID)
	assert.Equal(t, "the bot ate my video", report.Text)
}
