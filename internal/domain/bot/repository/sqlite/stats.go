// Package sqlite implements statistics persistence on the local database
package sqlite

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/komuzik/media-bot/internal/domain/bot/consts"
	"github.com/komuzik/media-bot/internal/domain/bot/deps"
	"github.com/komuzik/media-bot/internal/domain/bot/entities"
)

// Event types written to the statistics table
const (
	eventSearch         = "search"
	eventVideoDownload  = "video_download"
	eventAudioDownload  = "audio_download"
	eventTikTokDownload = "tiktok_download"
)

var downloadEventTypes = []string{eventVideoDownload, eventAudioDownload, eventTikTokDownload}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new statistics repository
func NewStatsRepository(db *gorm.DB) deps.StatsRepository {
	return &statsRepository{db: db}
}

// TrackUser records first or latest activity of a user
func (r *statsRepository) TrackUser(ctx context.Context, userID int64, username string) error {
	user := entities.User{UserID: userID, Username: username, LastSeen: time.Now()}

	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Assign(map[string]interface{}{
			"username":  username,
			"last_seen": time.Now(),
		}).
		FirstOrCreate(&user).Error
}

// TrackSearch records a search event
func (r *statsRepository) TrackSearch(ctx context.Context, userID int64, username string) error {
	return r.track(ctx, &entities.Statistic{
		EventType: eventSearch,
		UserID:    userID,
		Username:  username,
		Success:   true,
	})
}

// TrackVideoDownload records a video download outcome
func (r *statsRepository) TrackVideoDownload(ctx context.Context, userID int64, format, platform, username string, success bool, errMsg string) error {
	return r.track(ctx, &entities.Statistic{
		EventType:    eventVideoDownload,
		UserID:       userID,
		Username:     username,
		VideoFormat:  format,
		Platform:     platform,
		Success:      success,
		ErrorMessage: errMsg,
	})
}

// TrackAudioDownload records an audio download outcome
func (r *statsRepository) TrackAudioDownload(ctx context.Context, userID int64, quality, username string, success bool, errMsg string) error {
	return r.track(ctx, &entities.Statistic{
		EventType:    eventAudioDownload,
		UserID:       userID,
		Username:     username,
		VideoFormat:  quality,
		Platform:     consts.PlatformYouTube,
		Success:      success,
		ErrorMessage: errMsg,
	})
}

// TrackTikTokDownload records a TikTok download outcome
func (r *statsRepository) TrackTikTokDownload(ctx context.Context, userID int64, username string, success bool, errMsg string) error {
	return r.track(ctx, &entities.Statistic{
		EventType:    eventTikTokDownload,
		UserID:       userID,
		Username:     username,
		Platform:     consts.PlatformTikTok,
		Success:      success,
		ErrorMessage: errMsg,
	})
}

// SaveReport persists a user problem report
func (r *statsRepository) SaveReport(ctx context.Context, userID int64, username, text string) error {
	return r.db.WithContext(ctx).Create(&entities.Report{
		UserID:   userID,
		Username: username,
		Text:     text,
	}).Error
}

// GetAllUsers returns every tracked user
func (r *statsRepository) GetAllUsers(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetStatistics aggregates usage statistics for a period
func (r *statsRepository) GetStatistics(ctx context.Context, period string) (*entities.StatsSummary, error) {
	since, bounded := periodStart(period)

	summary := &entities.StatsSummary{Period: period}

	var err error
	if summary.TotalUsers, err = r.userCount(ctx, since, bounded); err != nil {
		return nil, err
	}
	if summary.TotalSearches, err = r.eventCount(ctx, eventSearch, since, bounded); err != nil {
		return nil, err
	}
	if summary.TotalVideos, err = r.eventCount(ctx, eventVideoDownload, since, bounded); err != nil {
		return nil, err
	}
	if summary.TotalAudio, err = r.eventCount(ctx, eventAudioDownload, since, bounded); err != nil {
		return nil, err
	}
	if summary.TotalTikToks, err = r.eventCount(ctx, eventTikTokDownload, since, bounded); err != nil {
		return nil, err
	}

	downloads := r.scoped(ctx, since, bounded).Where("event_type IN ?", downloadEventTypes)
	if err = downloads.Count(&summary.TotalDownloads).Error; err != nil {
		return nil, err
	}

	ok := r.scoped(ctx, since, bounded).
		Where("event_type IN ?", downloadEventTypes).
		Where("success = ?", true)
	if err = ok.Count(&summary.SuccessfulDownloads).Error; err != nil {
		return nil, err
	}
	summary.FailedDownloads = summary.TotalDownloads - summary.SuccessfulDownloads

	failures := r.scoped(ctx, since, bounded).Where("success = ?", false)
	if err = failures.Count(&summary.ErrorCount).Error; err != nil {
		return nil, err
	}

	if summary.PopularVideoFormats, err = r.popularFormats(ctx, eventVideoDownload, since, bounded); err != nil {
		return nil, err
	}
	if summary.PopularAudioFormats, err = r.popularFormats(ctx, eventAudioDownload, since, bounded); err != nil {
		return nil, err
	}

	return summary, nil
}

func (r *statsRepository) track(ctx context.Context, stat *entities.Statistic) error {
	return r.db.WithContext(ctx).Create(stat).Error
}

func (r *statsRepository) scoped(ctx context.Context, since time.Time, bounded bool) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entities.Statistic{})
	if bounded {
		q = q.Where("timestamp >= ?", since)
	}
	return q
}

func (r *statsRepository) userCount(ctx context.Context, since time.Time, bounded bool) (int64, error) {
	var count int64
	if bounded {
		// Users active in the period, not all registered users
		err := r.scoped(ctx, since, bounded).
			Distinct("user_id").
			Count(&count).Error
		return count, err
	}
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

func (r *statsRepository) eventCount(ctx context.Context, eventType string, since time.Time, bounded bool) (int64, error) {
	var count int64
	err := r.scoped(ctx, since, bounded).
		Where("event_type = ?", eventType).
		Count(&count).Error
	return count, err
}

func (r *statsRepository) popularFormats(ctx context.Context, eventType string, since time.Time, bounded bool) ([]entities.FormatCount, error) {
	var rows []entities.FormatCount
	err := r.scoped(ctx, since, bounded).
		Select("video_format as format, COUNT(*) as count").
		Where("event_type = ? AND video_format <> ''", eventType).
		Group("video_format").
		Order("count DESC").
		Limit(5).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// periodStart maps a period marker to its lower time bound. The "all"
// period is unbounded.
func periodStart(period string) (time.Time, bool) {
	now := time.Now()
	switch period {
	case consts.PeriodDay:
		return now.AddDate(0, 0, -1), true
	case consts.PeriodMonth:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}
