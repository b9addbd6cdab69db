// Package downloader implements the media fetch operations: workspace
// lifecycle, retry policy and the bindings to the extraction tools
package downloader

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/komuzik/media-bot/config"
	"github.com/komuzik/media-bot/internal/domain/bot/entities"
	boterrors "github.com/komuzik/media-bot/internal/domain/bot/errors"
	"github.com/komuzik/media-bot/internal/infrastructure/ytdlp"
)

// extractor is the part of the yt-dlp client the service uses
type extractor interface {
	Probe(ctx context.Context, url string) (*ytdlp.Info, error)
	Download(ctx context.Context, url, dir string, opts ytdlp.DownloadOptions) error
	Search(ctx context.Context, query string, limit int) ([]ytdlp.SearchItem, error)
}

// galleryExtractor is the photo-capable fallback tool
type galleryExtractor interface {
	Download(ctx context.Context, url, dir string) error
}

// Service implements deps.MediaFetcher on top of the external
// extraction tools
type Service struct {
	yt        extractor
	gallery   galleryExtractor
	downloads *config.DownloadsConfig
	platforms *config.PlatformsConfig
	logger    zerolog.Logger

	// timer overrides backoff sleeps in tests; nil means real sleeps
	timer backoff.Timer
}

// NewService creates the media fetch service
func NewService(
	yt extractor,
	gallery galleryExtractor,
	downloads *config.DownloadsConfig,
	platforms *config.PlatformsConfig,
	logger zerolog.Logger,
) *Service {
	return &Service{
		yt:        yt,
		gallery:   gallery,
		downloads: downloads,
		platforms: platforms,
		logger:    logger,
	}
}

// noopRelease is returned with error results so callers can always
// defer the release function
func noopRelease() {}

// FetchVideo downloads a YouTube video at the requested quality tier
func (s *Service) FetchVideo(ctx context.Context, url, quality string) (*entities.FetchResult, func(), error) {
	cfg := s.platforms.YouTube
	retrier := NewRetrier(cfg.RetryAttempts, cfg.BackoffBase).WithTimer(s.timer)

	var result *entities.FetchResult
	var release func()

	err := retrier.Do(ctx, func() error {
		res, rel, attemptErr := s.videoAttempt(ctx, url, quality)
		if attemptErr != nil {
			return attemptErr
		}
		result, release = res, rel
		return nil
	})
	if err != nil {
		return nil, noopRelease, err
	}
	return result, release, nil
}

func (s *Service) videoAttempt(ctx context.Context, url, quality string) (*entities.FetchResult, func(), error) {
	info, err := s.yt.Probe(ctx, url)
	if err != nil {
		return nil, nil, boterrors.Classify(err)
	}

	ws, err := NewWorkspace()
	if err != nil {
		return nil, nil, err
	}

	opts := ytdlp.DownloadOptions{Format: buildVideoFormat(quality)}
	if err := s.yt.Download(ctx, url, ws.Dir(), opts); err != nil {
		ws.Release()
		return nil, nil, boterrors.Classify(err)
	}

	path, err := ResolveFile(ws.Dir(), info.Ext, false)
	if err != nil {
		ws.Release()
		return nil, nil, err
	}

	return &entities.FetchResult{
		FilePath: path,
		Kind:     entities.KindVideo,
		Duration: int(info.Duration),
		Width:    info.Width,
		Height:   info.Height,
		Title:    info.Title,
	}, ws.Release, nil
}

// FetchAudio extracts audio from a YouTube video, transcodes it to the
// configured format and embeds metadata and thumbnail
func (s *Service) FetchAudio(ctx context.Context, url, quality string) (*entities.FetchResult, func(), error) {
	cfg := s.platforms.YouTube
	retrier := NewRetrier(cfg.RetryAttempts, cfg.BackoffBase).WithTimer(s.timer)

	var result *entities.FetchResult
	var release func()

	err := retrier.Do(ctx, func() error {
		res, rel, attemptErr := s.audioAttempt(ctx, url, quality)
		if attemptErr != nil {
			return attemptErr
		}
		result, release = res, rel
		return nil
	})
	if err != nil {
		return nil, noopRelease, err
	}
	return result, release, nil
}

func (s *Service) audioAttempt(ctx context.Context, url, quality string) (*entities.FetchResult, func(), error) {
	info, err := s.yt.Probe(ctx, url)
	if err != nil {
		return nil, nil, boterrors.Classify(err)
	}

	artist, track := extractAudioMetadata(info)

	format, ok := s.downloads.Audio.Qualities[quality]
	if !ok {
		format = s.downloads.Audio.Qualities["high"]
	}

	ws, err := NewWorkspace()
	if err != nil {
		return nil, nil, err
	}

	opts := ytdlp.DownloadOptions{
		Format:        format,
		ExtractAudio:  true,
		AudioFormat:   s.downloads.Audio.Format,
		AudioBitrate:  s.downloads.Audio.Bitrate,
		EmbedMetadata: true,
		Artist:        artist,
		Track:         track,
	}
	if err := s.yt.Download(ctx, url, ws.Dir(), opts); err != nil {
		ws.Release()
		return nil, nil, boterrors.Classify(err)
	}

	path, err := ResolveFile(ws.Dir(), s.downloads.Audio.Format, false)
	if err != nil {
		ws.Release()
		return nil, nil, err
	}

	return &entities.FetchResult{
		FilePath: path,
		Kind:     entities.KindAudio,
		Duration: int(info.Duration),
		Title:    info.Title,
		Artist:   artist,
		Track:    track,
	}, ws.Release, nil
}

// FetchTikTok downloads a TikTok video at best quality. The extractor
// is flaky, so the whole attempt is retried per platform settings.
func (s *Service) FetchTikTok(ctx context.Context, url string) (*entities.FetchResult, func(), error) {
	cfg := s.platforms.TikTok
	retrier := NewRetrier(cfg.RetryAttempts, cfg.BackoffBase).WithTimer(s.timer)

	var result *entities.FetchResult
	var release func()

	err := retrier.Do(ctx, func() error {
		res, rel, attemptErr := s.videoAttempt(ctx, url, "")
		if attemptErr != nil {
			return attemptErr
		}
		result, release = res, rel
		return nil
	})
	if err != nil {
		return nil, noopRelease, err
	}
	return result, release, nil
}

// FetchInstagram downloads an Instagram post. When the post holds no
// video, the photo-capable tool is tried instead, at most once for the
// whole operation.
func (s *Service) FetchInstagram(ctx context.Context, url string) (*entities.FetchResult, func(), error) {
	cfg := s.platforms.Instagram
	retrier := NewRetrier(cfg.RetryAttempts, cfg.BackoffBase).WithTimer(s.timer)

	var result *entities.FetchResult
	var release func()
	usedFallback := false

	err := retrier.Do(ctx, func() error {
		res, rel, attemptErr := s.instagramAttempt(ctx, url, &usedFallback)
		if attemptErr != nil {
			return attemptErr
		}
		result, release = res, rel
		return nil
	})
	if err != nil {
		return nil, noopRelease, err
	}
	return result, release, nil
}

func (s *Service) instagramAttempt(ctx context.Context, url string, usedFallback *bool) (*entities.FetchResult, func(), error) {
	ws, err := NewWorkspace()
	if err != nil {
		return nil, nil, err
	}

	dlErr := s.yt.Download(ctx, url, ws.Dir(), ytdlp.DownloadOptions{Format: "best"})
	if dlErr == nil {
		path, resolveErr := ResolveFile(ws.Dir(), "", false)
		if resolveErr == nil {
			res := &entities.FetchResult{FilePath: path, Kind: entities.KindVideo}
			if info, probeErr := s.yt.Probe(ctx, url); probeErr == nil {
				res.Duration = int(info.Duration)
				res.Width = info.Width
				res.Height = info.Height
				res.Title = info.Title
			}
			return res, ws.Release, nil
		}
		dlErr = resolveErr
	} else {
		dlErr = boterrors.Classify(dlErr)
	}

	// A post without video falls back to the photo tool, once per
	// operation even across retries.
	if (boterrors.IsPhotoOnly(dlErr) || boterrors.IsEmpty(dlErr)) && !*usedFallback {
		*usedFallback = true
		s.logger.Info().Str("url", url).Msg("Falling back to photo extraction")

		if galleryErr := s.gallery.Download(ctx, url, ws.Dir()); galleryErr != nil {
			ws.Release()
			return nil, nil, &boterrors.FetchError{
				Kind: boterrors.KindTerminal,
				Msg:  galleryErr.Error(),
			}
		}

		path, resolveErr := ResolveFile(ws.Dir(), "", true)
		if resolveErr != nil {
			ws.Release()
			return nil, nil, resolveErr
		}
		return &entities.FetchResult{FilePath: path, Kind: entities.KindPhoto}, ws.Release, nil
	}

	ws.Release()
	return nil, nil, dlErr
}

// Search returns up to the configured number of search results in
// extractor order
func (s *Service) Search(ctx context.Context, query string) ([]entities.SearchResult, error) {
	items, err := s.yt.Search(ctx, query, s.downloads.SearchResults)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]entities.SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, entities.SearchResult{
			ID:       item.ID,
			Title:    item.Title,
			URL:      item.URL(),
			Duration: item.Duration,
			Channel:  item.Uploader,
		})
	}
	return results, nil
}

// AvailableHeights probes distinct selectable video heights sorted
// descending. Quality selection must never end up with zero options,
// so probe failures and empty format lists yield the fallback ladder.
func (s *Service) AvailableHeights(ctx context.Context, url string) []int {
	info, err := s.yt.Probe(ctx, url)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("Format probe failed, using fallback ladder")
		return s.downloads.FallbackHeights
	}

	seen := make(map[int]struct{})
	for _, f := range info.Formats {
		if f.Height > 0 && f.VCodec != "" && f.VCodec != "none" {
			seen[f.Height] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return s.downloads.FallbackHeights
	}

	heights := make([]int, 0, len(seen))
	for h := range seen {
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))
	return heights
}

// buildVideoFormat derives a yt-dlp format expression from a quality
// tier like "720p". Unknown tiers select the best available.
func buildVideoFormat(quality string) string {
	if strings.HasSuffix(quality, "p") {
		if height, err := strconv.Atoi(strings.TrimSuffix(quality, "p")); err == nil {
			return fmt.Sprintf(
				"bestvideo[height<=%d]+bestaudio/best[height<=%d]/bestvideo+bestaudio/best",
				height, height,
			)
		}
	}
	return "bestvideo+bestaudio/best"
}

// extractAudioMetadata derives artist and track. Explicit fields win;
// a "Artist - Track" title is split next; the uploader is the last
// resort artist.
func extractAudioMetadata(info *ytdlp.Info) (artist, track string) {
	artist = info.Artist
	track = info.Track

	if track == "" {
		track = info.Title
	}
	if artist == "" {
		if before, after, found := strings.Cut(info.Title, " - "); found {
			artist = strings.TrimSpace(before)
			track = strings.TrimSpace(after)
		} else if info.Uploader != "" {
			artist = info.Uploader
		} else {
			artist = "Unknown Artist"
		}
	}
	return artist, track
}
