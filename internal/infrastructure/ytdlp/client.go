// Package ytdlp wraps the yt-dlp command line tool
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Format describes a single downloadable format reported by yt-dlp
type Format struct {
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	Height   int    `json:"height"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
}

// Info is the subset of yt-dlp metadata the bot works with
type Info struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Uploader   string   `json:"uploader"`
	Artist     string   `json:"artist"`
	Track      string   `json:"track"`
	Duration   float64  `json:"duration"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Ext        string   `json:"ext"`
	WebpageURL string   `json:"webpage_url"`
	Formats    []Format `json:"formats"`
}

// SearchItem is one result of a video search
type SearchItem struct {
	ID       string
	Title    string
	Uploader string
	Duration int
}

// URL returns the watch URL of the search result
func (s SearchItem) URL() string {
	return "https://www.youtube.com/watch?v=" + s.ID
}

// DownloadOptions configures a single yt-dlp invocation
type DownloadOptions struct {
	// Format is the yt-dlp format selector expression
	Format string
	// ExtractAudio converts the download to an audio file
	ExtractAudio bool
	AudioFormat  string
	AudioBitrate string
	// EmbedMetadata embeds tags and thumbnail into the audio file
	EmbedMetadata bool
	Artist        string
	Track         string
}

// Client executes yt-dlp as a subprocess
type Client struct {
	binary string
	logger zerolog.Logger
}

// NewClient creates a yt-dlp client. It fails fast when the binary
// is not on PATH so misconfigured deployments surface at startup.
func NewClient(logger zerolog.Logger) (*Client, error) {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return nil, fmt.Errorf("yt-dlp not found in PATH: %w", err)
	}
	return &Client{binary: "yt-dlp", logger: logger}, nil
}

// Probe fetches metadata for a single video without downloading it
func (c *Client) Probe(ctx context.Context, rawURL string) (*Info, error) {
	stdout := &bytes.Buffer{}
	stderr := &strings.Builder{}

	cmd := exec.CommandContext(
		ctx, c.binary,
		"-J",
		"--no-playlist",
		"-q", "--no-warnings",
		rawURL,
	)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, runError("yt-dlp probe", err, ctx, stderr.String())
	}

	var info Info
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("yt-dlp probe produced invalid JSON: %w", err)
	}
	return &info, nil
}

// Download fetches media into dir and returns nothing; the caller
// inspects dir afterwards. Using a directory template instead of an
// exact filename lets yt-dlp pick the container extension.
func (c *Client) Download(ctx context.Context, rawURL, dir string, opts DownloadOptions) error {
	args := []string{
		"--no-playlist",
		"-q", "--no-warnings", "--no-progress",
		"-o", filepath.Join(dir, "%(title).100s.%(ext)s"),
	}

	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.ExtractAudio {
		args = append(args, "-x")
		if opts.AudioFormat != "" {
			args = append(args, "--audio-format", opts.AudioFormat)
		}
		if opts.AudioBitrate != "" {
			args = append(args, "--audio-quality", opts.AudioBitrate+"K")
		}
	}
	if opts.EmbedMetadata {
		args = append(args, "--embed-metadata", "--embed-thumbnail")
		if opts.Artist != "" || opts.Track != "" {
			ppArgs := fmt.Sprintf(`ffmpeg:-metadata "artist=%s" -metadata "title=%s"`,
				shellSafe(opts.Artist), shellSafe(opts.Track))
			args = append(args, "--postprocessor-args", ppArgs)
		}
	}
	args = append(args, rawURL)

	var stderr strings.Builder
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stderr = &stderr

	c.logger.Debug().Str("url", rawURL).Str("format", opts.Format).Msg("Running yt-dlp")

	if err := cmd.Run(); err != nil {
		return runError("yt-dlp", err, ctx, stderr.String())
	}
	return nil
}

// Search runs a ytsearch query and returns up to limit flat results
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchItem, error) {
	stdout := &bytes.Buffer{}
	stderr := &strings.Builder{}

	cmd := exec.CommandContext(
		ctx, c.binary,
		"--flat-playlist",
		"-q", "--no-warnings",
		"--print", "%(id)s\t%(title)s\t%(duration)s\t%(uploader)s",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, runError("yt-dlp search", err, ctx, stderr.String())
	}

	var items []SearchItem
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 4)
		if len(parts) < 2 || parts[0] == "" {
			continue
		}
		item := SearchItem{ID: parts[0], Title: parts[1]}
		if len(parts) > 2 {
			item.Duration = parseDuration(parts[2])
		}
		if len(parts) > 3 {
			item.Uploader = parts[3]
		}
		items = append(items, item)
	}
	return items, nil
}

// runError builds an error carrying yt-dlp's stderr so callers can
// classify the failure by its text
func runError(tool string, err error, ctx context.Context, stderr string) error {
	msg := strings.TrimSpace(stderr)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out: %s", tool, msg)
	}
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%s failed: %s", tool, msg)
}

func parseDuration(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// shellSafe strips characters that would break ffmpeg metadata args
func shellSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\'' {
			return -1
		}
		return r
	}, s)
}
