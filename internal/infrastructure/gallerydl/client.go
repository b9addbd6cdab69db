// Package gallerydl wraps the gallery-dl command line tool used as a
// fallback for photo posts that yt-dlp cannot extract
package gallerydl

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client executes gallery-dl as a subprocess
type Client struct {
	binary  string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClient creates a gallery-dl client. The binary is optional at
// startup; its absence is reported on first use instead.
func NewClient(timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{binary: "gallery-dl", timeout: timeout, logger: logger}
}

// Available reports whether gallery-dl is installed
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

// Download fetches all media of a post into dir
func (c *Client) Download(ctx context.Context, rawURL, dir string) error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("gallery-dl not found in PATH: %w", err)
	}

	dCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(
		dCtx, c.binary,
		"-q",
		"-D", dir,
		rawURL,
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	c.logger.Debug().Str("url", rawURL).Msg("Running gallery-dl")

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if errors.Is(dCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("gallery-dl timed out: %s", msg)
		}
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("gallery-dl failed: %s", msg)
	}
	return nil
}
