package downloader

import (
	"os"
	"path/filepath"
	"strings"

	boterrors "github.com/komuzik/media-bot/internal/domain/bot/errors"
)

// sidecarExtensions are thumbnail and metadata files the extraction
// tools write next to the media file
var sidecarExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".json": {},
}

// ResolveFile picks the downloaded media file out of a workspace.
// Image sidecars are excluded unless allowImages is set (photo mode).
// When expectedExt is non-empty an exact extension match is preferred;
// otherwise the first remaining candidate wins.
func ResolveFile(dir, expectedExt string, allowImages bool) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", boterrors.NewEmpty("failed to read workspace: " + err.Error())
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if _, sidecar := sidecarExtensions[ext]; sidecar && !allowImages {
			continue
		}
		candidates = append(candidates, e.Name())
	}

	if len(candidates) == 0 {
		return "", boterrors.NewEmpty("no media file found in " + dir)
	}

	chosen := candidates[0]
	if expectedExt != "" {
		want := "." + strings.TrimPrefix(strings.ToLower(expectedExt), ".")
		for _, name := range candidates {
			if strings.ToLower(filepath.Ext(name)) == want {
				chosen = name
				break
			}
		}
	}

	path := filepath.Join(dir, chosen)
	info, err := os.Stat(path)
	if err != nil {
		return "", boterrors.NewEmpty("failed to stat media file: " + err.Error())
	}
	if info.Size() == 0 {
		return "", boterrors.NewEmpty("media file is empty: " + chosen)
	}

	return path, nil
}
