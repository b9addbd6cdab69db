package downloader

import (
	"fmt"
	"os"
)

// Workspace is an isolated temporary directory owned by exactly one
// fetch attempt. It must be released on every exit path.
type Workspace struct {
	dir string
}

// NewWorkspace creates a fresh empty workspace directory
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "media-bot-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory path
func (w *Workspace) Dir() string {
	return w.dir
}

// Release removes the workspace and everything in it. Safe to call
// more than once.
func (w *Workspace) Release() {
	if w.dir == "" {
		return
	}
	_ = os.RemoveAll(w.dir)
	w.dir = ""
}
