package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const workspacePrefix = "ytdlp_"

// inFlight tracks scratch paths owned by running work. The sweeper never
// touches a registered path: no extraction timeout exists, so a legitimate
// run may outlive the TTL, and a workspace's mtime does not advance while
// the engine appends to a file inside it.
var inFlight = struct {
	sync.Mutex
	paths map[string]struct{}
}{paths: map[string]struct{}{}}

func markInFlight(path string) {
	inFlight.Lock()
	inFlight.paths[filepath.Clean(path)] = struct{}{}
	inFlight.Unlock()
}

func releaseInFlight(path string) {
	inFlight.Lock()
	delete(inFlight.paths, filepath.Clean(path))
	inFlight.Unlock()
}

func isInFlight(path string) bool {
	inFlight.Lock()
	defer inFlight.Unlock()
	_, ok := inFlight.paths[filepath.Clean(path)]
	return ok
}

// NewWorkspace creates a private directory for one extraction under the
// scratch root. Every request gets its own workspace so concurrent downloads
// never share output paths.
func NewWorkspace(scratchRoot string) (string, error) {
	if err := os.MkdirAll(scratchRoot, 0o755); err != nil {
		return "", wrapCategory(CategoryFilesystem, fmt.Errorf("creating scratch root: %w", err))
	}
	dir, err := os.MkdirTemp(scratchRoot, workspacePrefix+"*")
	if err != nil {
		return "", wrapCategory(CategoryFilesystem, fmt.Errorf("creating workspace: %w", err))
	}
	markInFlight(dir)
	return dir, nil
}

// RemoveWorkspace deletes a workspace and everything it holds. Removal errors
// are ignored; the sweeper retries leftovers.
func RemoveWorkspace(dir string) {
	if dir == "" {
		return
	}
	releaseInFlight(dir)
	_ = os.RemoveAll(dir)
}

// sweepScratch removes workspaces and cookie copies under scratchRoot whose
// mtime is older than ttl. Entries still registered to running work are
// skipped regardless of age; only leftovers from crashes and abandoned
// streams are reclaimed.
func sweepScratch(scratchRoot string, ttl time.Duration) (removed int) {
	entries, err := os.ReadDir(scratchRoot)
	if err != nil {
		return 0
	}
	cutoff := time.Now().Add(-ttl)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, workspacePrefix) && !strings.HasPrefix(name, "cookies_") {
			continue
		}
		if isInFlight(filepath.Join(scratchRoot, name)) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(scratchRoot, name)); err == nil {
			removed++
		}
	}
	return removed
}

// StartSweeper scrubs stale scratch entries on a ticker until ctx is done.
// Workspaces are normally removed as soon as their response has been sent;
// the sweeper covers crashes and abandoned streams.
func StartSweeper(ctx context.Context, log *slog.Logger, scratchRoot string, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sweepScratch(scratchRoot, ttl); n > 0 && log != nil {
					log.Debug("swept stale scratch entries", "count", n, "root", scratchRoot)
				}
			}
		}
	}()
}
