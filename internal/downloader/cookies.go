package downloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// provisionCookies copies the configured cookies file into the scratch root so
// the engine reads a private copy it is free to rewrite. The returned cleanup
// removes the copy and tolerates every error; callers defer it so the copy
// disappears on all exit paths. An empty cookiesPath provisions nothing.
func provisionCookies(scratchRoot, cookiesPath string) (string, func(), error) {
	noop := func() {}
	cookiesPath = strings.TrimSpace(cookiesPath)
	if cookiesPath == "" {
		return "", noop, nil
	}

	data, err := os.ReadFile(cookiesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", noop, wrapCategory(CategoryConfig, fmt.Errorf("cookies file not found: %s", cookiesPath))
		}
		return "", noop, wrapCategory(CategoryFilesystem, fmt.Errorf("reading cookies file: %w", err))
	}

	if err := os.MkdirAll(scratchRoot, 0o755); err != nil {
		return "", noop, wrapCategory(CategoryFilesystem, fmt.Errorf("creating scratch root: %w", err))
	}

	copyPath := filepath.Join(scratchRoot, cookieCopyName())
	if err := os.WriteFile(copyPath, data, 0o600); err != nil {
		return "", noop, wrapCategory(CategoryFilesystem, fmt.Errorf("writing cookies copy: %w", err))
	}
	markInFlight(copyPath)

	cleanup := func() {
		releaseInFlight(copyPath)
		_ = os.Remove(copyPath)
	}
	return copyPath, cleanup, nil
}

// cookieCopyName builds a per-invocation file name. The pid separates
// processes sharing a scratch root; the random suffix separates concurrent
// requests inside one process.
func cookieCopyName() string {
	return fmt.Sprintf("cookies_%d_%s.txt", os.Getpid(), uuid.NewString()[:8])
}
