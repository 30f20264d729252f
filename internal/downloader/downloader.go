// Package downloader turns a video page URL into a local media file by
// driving the external yt-dlp tool inside a throwaway workspace. It owns the
// cookie provisioning, the engine invocation, and locating whatever the
// engine produced; it knows nothing about HTTP.
package downloader

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Paulo972021/youtube-api/internal/config"
)

// Options selects between the two fixed extraction presets.
type Options struct {
	// AudioOnly swaps the mp4 video preset for an mp3 audio extraction.
	AudioOnly bool
}

// Result describes a finished download.
type Result struct {
	Path      string
	Title     string
	Artist    string
	MediaType string
	Size      int64
}

// Downloader runs one extraction end to end: credentials in place, engine
// driven, output located and classified.
type Downloader struct {
	cfg    config.Config
	engine engine
	log    *slog.Logger
}

func New(cfg config.Config, log *slog.Logger) *Downloader {
	if log == nil {
		log = slog.Default()
	}
	return &Downloader{cfg: cfg, engine: ytdlpEngine{}, log: log}
}

// Download fetches rawURL into workspace and returns the produced file. The
// context should span the server, not the request: an extraction is never
// cancelled just because its caller went away.
func (d *Downloader) Download(ctx context.Context, rawURL, workspace string, opts Options) (Result, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return Result{}, wrapCategory(CategoryInvalidURL, errors.New("no url provided"))
	}

	cookieFile, cleanup, err := provisionCookies(d.cfg.ScratchRoot, d.cfg.CookiesPath)
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	started := time.Now()
	d.log.Debug("extraction started", "url", url, "workspace", workspace, "audio_only", opts.AudioOnly)

	outcome, err := d.engine.fetch(ctx, fetchSpec{
		URL:        url,
		Workspace:  workspace,
		CookieFile: cookieFile,
		Proxy:      d.cfg.ProxyURL,
		AudioOnly:  opts.AudioOnly,
	})
	if err != nil {
		return Result{}, wrapCategory(CategoryEngine, err)
	}

	path, err := resolveOutput(workspace, outcome.Filename, opts.AudioOnly)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Path:      path,
		Title:     outcome.Title,
		Artist:    outcome.Uploader,
		MediaType: DetectMediaType(path),
	}
	if info, err := os.Stat(path); err == nil {
		result.Size = info.Size()
	}
	if opts.AudioOnly {
		embedAudioTags(result, d.log)
	}

	d.log.Info("extraction finished",
		"url", url,
		"file", filepath.Base(path),
		"media_type", result.MediaType,
		"bytes", result.Size,
		"elapsed", time.Since(started).Truncate(time.Millisecond))
	return result, nil
}

// resolveOutput locates the file the engine produced. The engine-reported
// filename can carry a pre-merge extension because the merge and audio
// extraction steps rewrite the container after the name was computed, so the
// reported path is retried with the preset's extension before falling back to
// a workspace scan.
func resolveOutput(workspace, reported string, audioOnly bool) (string, error) {
	var candidates []string
	if reported != "" {
		candidates = append(candidates, reported)
		target := ".mp4"
		if audioOnly {
			target = ".mp3"
		}
		if ext := filepath.Ext(reported); ext != target {
			candidates = append(candidates, strings.TrimSuffix(reported, ext)+target)
		}
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	if found := newestFile(workspace); found != "" {
		return found, nil
	}
	return "", wrapCategory(CategoryIncomplete, errors.New("no output file found after download"))
}

// newestFile returns the most recently modified regular file in dir, skipping
// the engine's partial-download artifacts.
func newestFile(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var (
		best     string
		bestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".part", ".ytdl", ".tmp":
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = filepath.Join(dir, entry.Name())
			bestTime = info.ModTime()
		}
	}
	return best
}
