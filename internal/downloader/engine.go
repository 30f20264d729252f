package downloader

import (
	"context"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"
)

// outputTemplate names every produced file after the item title; the engine
// fills in the extension for the container it actually wrote.
const outputTemplate = "%(title)s.%(ext)s"

// videoFormatChain prefers a ready-made mp4, then an mp4 video plus m4a audio
// pair the merge step can remux, then whatever the extractor calls best.
const videoFormatChain = "best[ext=mp4]/bestvideo[ext=mp4]+bestaudio[ext=m4a]/best"

// fetchSpec is one fully resolved engine invocation.
type fetchSpec struct {
	URL        string
	Workspace  string
	CookieFile string
	Proxy      string
	AudioOnly  bool
}

// fetchOutcome carries what the engine reported about the item it wrote.
// Filename may be empty or stale; path resolution treats it as a hint.
type fetchOutcome struct {
	Filename string
	Title    string
	Uploader string
}

// engine abstracts the external extraction tool so tests can stand in for it.
type engine interface {
	fetch(ctx context.Context, spec fetchSpec) (fetchOutcome, error)
}

// ytdlpEngine shells out to yt-dlp through the go-ytdlp binding. The tool is
// treated as opaque: it owns site support, format negotiation, and its own
// retry behavior.
type ytdlpEngine struct{}

func (ytdlpEngine) fetch(ctx context.Context, spec fetchSpec) (fetchOutcome, error) {
	dl := ytdlp.New().
		Output(filepath.Join(spec.Workspace, outputTemplate)).
		NoPlaylist().
		Quiet().
		NoWarnings().
		RestrictFilenames().
		ForceOverwrites()

	if spec.AudioOnly {
		dl = dl.ExtractAudio().AudioFormat("mp3")
	} else {
		dl = dl.Format(videoFormatChain).MergeOutputFormat("mp4")
	}
	if spec.CookieFile != "" {
		dl = dl.Cookies(spec.CookieFile)
	}
	if spec.Proxy != "" {
		dl = dl.Proxy(spec.Proxy)
	}

	result, err := dl.Run(ctx, spec.URL)
	if err != nil {
		return fetchOutcome{}, err
	}
	return outcomeFromResult(result), nil
}

func outcomeFromResult(result *ytdlp.Result) fetchOutcome {
	var out fetchOutcome
	if result == nil {
		return out
	}
	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 {
		// Metadata is a convenience; the workspace scan finds the file.
		return out
	}
	if info[0].Filename != nil {
		out.Filename = *info[0].Filename
	}
	if info[0].Title != nil {
		out.Title = *info[0].Title
	}
	if info[0].Uploader != nil {
		out.Uploader = *info[0].Uploader
	}
	return out
}

// InstallEngine provisions a pinned yt-dlp binary for hosts that ship
// without one. go-ytdlp caches the download and verifies its signature.
func InstallEngine(ctx context.Context) error {
	_, err := ytdlp.Install(ctx, nil)
	return err
}
