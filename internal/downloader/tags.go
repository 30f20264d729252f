package downloader

import (
	"log/slog"
	"path/filepath"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"
)

// embedAudioTags writes ID3v2 tags onto an audio-mode mp3 using the metadata
// the engine reported. Tagging is best effort: a failure is logged and the
// download still succeeds.
func embedAudioTags(result Result, log *slog.Logger) {
	if strings.ToLower(filepath.Ext(result.Path)) != ".mp3" {
		return
	}
	if result.Title == "" && result.Artist == "" {
		return
	}
	if err := embedID3Tags(result.Path, result.Title, result.Artist); err != nil && log != nil {
		log.Warn("id3 tagging failed", "file", filepath.Base(result.Path), "error", err)
	}
}

func embedID3Tags(path, title, artist string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	if title != "" {
		tag.SetTitle(title)
	}
	if artist != "" {
		tag.SetArtist(artist)
	}
	return tag.Save()
}
