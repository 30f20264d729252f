package downloader

import (
	"encoding/json"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// fallbackMediaType matches the container the video preset asks the engine
// for, and is what the response advertises when nothing better is known.
const fallbackMediaType = "video/mp4"

var mediaTypesByExtension = map[string]string{
	".3gp":  "video/3gpp",
	".aac":  "audio/aac",
	".avi":  "video/x-msvideo",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".ogv":  "video/ogg",
	".opus": "audio/opus",
	".ts":   "video/mp2t",
	".wav":  "audio/wav",
	".webm": "video/webm",
	".wma":  "audio/x-ms-wma",
	".wmv":  "video/x-ms-wmv",
}

// DetectMediaType reports the media type of a produced file. The engine is
// asked for mp4, but its merge step can fall through to another container, so
// the file itself is probed first; the extension decides when ffprobe is
// unavailable or stumped.
func DetectMediaType(path string) string {
	if mt := probeMediaType(path); mt != "" {
		return mt
	}
	return mediaTypeForExtension(filepath.Ext(path))
}

func probeMediaType(path string) string {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return ""
	}
	return mediaTypeFromProbe(raw, filepath.Ext(path))
}

// mediaTypeFromProbe reads format.format_name out of ffprobe JSON output.
func mediaTypeFromProbe(raw, ext string) string {
	var probe struct {
		Format struct {
			FormatName string `json:"format_name"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return ""
	}
	return mediaTypeForFormatName(probe.Format.FormatName, ext)
}

// mediaTypeForFormatName maps ffprobe's format_name, a comma separated list
// of demuxer names, onto a media type. Family demuxers report several
// containers at once ("mov,mp4,m4a,3gp,3g2,mj2", "matroska,webm"), so the
// extension breaks the tie inside a family.
func mediaTypeForFormatName(formatName, ext string) string {
	tokens := map[string]bool{}
	for _, tok := range strings.Split(formatName, ",") {
		tokens[strings.TrimSpace(tok)] = true
	}
	ext = strings.ToLower(ext)

	switch {
	case tokens["mp4"] || tokens["mov"]:
		switch ext {
		case ".mov":
			return "video/quicktime"
		case ".m4a":
			return "audio/mp4"
		default:
			return "video/mp4"
		}
	case tokens["webm"] || tokens["matroska"]:
		if ext == ".mkv" {
			return "video/x-matroska"
		}
		return "video/webm"
	case tokens["mp3"]:
		return "audio/mpeg"
	case tokens["ogg"]:
		if ext == ".ogv" {
			return "video/ogg"
		}
		return "audio/ogg"
	case tokens["flac"]:
		return "audio/flac"
	case tokens["wav"]:
		return "audio/wav"
	case tokens["avi"]:
		return "video/x-msvideo"
	case tokens["mpegts"]:
		return "video/mp2t"
	case tokens["mpeg"]:
		return "video/mpeg"
	default:
		return ""
	}
}

func mediaTypeForExtension(ext string) string {
	if mt, ok := mediaTypesByExtension[strings.ToLower(ext)]; ok {
		return mt
	}
	return fallbackMediaType
}
