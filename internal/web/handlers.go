package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/Paulo972021/youtube-api/internal/config"
	"github.com/Paulo972021/youtube-api/internal/downloader"
)

// unauthorizedMessage is fixed so probing the endpoint reveals nothing about
// why a key was rejected.
const unauthorizedMessage = "Unauthorized (invalid API key)."

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// debugKeyResponse reports auth and credential wiring without ever exposing a
// secret value: presence booleans and lengths only. The cookies path is the
// one non-secret literal, it names a file, not its contents.
type debugKeyResponse struct {
	Received          bool   `json:"received"`
	ReceivedLen       int    `json:"received_len"`
	RequiredIsSet     bool   `json:"required_is_set"`
	RequiredLen       int    `json:"required_len"`
	CookiesPath       string `json:"cookies_path"`
	CookiesPathIsSet  bool   `json:"cookies_path_is_set"`
	CookiesFileExists bool   `json:"cookies_file_exists"`
	ProxyIsSet        bool   `json:"proxy_is_set"`
}

func handleDebugKey(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		// The report describes the header exactly as sent: an empty value
		// still counts as received and the length is the raw, untrimmed one.
		// Only the auth comparison trims.
		rawKey := r.Header.Get("X-API-Key")
		received := len(r.Header.Values("X-API-Key")) > 0

		cookiesExist := false
		if cfg.CookiesPath != "" {
			if _, err := os.Stat(cfg.CookiesPath); err == nil {
				cookiesExist = true
			}
		}

		writeJSON(w, http.StatusOK, debugKeyResponse{
			Received:          received,
			ReceivedLen:       len(rawKey),
			RequiredIsSet:     cfg.AuthEnabled(),
			RequiredLen:       len(cfg.APIKey),
			CookiesPath:       cfg.CookiesPath,
			CookiesPathIsSet:  cfg.CookiesPath != "",
			CookiesFileExists: cookiesExist,
			ProxyIsSet:        cfg.ProxyURL != "",
		})
	}
}

// requireAPIKey rejects the request before any workspace or engine work
// happens. With no key configured the gate is open.
func requireAPIKey(cfg config.Config, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.AuthEnabled() {
			received := strings.TrimSpace(r.Header.Get("X-API-Key"))
			if received != cfg.APIKey {
				writeJSONError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}
		}
		next(w, r)
	}
}

func handleDownload(cfg config.Config, pool *downloader.Pool, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
		if rawURL == "" {
			writeJSONError(w, http.StatusBadRequest, "missing url parameter")
			return
		}
		opts := downloader.Options{AudioOnly: boolParam(r, "audio")}

		workspace, err := downloader.NewWorkspace(cfg.ScratchRoot)
		if err != nil {
			writeJSONError(w, downloader.HTTPStatus(err), errorMessage(err))
			return
		}
		defer downloader.RemoveWorkspace(workspace)

		future, err := pool.Submit(r.Context(), downloader.Task{
			URL:       rawURL,
			Workspace: workspace,
			Options:   opts,
		})
		if err != nil {
			writeJSONError(w, downloader.HTTPStatus(err), errorMessage(err))
			return
		}

		// Await unconditionally. A client that goes away does not cancel the
		// extraction, and tearing the workspace down under a running engine
		// would corrupt it.
		res := <-future
		if res.Err != nil {
			log.Warn("download failed", "url", rawURL, "category", downloader.CategoryOf(res.Err), "error", res.Err)
			writeJSONError(w, downloader.HTTPStatus(res.Err), errorMessage(res.Err))
			return
		}

		serveResult(w, r, res.Result)
	}
}

// serveResult streams the produced file. Nothing is written until the file is
// verified, so a late fault still yields a clean error status.
func serveResult(w http.ResponseWriter, r *http.Request, result downloader.Result) {
	if info, err := os.Stat(result.Path); err != nil || !info.Mode().IsRegular() {
		writeJSONError(w, http.StatusInternalServerError, "no output file found after download")
		return
	}
	w.Header().Set("Content-Type", result.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(result.Path)))
	http.ServeFile(w, r, result.Path)
}

func handleStatus(pool *downloader.Pool, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"active_downloads": pool.Active(),
			"workers":          pool.Workers(),
			"uptime":           time.Since(startedAt).Truncate(time.Second).String(),
			"version":          serviceVersion(),
		})
	}
}

// serviceVersion reads the module version stamped into the binary.
func serviceVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "unknown"
}

// errorMessage renders a download failure for the response body. Engine
// failures keep the tool's own text so callers can see why it gave up; the
// other categories already carry a presentable message.
func errorMessage(err error) string {
	if downloader.CategoryOf(err) == downloader.CategoryEngine {
		return "download failed: " + err.Error()
	}
	return err.Error()
}

func boolParam(r *http.Request, name string) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}
