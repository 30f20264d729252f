// Package web is the HTTP face of the download service: a health probe, a
// non-secret diagnostics endpoint, the download route itself, and the
// operational extras (status, Prometheus metrics).
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Paulo972021/youtube-api/internal/config"
	"github.com/Paulo972021/youtube-api/internal/downloader"
	"github.com/Paulo972021/youtube-api/internal/metrics"
)

// ListenAndServe runs the HTTP server until ctx is cancelled. Streaming a
// finished download can legitimately take minutes, hence the generous write
// timeout next to the short header deadline.
func ListenAndServe(ctx context.Context, cfg config.Config, pool *downloader.Pool, m *metrics.Metrics, log *slog.Logger) error {
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, pool, m, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	log.Info("listening", "addr", cfg.Addr, "auth_enabled", cfg.AuthEnabled(), "workers", pool.Workers())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newHandler assembles the mux and middleware. Split from ListenAndServe so
// tests can drive the full stack without binding a socket.
func newHandler(cfg config.Config, pool *downloader.Pool, m *metrics.Metrics, log *slog.Logger) http.Handler {
	startedAt := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/debug-key", handleDebugKey(cfg))
	mux.HandleFunc("/download", requireAPIKey(cfg, handleDownload(cfg, pool, log)))
	mux.HandleFunc("/api/status", handleStatus(pool, startedAt))
	mux.Handle("/metrics", m.Handler())

	return withSecurityHeaders(withObservability(log, m, mux))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code a handler wrote so the request log
// and counter see it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsPath keeps the request counter's path label bounded. Only the
// service's own routes become label values; anything else, including path
// scans, collapses into "other". The request log still carries the real path.
func metricsPath(path string) string {
	switch path {
	case "/health", "/debug-key", "/download", "/api/status", "/metrics":
		return path
	default:
		return "other"
	}
}

func withObservability(log *slog.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.RecordRequest(metricsPath(r.URL.Path), rec.status)
		logFn := log.Info
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			logFn = log.Debug
		}
		logFn("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(started).Truncate(time.Millisecond))
	})
}
