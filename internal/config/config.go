// Package config loads the service configuration from the environment once at
// startup. The resulting Config is passed by value to every component; nothing
// reads the environment after that.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAddr          = ":8000"
	DefaultWorkers       = 2
	DefaultWorkspaceTTL  = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// Config carries every tunable the service honors. String values are trimmed
// at load time so that key comparison and path checks never see stray
// whitespace from quoted .env lines.
type Config struct {
	// Addr is the listen address, ":8000" unless LISTEN_ADDR or PORT is set.
	Addr string

	// APIKey gates /download when non-empty. Empty disables auth entirely.
	APIKey string

	// CookiesPath points at a cookies file handed to the extraction engine.
	// The file is copied into the scratch root per request; the original is
	// never touched. May reference a missing file, which surfaces through
	// /debug-key and fails provisioning at request time.
	CookiesPath string

	// ProxyURL is forwarded verbatim to the extraction engine.
	ProxyURL string

	// ScratchRoot is the writable directory under which per-request
	// workspaces and cookie copies are created.
	ScratchRoot string

	// Workers bounds the number of concurrent extractions.
	Workers int

	// WorkspaceTTL is the age after which leftover workspaces are swept.
	WorkspaceTTL time.Duration

	// SweepInterval is how often the scratch sweeper runs.
	SweepInterval time.Duration

	// InstallEngine downloads a pinned yt-dlp binary at startup when the
	// host has none on PATH.
	InstallEngine bool

	// Verbose enables debug-level logging.
	Verbose bool
}

// FromEnv builds a Config from the process environment. It never fails:
// missing or malformed values fall back to defaults, and absent credentials
// are a per-request condition, not a startup error.
func FromEnv() Config {
	return Config{
		Addr:          addrFromEnv(),
		APIKey:        envString("API_KEY"),
		CookiesPath:   envString("YTDLP_COOKIES_PATH"),
		ProxyURL:      envString("YTDLP_PROXY"),
		ScratchRoot:   envStringDefault("SCRATCH_DIR", os.TempDir()),
		Workers:       envIntMin("DOWNLOAD_WORKERS", DefaultWorkers, 1),
		WorkspaceTTL:  envDuration("WORKSPACE_TTL", DefaultWorkspaceTTL),
		SweepInterval: envDuration("SWEEP_INTERVAL", DefaultSweepInterval),
		InstallEngine: envBool("YTDLP_AUTO_INSTALL"),
		Verbose:       envBool("VERBOSE"),
	}
}

// AuthEnabled reports whether /download requires an API key.
func (c Config) AuthEnabled() bool { return c.APIKey != "" }

// addrFromEnv resolves the listen address. LISTEN_ADDR wins over PORT; PORT
// carries just the number on most hosting platforms.
func addrFromEnv() string {
	if addr := envString("LISTEN_ADDR"); addr != "" {
		return addr
	}
	if port := envString("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			return ":" + port
		}
	}
	return DefaultAddr
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envStringDefault(key, fallback string) string {
	if v := envString(key); v != "" {
		return v
	}
	return fallback
}

func envIntMin(key string, fallback, min int) int {
	raw := envString(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := envString(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envBool(key string) bool {
	raw := envString(key)
	if raw == "" {
		return false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return b
}
