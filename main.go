package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Paulo972021/youtube-api/internal/app"
	"github.com/Paulo972021/youtube-api/internal/config"
	"github.com/Paulo972021/youtube-api/internal/downloader"
	"github.com/Paulo972021/youtube-api/internal/metrics"
	"github.com/Paulo972021/youtube-api/internal/web"
)

func main() {
	var (
		addr    string
		oneShot string
		audio   bool
		outDir  string
		verbose bool
	)
	flag.StringVar(&addr, "addr", "", "listen address (overrides LISTEN_ADDR/PORT)")
	flag.StringVar(&oneShot, "url", "", "download a single url and exit instead of serving")
	flag.BoolVar(&audio, "audio", false, "download best available audio only (one-shot mode)")
	flag.StringVar(&outDir, "o", ".", "output directory for one-shot downloads")
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.Parse()

	// A missing .env file is not an error; the environment may be set
	// directly by the deployment.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	if addr != "" {
		cfg.Addr = addr
	}
	if verbose {
		cfg.Verbose = true
	}

	log := newLogger(cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.InstallEngine {
		log.Info("ensuring yt-dlp is installed")
		if err := downloader.InstallEngine(ctx); err != nil {
			log.Error("yt-dlp install failed", "error", err)
			os.Exit(downloader.ExitCode(err))
		}
	}

	urls := flag.Args()
	if oneShot != "" {
		urls = append([]string{oneShot}, urls...)
	}
	if len(urls) > 0 {
		os.Exit(runOnce(ctx, cfg, log, urls, outDir, audio))
	}

	if err := serve(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// runOnce downloads the given urls straight into outDir and prints the
// resulting paths, one per line.
func runOnce(ctx context.Context, cfg config.Config, log *slog.Logger, urls []string, outDir string, audio bool) int {
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return downloader.ExitCode(&downloader.CategorizedError{Category: downloader.CategoryFilesystem, Err: err})
	}

	dl := downloader.New(cfg, log)
	results, code := app.Run(ctx, dl, outDir, urls, downloader.Options{AudioOnly: audio}, cfg.Workers)
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", res.URL, res.Err)
			continue
		}
		fmt.Println(res.Path)
	}
	return code
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()
	dl := downloader.New(cfg, log)

	pool := downloader.NewPool(cfg.Workers, dl, m)
	pool.Start(ctx)
	defer pool.Stop()

	downloader.StartSweeper(ctx, log, cfg.ScratchRoot, cfg.SweepInterval, cfg.WorkspaceTTL)

	return web.ListenAndServe(ctx, cfg, pool, m, log)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
