// Package app drives batches of one-shot downloads for the CLI mode.
package app

import (
	"context"
	"sync"

	"github.com/Paulo972021/youtube-api/internal/downloader"
)

// Result captures the outcome of a single url in a batch run.
type Result struct {
	URL   string `json:"url"`
	Path  string `json:"path,omitempty"`
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// Run downloads every url into outDir with up to jobs concurrent workers and
// reports per-url outcomes plus the process exit code. The worst failure wins
// the exit code; cancellation with no other failure maps to 130.
func Run(ctx context.Context, dl downloader.Runner, outDir string, urls []string, opts downloader.Options, jobs int) ([]Result, int) {
	if jobs < 1 {
		jobs = 1
	}

	tasks := make(chan string)
	results := make(chan Result, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case url, ok := <-tasks:
					if !ok || ctx.Err() != nil {
						return
					}
					res, err := dl.Download(ctx, url, outDir, opts)
					result := Result{URL: url, Path: res.Path, Err: err}
					if err != nil {
						result.Error = err.Error()
					}
					select {
					case results <- result:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	for _, url := range urls {
		select {
		case <-ctx.Done():
			close(tasks)
			goto done
		case tasks <- url:
		}
	}
	close(tasks)

done:
	go func() {
		wg.Wait()
		close(results)
	}()

	output := make([]Result, 0, len(urls))
	exitCode := 0
	for res := range results {
		output = append(output, res)
		if res.Err != nil {
			if code := downloader.ExitCode(res.Err); code > exitCode {
				exitCode = code
			}
		}
	}
	if exitCode == 0 && ctx.Err() != nil {
		exitCode = 130
	}

	return output, exitCode
}
