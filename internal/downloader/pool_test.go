package downloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Paulo972021/youtube-api/internal/config"
)

func TestPoolDeliversResult(t *testing.T) {
	workspace := t.TempDir()
	d := testDownloader(config.Config{ScratchRoot: t.TempDir()}, func(_ context.Context, spec fetchSpec) (fetchOutcome, error) {
		path := filepath.Join(spec.Workspace, "v.mp4")
		if err := os.WriteFile(path, []byte("v"), 0o644); err != nil {
			t.Fatal(err)
		}
		return fetchOutcome{Filename: path, Title: "V"}, nil
	})

	pool := NewPool(1, d, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	future, err := pool.Submit(context.Background(), Task{URL: "https://example.com/v", Workspace: workspace})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case res := <-future:
		if res.Err != nil {
			t.Fatalf("task error = %v", res.Err)
		}
		if res.Result.Title != "V" {
			t.Errorf("Title = %q, want %q", res.Result.Title, "V")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("future never delivered")
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	started := make(chan struct{}, 2)
	gate := make(chan struct{})
	d := testDownloader(config.Config{ScratchRoot: t.TempDir()}, func(_ context.Context, spec fetchSpec) (fetchOutcome, error) {
		started <- struct{}{}
		<-gate
		path := filepath.Join(spec.Workspace, "v.mp4")
		if err := os.WriteFile(path, []byte("v"), 0o644); err != nil {
			t.Fatal(err)
		}
		return fetchOutcome{Filename: path}, nil
	})

	pool := NewPool(1, d, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer func() {
		close(gate)
		pool.Stop()
	}()

	first, err := pool.Submit(context.Background(), Task{URL: "https://example.com/1", Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-started

	// The single worker is busy, so a second submission must park until its
	// context gives up.
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer waitCancel()
	if _, err := pool.Submit(waitCtx, Task{URL: "https://example.com/2", Workspace: t.TempDir()}); err == nil {
		t.Fatal("second Submit() succeeded while the only worker was busy")
	}

	gate <- struct{}{}
	select {
	case res := <-first:
		if res.Err != nil {
			t.Fatalf("first task error = %v", res.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first future never delivered")
	}
}

func TestPoolRunsTasksIndependently(t *testing.T) {
	started := make(chan struct{}, 2)
	gate := make(chan struct{})
	d := testDownloader(config.Config{ScratchRoot: t.TempDir()}, func(_ context.Context, spec fetchSpec) (fetchOutcome, error) {
		started <- struct{}{}
		<-gate
		path := filepath.Join(spec.Workspace, "v.mp4")
		if err := os.WriteFile(path, []byte("v"), 0o644); err != nil {
			t.Fatal(err)
		}
		return fetchOutcome{Filename: path}, nil
	})

	pool := NewPool(2, d, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	futures := make([]<-chan TaskResult, 0, 2)
	for i := 0; i < 2; i++ {
		future, err := pool.Submit(context.Background(), Task{URL: "https://example.com/v", Workspace: t.TempDir()})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		futures = append(futures, future)
	}

	<-started
	<-started
	if got := pool.Active(); got != 2 {
		t.Errorf("Active() = %d, want 2", got)
	}

	close(gate)
	for i, future := range futures {
		select {
		case res := <-future:
			if res.Err != nil {
				t.Errorf("task %d error = %v", i, res.Err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("future %d never delivered", i)
		}
	}
}

func TestPoolStopCancelsInflight(t *testing.T) {
	started := make(chan struct{})
	d := testDownloader(config.Config{ScratchRoot: t.TempDir()}, func(ctx context.Context, _ fetchSpec) (fetchOutcome, error) {
		close(started)
		<-ctx.Done()
		return fetchOutcome{}, ctx.Err()
	})

	pool := NewPool(1, d, nil)
	pool.Start(context.Background())

	future, err := pool.Submit(context.Background(), Task{URL: "https://example.com/v", Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-started

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case res := <-future:
		if res.Err == nil {
			t.Error("task error = nil after Stop")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("future never delivered after Stop")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop never returned")
	}

	if _, err := pool.Submit(context.Background(), Task{URL: "https://example.com/v", Workspace: t.TempDir()}); err == nil {
		t.Error("Submit() after Stop succeeded")
	}
}

func TestPoolSubmitBeforeStart(t *testing.T) {
	pool := NewPool(1, testDownloader(config.Config{}, nil), nil)
	if _, err := pool.Submit(context.Background(), Task{URL: "https://example.com/v"}); err == nil {
		t.Error("Submit() on an unstarted pool succeeded")
	}
}
