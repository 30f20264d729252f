package downloader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Paulo972021/youtube-api/internal/metrics"
)

// Task is one download unit handed to the pool.
type Task struct {
	URL       string
	Workspace string
	Options   Options
}

// TaskResult is delivered exactly once on the future returned by Submit.
type TaskResult struct {
	Result Result
	Err    error
}

// Runner is the download operation the pool executes. *Downloader is the
// production implementation.
type Runner interface {
	Download(ctx context.Context, rawURL, workspace string, opts Options) (Result, error)
}

var _ Runner = (*Downloader)(nil)

// Pool runs downloads on a fixed set of workers. The task channel is strictly
// unbuffered: a submission parks until a worker takes it, which is what
// bounds concurrent engine runs.
type Pool struct {
	workers int
	dl      Runner
	metrics *metrics.Metrics

	tasks  chan poolItem
	active atomic.Int64
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type poolItem struct {
	task   Task
	future chan TaskResult
}

func NewPool(workers int, dl Runner, m *metrics.Metrics) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		dl:      dl,
		metrics: m,
		tasks:   make(chan poolItem), // strict unbuffered
	}
}

// Start launches the workers. Extractions run under the pool's context, so
// they outlive any single request and die with the server.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Submit hands a task to the pool and returns the future carrying its single
// outcome. ctx bounds only the wait for a free worker; once accepted, the
// task runs to completion regardless of the submitter.
func (p *Pool) Submit(ctx context.Context, task Task) (<-chan TaskResult, error) {
	if p.ctx == nil {
		return nil, wrapCategory(CategoryEngine, errors.New("download pool is not running"))
	}
	item := poolItem{task: task, future: make(chan TaskResult, 1)}
	select {
	case p.tasks <- item:
		return item.future, nil
	case <-ctx.Done():
		return nil, wrapCategory(CategoryEngine, ctx.Err())
	case <-p.ctx.Done():
		return nil, wrapCategory(CategoryEngine, errors.New("download pool is shut down"))
	}
}

// Active reports how many extractions are running right now.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Workers reports the concurrency bound.
func (p *Pool) Workers() int { return p.workers }

// Stop cancels in-flight extractions and waits for the workers to exit.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case item := <-p.tasks:
			item.future <- p.run(item.task)
		}
	}
}

func (p *Pool) run(task Task) TaskResult {
	p.active.Add(1)
	p.metrics.IncInProgress()
	started := time.Now()
	defer func() {
		p.metrics.DecInProgress()
		p.active.Add(-1)
	}()

	result, err := p.dl.Download(p.ctx, task.URL, task.Workspace, task.Options)
	seconds := time.Since(started).Seconds()
	if err != nil {
		p.metrics.RecordDownload("error", seconds)
		p.metrics.RecordError(string(CategoryOf(err)))
	} else {
		p.metrics.RecordDownload("success", seconds)
		p.metrics.ObserveFileSize(result.Size)
	}
	return TaskResult{Result: result, Err: err}
}
