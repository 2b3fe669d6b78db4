// Package engine is the download orchestration core: it turns a validated
// accession list and a batch configuration into a concurrently executed,
// fault-tolerant set of fetch jobs and a final summary.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gardiner-lab/seq-downloader/internal/config"
	"github.com/gardiner-lab/seq-downloader/internal/conflict"
	"github.com/gardiner-lab/seq-downloader/internal/models"
	"github.com/gardiner-lab/seq-downloader/internal/progress"
	"github.com/gardiner-lab/seq-downloader/internal/sratools"
)

// Engine owns the worker pool for one batch. Jobs are dispatched FIFO to N
// workers; each worker drives its job through conflict resolution and the
// retry controller, then records the terminal outcome. Cancellation stops
// dispatch immediately and gives in-flight fetches a bounded grace period.
type Engine struct {
	cfg      *config.BatchConfig
	runner   sratools.Runner
	resolver *conflict.Resolver
	reporter progress.Reporter
	progress *Progress
	log      zerolog.Logger
}

// New assembles an engine. reporter may be nil.
func New(cfg *config.BatchConfig, runner sratools.Runner, resolver *conflict.Resolver, reporter progress.Reporter, log zerolog.Logger) *Engine {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Engine{
		cfg:      cfg,
		runner:   runner,
		resolver: resolver,
		reporter: reporter,
		log:      log,
	}
}

// Progress exposes the aggregator for snapshot reads. Valid after Run has
// started; nil before.
func (e *Engine) Progress() *Progress {
	return e.progress
}

// Run executes the batch over the given accessions and returns the summary.
// The accession list must already be validated and deduplicated. Run always
// returns a complete summary, even when every job fails; jobs never
// dispatched before cancellation are reported as not attempted.
func (e *Engine) Run(ctx context.Context, accessions []string) *models.ResultSummary {
	start := time.Now()

	jobs := make([]*models.DownloadJob, 0, len(accessions))
	for _, acc := range accessions {
		jobs = append(jobs, models.NewDownloadJob(acc, e.cfg.OutputDir, e.cfg.SplitFiles))
	}

	e.progress = NewProgress(len(jobs))
	e.reporter.BatchStarted(len(jobs))

	// In-flight fetches run on fetchCtx, which outlives the batch context by
	// the cancel grace period so a nearly-finished transfer can complete
	// instead of being killed mid-write.
	fetchCtx, fetchCancel := context.WithCancel(context.Background())
	defer fetchCancel()
	graceDone := make(chan struct{})
	go func() {
		defer close(graceDone)
		select {
		case <-ctx.Done():
			timer := time.NewTimer(e.cfg.CancelGrace)
			defer timer.Stop()
			select {
			case <-timer.C:
				fetchCancel()
			case <-fetchCtx.Done():
			}
		case <-fetchCtx.Done():
		}
	}()

	queue := make(chan *models.DownloadJob, len(jobs))
	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx, fetchCtx, queue)
		}()
	}
	wg.Wait()
	fetchCancel()
	<-graceDone

	summary := &models.ResultSummary{TotalElapsed: time.Since(start)}
	for _, job := range jobs {
		if !job.IsTerminal() {
			job.State = models.StateNotAttempted
		}
		summary.Add(job)
	}

	e.log.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Int("not_attempted", summary.NotAttempted).
		Int64("bytes", summary.TotalBytes).
		Dur("elapsed", summary.TotalElapsed).
		Msg("batch finished")
	return summary
}

// worker pulls pending jobs until the queue drains or cancellation is
// requested. The cancellation check happens before each dequeue, so no new
// job starts after the signal.
func (e *Engine) worker(ctx, fetchCtx context.Context, queue <-chan *models.DownloadJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-queue:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				// Dequeued after cancellation; leave it pending so it is
				// reported as not attempted.
				return
			}
			e.process(ctx, fetchCtx, job)
		}
	}
}

// process drives one job to a terminal state. The worker is the job's sole
// owner; nothing else mutates it.
func (e *Engine) process(ctx, fetchCtx context.Context, job *models.DownloadJob) {
	job.State = models.StateRunning
	e.reporter.JobStarted(job.Accession)

	res, err := e.resolver.Resolve(job)
	if err != nil {
		job.Fail(err)
		e.progress.JobFailed()
		e.reporter.JobFinished(job)
		return
	}
	if res.Skip {
		job.State = models.StateSkipped
		e.progress.JobSkipped()
		e.reporter.JobFinished(job)
		e.log.Info().Str("accession", job.Accession).Msg("skipped, output already present")
		return
	}
	job.OutputPaths = res.Paths

	rc := newRetrier(e.runner, e.cfg.MaxRetries, e.cfg.RetryDelay, e.cfg.MaxDelay, e.progress, e.log)
	rc.onRetry = func(j *models.DownloadJob, attempt int, delay time.Duration, err error) {
		e.reporter.JobRetrying(j.Accession, attempt, delay, err)
	}

	outcome, err := rc.run(ctx, fetchCtx, job)
	if err != nil {
		job.Fail(err)
		e.progress.JobFailed()
		e.reporter.JobFinished(job)
		e.log.Error().Str("accession", job.Accession).Int("attempts", job.Attempts).Err(err).Msg("download failed")
		return
	}

	job.Succeed(outcome.Bytes, outcome.Elapsed)
	e.progress.JobSucceeded(outcome.Bytes)
	e.reporter.JobFinished(job)
}
