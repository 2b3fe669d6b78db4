package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/gardiner-lab/seq-downloader/internal/models"
	"github.com/gardiner-lab/seq-downloader/internal/sratools"
)

// Backoff returns the delay before retry number attempt (1-based): the base
// delay doubled per attempt, capped at max, plus random jitter in [0, base).
// Jitter spreads simultaneous retries so workers do not hammer the remote
// in lockstep.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			delay = max
			break
		}
	}
	if delay > max {
		delay = max
	}
	return delay + time.Duration(rand.Int63n(int64(base)))
}

// retrier drives a single job's fetch attempts through the injected runner.
type retrier struct {
	runner     sratools.Runner
	maxRetries int
	base       time.Duration
	cap        time.Duration
	progress   *Progress
	onRetry    func(job *models.DownloadJob, attempt int, delay time.Duration, err error)
	log        zerolog.Logger

	// sleep is replaced in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetrier(runner sratools.Runner, maxRetries int, base, cap time.Duration, progress *Progress, log zerolog.Logger) *retrier {
	return &retrier{
		runner:     runner,
		maxRetries: maxRetries,
		base:       base,
		cap:        cap,
		progress:   progress,
		log:        log,
		sleep:      sleepCtx,
	}
}

// run attempts the fetch up to maxRetries times. Fatal errors end the job
// immediately; retryable ones wait out the backoff first. Every attempt is
// counted in the progress aggregator. The job's attempt counter strictly
// increases and never exceeds the retry limit.
//
// The fetch itself runs on fetchCtx, which survives batch cancellation for
// the grace period; backoff waits use the batch ctx so a job between
// attempts gives up promptly on cancellation.
func (r *retrier) run(ctx, fetchCtx context.Context, job *models.DownloadJob) (*sratools.Outcome, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		job.Attempts = attempt
		r.progress.AttemptStarted()

		outcome, err := r.runner.Run(fetchCtx, job)
		if err == nil {
			return outcome, nil
		}
		lastErr = err

		if ctx.Err() != nil || fetchCtx.Err() != nil {
			return nil, err
		}
		if models.Classify(err) == models.ClassFatal {
			r.log.Debug().Str("accession", job.Accession).Err(err).Msg("fatal error, not retrying")
			return nil, err
		}
		if attempt == r.maxRetries {
			break
		}

		delay := Backoff(attempt, r.base, r.cap)
		r.log.Warn().
			Str("accession", job.Accession).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(err).
			Msg("fetch attempt failed, retrying")
		if r.onRetry != nil {
			r.onRetry(job, attempt, delay, err)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
