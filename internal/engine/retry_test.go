package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gardiner-lab/seq-downloader/internal/models"
	"github.com/gardiner-lab/seq-downloader/internal/sratools"
)

// scriptedRunner fails with the queued errors in order, then succeeds.
type scriptedRunner struct {
	errs  []error
	calls int
}

func (r *scriptedRunner) Run(ctx context.Context, job *models.DownloadJob) (*sratools.Outcome, error) {
	r.calls++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return nil, err
	}
	return &sratools.Outcome{Bytes: 100}, nil
}

func testRetrier(runner sratools.Runner, maxRetries int) *retrier {
	rc := newRetrier(runner, maxRetries, 10*time.Millisecond, 100*time.Millisecond, NewProgress(1), zerolog.Nop())
	rc.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return rc
}

func TestBackoffBounds(t *testing.T) {
	base := 5 * time.Second
	cap := 60 * time.Second
	for attempt := 1; attempt <= 10; attempt++ {
		d := Backoff(attempt, base, cap)
		min := base << (attempt - 1)
		if min > cap {
			min = cap
		}
		if d < min {
			t.Errorf("attempt %d: delay %s below exponential floor %s", attempt, d, min)
		}
		if d >= min+base {
			t.Errorf("attempt %d: delay %s outside jitter window [%s, %s)", attempt, d, min, min+base)
		}
	}
}

func TestBackoffCapped(t *testing.T) {
	base := 5 * time.Second
	cap := 60 * time.Second
	// Far past the cap; must never overflow or exceed cap+jitter.
	if d := Backoff(50, base, cap); d >= cap+base {
		t.Errorf("capped delay %s should stay below %s", d, cap+base)
	}
}

func TestRetryEventualSuccess(t *testing.T) {
	runner := &scriptedRunner{errs: []error{
		&models.NetworkError{Accession: "SRR1", Err: errors.New("reset")},
		&models.TimeoutError{Accession: "SRR1", Timeout: time.Second},
	}}
	job := models.NewDownloadJob("SRR1", "out", false)

	rc := testRetrier(runner, 3)
	outcome, err := rc.run(context.Background(), context.Background(), job)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if outcome.Bytes != 100 {
		t.Errorf("outcome bytes = %d", outcome.Bytes)
	}
	if runner.calls != 3 || job.Attempts != 3 {
		t.Errorf("calls=%d attempts=%d, want 3/3", runner.calls, job.Attempts)
	}
}

func TestRetryExhausted(t *testing.T) {
	transient := &models.NetworkError{Accession: "SRR1", Err: errors.New("reset")}
	runner := &scriptedRunner{errs: []error{transient, transient, transient, transient}}
	job := models.NewDownloadJob("SRR1", "out", false)

	rc := testRetrier(runner, 3)
	_, err := rc.run(context.Background(), context.Background(), job)
	if err == nil {
		t.Fatal("exhausted retries should return the last error")
	}
	if runner.calls != 3 {
		t.Errorf("calls = %d, want exactly the retry limit", runner.calls)
	}
	if job.Attempts != 3 {
		t.Errorf("job attempts = %d, want 3", job.Attempts)
	}
}

func TestFatalErrorNotRetried(t *testing.T) {
	fatal := &models.ToolInvocationError{Tool: "prefetch", Err: errors.New("unknown accession")}
	runner := &scriptedRunner{errs: []error{fatal}}
	job := models.NewDownloadJob("SRR1", "out", false)

	rc := testRetrier(runner, 3)
	_, err := rc.run(context.Background(), context.Background(), job)
	if !errors.Is(err, fatal) {
		t.Fatalf("run error = %v, want the fatal error", err)
	}
	if runner.calls != 1 {
		t.Errorf("fatal error retried: %d calls", runner.calls)
	}
}

func TestRetryStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transient := &models.NetworkError{Accession: "SRR1", Err: errors.New("reset")}
	runner := &scriptedRunner{errs: []error{transient, transient, transient}}
	job := models.NewDownloadJob("SRR1", "out", false)

	rc := testRetrier(runner, 5)
	rc.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := rc.run(ctx, context.Background(), job)
	if err == nil {
		t.Fatal("cancelled run should fail")
	}
	if runner.calls != 1 {
		t.Errorf("no further attempt should start after cancellation, got %d calls", runner.calls)
	}
}

func TestRetryReportsViaCallback(t *testing.T) {
	transient := &models.NetworkError{Accession: "SRR1", Err: errors.New("reset")}
	runner := &scriptedRunner{errs: []error{transient}}
	job := models.NewDownloadJob("SRR1", "out", false)

	var gotAttempt int
	rc := testRetrier(runner, 3)
	rc.onRetry = func(j *models.DownloadJob, attempt int, delay time.Duration, err error) {
		gotAttempt = attempt
		if delay <= 0 {
			t.Errorf("retry delay should be positive, got %s", delay)
		}
	}

	if _, err := rc.run(context.Background(), context.Background(), job); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if gotAttempt != 1 {
		t.Errorf("onRetry attempt = %d, want 1", gotAttempt)
	}
}
