package engine

import (
	"sync/atomic"
	"time"

	"github.com/gardiner-lab/seq-downloader/internal/models"
)

// Progress holds the batch's aggregate counters. Workers update it with
// atomic increments from their own job transitions only; Snapshot can be
// read at any time without blocking them. Counters are append-only for the
// lifetime of a batch.
type Progress struct {
	total     int
	start     time.Time
	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	attempts  atomic.Int64
	bytes     atomic.Int64
}

// NewProgress creates the aggregator for a batch of total jobs.
func NewProgress(total int) *Progress {
	return &Progress{total: total, start: time.Now()}
}

// AttemptStarted counts one fetch attempt (initial or retry).
func (p *Progress) AttemptStarted() {
	p.attempts.Add(1)
}

// JobSucceeded records a successful job and its transferred bytes.
func (p *Progress) JobSucceeded(bytes int64) {
	p.succeeded.Add(1)
	p.bytes.Add(bytes)
}

// JobFailed records a terminally failed job.
func (p *Progress) JobFailed() {
	p.failed.Add(1)
}

// JobSkipped records a job skipped by conflict resolution.
func (p *Progress) JobSkipped() {
	p.skipped.Add(1)
}

// Snapshot returns a point-in-time read of the counters.
func (p *Progress) Snapshot() models.ProgressSnapshot {
	return models.ProgressSnapshot{
		Total:     p.total,
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
		Skipped:   p.skipped.Load(),
		Attempts:  p.attempts.Load(),
		Bytes:     p.bytes.Load(),
		Elapsed:   time.Since(p.start),
	}
}
