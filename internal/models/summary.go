package models

import "time"

// ProgressSnapshot is a point-in-time read of the batch's aggregate counters.
type ProgressSnapshot struct {
	Total     int
	Succeeded int64
	Failed    int64
	Skipped   int64
	Attempts  int64
	Bytes     int64
	Elapsed   time.Duration
}

// Completed returns the number of jobs in any terminal state so far.
func (s ProgressSnapshot) Completed() int64 {
	return s.Succeeded + s.Failed + s.Skipped
}

// JobResult is one job's terminal outcome as recorded in the summary.
type JobResult struct {
	Accession string
	State     JobState
	Attempts  int
	Bytes     int64
	Elapsed   time.Duration
	Err       error
}

// ResultSummary is the final accounting for a batch. Every job in the batch
// appears exactly once in Results, in batch (insertion) order.
type ResultSummary struct {
	Results      []JobResult
	Succeeded    int
	Failed       int
	Skipped      int
	NotAttempted int
	TotalBytes   int64
	TotalElapsed time.Duration
}

// Add folds a terminal job into the summary.
func (s *ResultSummary) Add(job *DownloadJob) {
	s.Results = append(s.Results, JobResult{
		Accession: job.Accession,
		State:     job.State,
		Attempts:  job.Attempts,
		Bytes:     job.Bytes,
		Elapsed:   job.Elapsed,
		Err:       job.Err,
	})
	switch job.State {
	case StateSucceeded:
		s.Succeeded++
		s.TotalBytes += job.Bytes
	case StateFailed:
		s.Failed++
	case StateSkipped:
		s.Skipped++
	case StateNotAttempted:
		s.NotAttempted++
	}
}

// Failures returns the failed results in batch order.
func (s *ResultSummary) Failures() []JobResult {
	var out []JobResult
	for _, r := range s.Results {
		if r.State == StateFailed {
			out = append(out, r)
		}
	}
	return out
}

// Total returns the number of jobs accounted for.
func (s *ResultSummary) Total() int {
	return len(s.Results)
}

// AllOK reports whether every job either succeeded or was deliberately
// skipped. Used by the CLI to pick the process exit code.
func (s *ResultSummary) AllOK() bool {
	return s.Failed == 0 && s.NotAttempted == 0
}
