// Package models defines the data structures shared across the downloader:
// jobs, batch results, and the error taxonomy.
package models

import (
	"fmt"
	"path/filepath"
	"time"
)

// JobState represents the lifecycle state of a download job.
type JobState string

const (
	StatePending      JobState = "pending"
	StateRunning      JobState = "running"
	StateSucceeded    JobState = "succeeded"
	StateFailed       JobState = "failed"
	StateSkipped      JobState = "skipped"
	StateNotAttempted JobState = "not_attempted"
)

// DownloadJob is one accession's unit of work. A job is created when the batch
// starts and is owned by exactly one worker at a time, so its fields are
// mutated without locking. Once the job reaches a terminal state it is only
// read (folded into the batch summary).
type DownloadJob struct {
	Accession   string
	OutputPaths []string // one path, or the _1/_2 pair when split mode is on

	State    JobState
	Attempts int
	Err      error
	Bytes    int64
	Elapsed  time.Duration
}

// NewDownloadJob creates a pending job for an accession. Output paths follow
// the fixed layout: <dir>/<acc>.fastq for single-file mode, or
// <dir>/<acc>_1.fastq and <dir>/<acc>_2.fastq when paired splitting is on.
func NewDownloadJob(accession, outputDir string, split bool) *DownloadJob {
	var paths []string
	if split {
		paths = []string{
			filepath.Join(outputDir, accession+"_1.fastq"),
			filepath.Join(outputDir, accession+"_2.fastq"),
		}
	} else {
		paths = []string{filepath.Join(outputDir, accession+".fastq")}
	}
	return &DownloadJob{
		Accession:   accession,
		OutputPaths: paths,
		State:       StatePending,
	}
}

// IsTerminal reports whether the job has reached a terminal state.
// No transition out of a terminal state is allowed.
func (j *DownloadJob) IsTerminal() bool {
	switch j.State {
	case StateSucceeded, StateFailed, StateSkipped, StateNotAttempted:
		return true
	}
	return false
}

// Fail records the final error and moves the job to Failed.
func (j *DownloadJob) Fail(err error) {
	j.Err = err
	j.State = StateFailed
}

// Succeed records the transfer result and moves the job to Succeeded.
func (j *DownloadJob) Succeed(bytes int64, elapsed time.Duration) {
	j.Bytes = bytes
	j.Elapsed = elapsed
	j.State = StateSucceeded
}

func (j *DownloadJob) String() string {
	return fmt.Sprintf("Job[%s state=%s attempts=%d]", j.Accession, j.State, j.Attempts)
}
