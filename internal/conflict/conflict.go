// Package conflict decides what happens when a job's output files already
// exist: skip the job, overwrite, or redirect the fetch to a renamed path.
package conflict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gardiner-lab/seq-downloader/internal/config"
	"github.com/gardiner-lab/seq-downloader/internal/models"
)

// Decision is the outcome of resolving a conflicting job.
type Decision int

const (
	DecisionSkip Decision = iota
	DecisionOverwrite
	DecisionRename
)

// DecideFunc supplies the decision for the "ask" policy. It is invoked at
// most once per conflicting job per batch; existing is the first conflicting
// path, shown to the user. Only the asking job's dispatch blocks on it.
type DecideFunc func(job *models.DownloadJob, existing string) (Decision, error)

// Resolution tells the scheduler how to proceed with a job.
type Resolution struct {
	Skip  bool
	Paths []string // fetch targets, possibly renamed
}

// Resolver applies the batch's conflict policy to individual jobs.
type Resolver struct {
	Policy          config.ConflictPolicy
	MinCompleteSize int64
	Decide          DecideFunc // required when Policy is "ask"

	now func() time.Time // stubbed in tests for deterministic suffixes
}

// NewResolver creates a resolver for the given policy. decide may be nil for
// non-interactive policies.
func NewResolver(policy config.ConflictPolicy, minCompleteSize int64, decide DecideFunc) *Resolver {
	return &Resolver{
		Policy:          policy,
		MinCompleteSize: minCompleteSize,
		Decide:          decide,
		now:             time.Now,
	}
}

// Resolve inspects the job's intended output paths. Files below the
// incomplete-size threshold are always re-fetched regardless of policy.
// Only complete pre-existing files trigger the policy.
func (r *Resolver) Resolve(job *models.DownloadJob) (*Resolution, error) {
	var existing string
	for _, p := range job.OutputPaths {
		info, err := os.Stat(p)
		if err != nil {
			continue // missing or unreadable: nothing to protect
		}
		if info.Size() < r.MinCompleteSize {
			continue // incomplete leftover, recreate it
		}
		existing = p
		break
	}

	if existing == "" {
		return &Resolution{Paths: job.OutputPaths}, nil
	}

	decision, err := r.decide(job, existing)
	if err != nil {
		return nil, err
	}

	switch decision {
	case DecisionSkip:
		return &Resolution{Skip: true, Paths: job.OutputPaths}, nil
	case DecisionOverwrite:
		return &Resolution{Paths: job.OutputPaths}, nil
	case DecisionRename:
		return &Resolution{Paths: r.renamed(job.OutputPaths)}, nil
	}
	return nil, fmt.Errorf("unknown conflict decision %d", decision)
}

func (r *Resolver) decide(job *models.DownloadJob, existing string) (Decision, error) {
	switch r.Policy {
	case config.ConflictSkip:
		return DecisionSkip, nil
	case config.ConflictOverwrite:
		return DecisionOverwrite, nil
	case config.ConflictRename:
		return DecisionRename, nil
	case config.ConflictAsk:
		if r.Decide == nil {
			return 0, fmt.Errorf("conflict policy is ask but no decision callback is set")
		}
		return r.Decide(job, existing)
	}
	return 0, fmt.Errorf("unknown conflict policy %q", r.Policy)
}

// renamed redirects every output path of the job to a timestamp-suffixed
// alternative, leaving the pre-existing files untouched. Both files of a
// split pair get the same suffix so they stay recognizable as a pair.
func (r *Resolver) renamed(paths []string) []string {
	suffix := r.now().Format("20060102_150405")
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = uniquePath(withSuffix(p, suffix))
	}
	return out
}

// withSuffix inserts a suffix before the extension:
// "SRR1_1.fastq" -> "SRR1_1_20240101_120000.fastq".
func withSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%s%s", base, suffix, ext)
}

// uniquePath appends a counter if the candidate itself already exists
// (two renames of the same accession within one second).
func uniquePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
