package sratools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gardiner-lab/seq-downloader/internal/models"
)

// Outcome is the result of one successful fetch invocation.
type Outcome struct {
	Bytes   int64
	Elapsed time.Duration
	Paths   []string
}

// Runner performs the actual data transfer for one job. The concrete
// external-tool binding is injected so the engine can be tested with a fake.
type Runner interface {
	Run(ctx context.Context, job *models.DownloadJob) (*Outcome, error)
}

// ToolRunner fetches one accession with prefetch and converts it to FASTQ
// with fasterq-dump. All work happens in a per-job staging directory under
// the output directory; files are moved to their final paths only after the
// sizes check out, so no partial file is ever visible at a canonical path.
type ToolRunner struct {
	Toolkit         *Toolkit
	OutputDir       string
	SplitFiles      bool
	Timeout         time.Duration
	MinCompleteSize int64
	Log             zerolog.Logger
}

// Run executes the two-step fetch for job. It is cancellable: cancelling ctx
// terminates the running tool process. Exceeding the per-invocation timeout
// is reported as a TimeoutError (retryable network-class).
func (r *ToolRunner) Run(ctx context.Context, job *models.DownloadJob) (*Outcome, error) {
	start := time.Now()

	stageDir := filepath.Join(r.OutputDir, ".seqdl-stage-"+job.Accession)
	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return nil, &models.ToolInvocationError{Tool: prefetchName, Err: err}
	}
	defer os.RemoveAll(stageDir)

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	prefetchArgs := []string{job.Accession, "--output-directory", stageDir}
	if err := r.runTool(runCtx, ctx, job.Accession, prefetchName, r.Toolkit.PrefetchPath, prefetchArgs, stageDir); err != nil {
		return nil, err
	}

	dumpArgs := []string{job.Accession, "--outdir", stageDir}
	if r.SplitFiles {
		dumpArgs = append(dumpArgs, "--split-files")
	}
	if err := r.runTool(runCtx, ctx, job.Accession, fasterqDumpName, r.Toolkit.FasterqDumpPath, dumpArgs, stageDir); err != nil {
		return nil, err
	}

	r.cleanupSRA(stageDir, job.Accession)

	outcome, err := r.promote(stageDir, job)
	if err != nil {
		return nil, err
	}
	outcome.Elapsed = time.Since(start)

	r.Log.Debug().
		Str("accession", job.Accession).
		Int64("bytes", outcome.Bytes).
		Dur("elapsed", outcome.Elapsed).
		Msg("fetch complete")
	return outcome, nil
}

// runTool runs one toolkit binary, mapping its failure modes onto the error
// taxonomy: deadline -> TimeoutError, cancel -> ctx error, network-looking
// stderr -> NetworkError, anything else -> ToolInvocationError.
func (r *ToolRunner) runTool(runCtx, parent context.Context, accession, name, path string, args []string, workDir string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Dir = workDir
	cmd.Stderr = &stderr

	r.Log.Debug().Str("tool", name).Str("accession", accession).Msg("invoking fetch tool")

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return &models.TimeoutError{Accession: accession, Timeout: r.Timeout}
	}
	if parent.Err() != nil {
		return parent.Err()
	}

	msg := stderr.String()
	if looksLikeNetworkFailure(msg) {
		return &models.NetworkError{
			Accession: accession,
			Err:       fmt.Errorf("%s: %s", name, strings.TrimSpace(msg)),
		}
	}
	return &models.ToolInvocationError{Tool: name, Err: err, Stderr: msg}
}

// promote verifies the produced FASTQ files and moves them to the job's
// final output paths. The rename is atomic on the same volume, which holds
// because the staging dir lives inside the output directory.
func (r *ToolRunner) promote(stageDir string, job *models.DownloadJob) (*Outcome, error) {
	outcome := &Outcome{}
	for _, finalPath := range job.OutputPaths {
		staged := filepath.Join(stageDir, producedName(job.Accession, finalPath))
		info, err := os.Stat(staged)
		if err != nil {
			return nil, &models.ToolInvocationError{
				Tool: fasterqDumpName,
				Err:  fmt.Errorf("expected output %s was not produced", filepath.Base(staged)),
			}
		}
		if info.Size() < r.MinCompleteSize {
			return nil, &models.ToolInvocationError{
				Tool: fasterqDumpName,
				Err:  fmt.Errorf("output %s is only %d bytes, below the %d byte completeness threshold", filepath.Base(staged), info.Size(), r.MinCompleteSize),
			}
		}
		if err := os.Rename(staged, finalPath); err != nil {
			return nil, &models.ToolInvocationError{Tool: fasterqDumpName, Err: err}
		}
		outcome.Bytes += info.Size()
		outcome.Paths = append(outcome.Paths, finalPath)
	}
	return outcome, nil
}

// producedName maps a (possibly rename-redirected) final path back to the
// fixed name fasterq-dump writes: the accession plus the _1/_2 suffix. The
// match must anchor on "_1."/"_1_" because a rename timestamp also starts
// with a digit.
func producedName(accession, finalPath string) string {
	base := filepath.Base(finalPath)
	for _, n := range []string{"1", "2"} {
		if strings.HasPrefix(base, accession+"_"+n+".") || strings.HasPrefix(base, accession+"_"+n+"_") {
			return accession + "_" + n + ".fastq"
		}
	}
	return accession + ".fastq"
}

// cleanupSRA removes the intermediate .sra cache prefetch leaves behind.
func (r *ToolRunner) cleanupSRA(stageDir, accession string) {
	sraFile := filepath.Join(stageDir, accession, accession+".sra")
	if err := os.Remove(sraFile); err == nil {
		// Remove the per-accession directory too if now empty.
		_ = os.Remove(filepath.Join(stageDir, accession))
	}
}

// looksLikeNetworkFailure inspects tool stderr for transient failure
// signatures. The toolkit reports these in varying formats, so this is
// substring matching over the lowercased output.
func looksLikeNetworkFailure(stderr string) bool {
	s := strings.ToLower(stderr)
	for _, pattern := range []string{
		"timeout",
		"timed out",
		"connection reset",
		"connection refused",
		"connection failed",
		"broken pipe",
		"name resolution",
		"no route to host",
		"network unreachable",
		"server busy",
		"service unavailable",
		"transfer incomplete",
	} {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}
