package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/gardiner-lab/seq-downloader/internal/models"
)

// BatchUI reports batch progress on stderr. On a terminal it renders one
// mpb bar counting completed jobs plus a live status line per finished job;
// off-terminal it degrades to plain text so logs stay readable.
type BatchUI struct {
	progress   *mpb.Progress
	bar        *mpb.Bar
	isTerminal bool
	mu         sync.Mutex
}

// NewBatchUI creates the batch progress renderer.
func NewBatchUI() *BatchUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(60),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &BatchUI{progress: p, isTerminal: isTerminal}
}

// BatchStarted sets up the overall jobs-completed bar.
func (u *BatchUI) BatchStarted(total int) {
	u.bar = u.progress.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name("downloads ", decor.WCSyncSpace),
			decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.Name("  "),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
		),
	)
	if !u.isTerminal {
		fmt.Fprintf(os.Stderr, "Starting download of %d accession(s)\n", total)
	}
}

// JobStarted is a no-op on the bar; per-job byte progress is not available
// from the external tool, so only terminal transitions are rendered.
func (u *BatchUI) JobStarted(accession string) {
	if !u.isTerminal {
		fmt.Fprintf(os.Stderr, "  fetching %s...\n", accession)
	}
}

// JobRetrying surfaces a retry so a stalled-looking batch explains itself.
func (u *BatchUI) JobRetrying(accession string, attempt int, delay time.Duration, err error) {
	u.println(fmt.Sprintf("  retry %s (attempt %d failed, waiting %s): %v",
		accession, attempt, delay.Round(time.Millisecond), err))
}

// JobFinished advances the bar and prints the job's terminal status line.
func (u *BatchUI) JobFinished(job *models.DownloadJob) {
	if u.bar != nil {
		u.bar.Increment()
	}
	switch job.State {
	case models.StateSucceeded:
		u.println(fmt.Sprintf("✓ %s (%s)", job.Accession, formatBytes(job.Bytes)))
	case models.StateFailed:
		u.println(fmt.Sprintf("✗ %s: %v", job.Accession, job.Err))
	case models.StateSkipped:
		u.println(fmt.Sprintf("- %s skipped (already present)", job.Accession))
	}
}

// Wait flushes and stops the bar rendering.
func (u *BatchUI) Wait() {
	if u.bar != nil && !u.bar.Completed() {
		u.bar.Abort(false)
	}
	u.progress.Wait()
}

// println writes a line without corrupting bar output: through mpb's
// writer proxy on a terminal, straight to stderr otherwise.
func (u *BatchUI) println(line string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.isTerminal {
		u.progress.Write([]byte(line + "\n"))
		return
	}
	fmt.Fprintln(os.Stderr, line)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
