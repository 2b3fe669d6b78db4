// Package progress renders batch progress: mpb bars on a terminal, plain
// text lines otherwise. The engine talks to it through the Reporter
// interface so tests can pass a no-op.
package progress

import (
	"time"

	"github.com/gardiner-lab/seq-downloader/internal/models"
)

// Reporter receives job lifecycle notifications from the engine. Calls may
// arrive concurrently from multiple workers.
type Reporter interface {
	BatchStarted(total int)
	JobStarted(accession string)
	JobRetrying(accession string, attempt int, delay time.Duration, err error)
	JobFinished(job *models.DownloadJob)
	Wait()
}

// Nop is a Reporter that discards everything.
type Nop struct{}

func (Nop) BatchStarted(int)                              {}
func (Nop) JobStarted(string)                             {}
func (Nop) JobRetrying(string, int, time.Duration, error) {}
func (Nop) JobFinished(*models.DownloadJob)               {}
func (Nop) Wait()                                         {}
