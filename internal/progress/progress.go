// Package progress provides pull-based progress reporting: producers push
// updates into the Reporter, consumers receive them over subscriber
// channels. Updates are serialized, so counters observed by any one
// subscriber are monotonic.
package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseWalking  Phase = "walking"
	PhaseHashing  Phase = "hashing"
	PhaseCleaning Phase = "cleaning"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// ScanProgress represents progress during a duplicate scan.
type ScanProgress struct {
	Phase            Phase     `json:"phase"`
	CurrentDirectory string    `json:"current_directory"`
	FilesScanned     int       `json:"files_scanned"`
	TotalFiles       int       `json:"total_files"`
	CurrentFile      string    `json:"current_file"`
	Percentage       float64   `json:"percentage"`
	StartTime        time.Time `json:"-"`
	Error            error     `json:"-"`
}

// CleanProgress represents progress during cleanup.
type CleanProgress struct {
	Phase        Phase     `json:"phase"`
	CurrentFile  string    `json:"current_file"`
	RemovedFiles int       `json:"removed_files"`
	TotalFiles   int       `json:"total_files"`
	FreedBytes   int64     `json:"freed_bytes"`
	TotalBytes   int64     `json:"total_bytes"`
	StartTime    time.Time `json:"-"`
	Error        error     `json:"-"`
}

// Reporter provides thread-safe progress reporting
type Reporter struct {
	scanProgress  *ScanProgress
	cleanProgress *CleanProgress
	mu            sync.RWMutex
	listeners     []chan interface{}
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan interface{}, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (r *Reporter) Subscribe() <-chan interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan interface{}, 64)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// HasListeners reports whether anyone is subscribed. Producers use this to
// skip work that only exists to feed progress (e.g. pre-counting files).
func (r *Reporter) HasListeners() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners) > 0
}

// UpdateScan records scan progress and notifies listeners.
func (r *Reporter) UpdateScan(update *ScanProgress) {
	r.mu.Lock()
	r.scanProgress = update
	r.notifyLocked(update)
	r.mu.Unlock()
}

// UpdateClean records cleanup progress and notifies listeners.
func (r *Reporter) UpdateClean(update *CleanProgress) {
	r.mu.Lock()
	r.cleanProgress = update
	r.notifyLocked(update)
	r.mu.Unlock()
}

// notifyLocked fans an update out to subscribers without blocking: a slow
// subscriber drops updates rather than stalling the walk.
func (r *Reporter) notifyLocked(update interface{}) {
	for _, listener := range r.listeners {
		select {
		case listener <- update:
		default:
		}
	}
}

// ScanSnapshot returns the most recent scan progress.
func (r *Reporter) ScanSnapshot() *ScanProgress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scanProgress
}

// CleanSnapshot returns the most recent cleanup progress.
func (r *Reporter) CleanSnapshot() *CleanProgress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cleanProgress
}

// FormatScan returns a human-readable scan progress line.
func FormatScan(p *ScanProgress) string {
	if p == nil {
		return "Initializing..."
	}

	switch p.Phase {
	case PhaseWalking:
		return fmt.Sprintf("Scanning %s... %d/%d files (%.1f%%)",
			p.CurrentDirectory, p.FilesScanned, p.TotalFiles, p.Percentage)
	case PhaseHashing:
		return fmt.Sprintf("Hashing candidates... %d/%d files",
			p.FilesScanned, p.TotalFiles)
	case PhaseComplete:
		return fmt.Sprintf("Scan complete: %d files in %s",
			p.FilesScanned, time.Since(p.StartTime).Round(time.Second))
	case PhaseError:
		return fmt.Sprintf("Scan error: %v", p.Error)
	default:
		return "Scanning..."
	}
}

// FormatClean returns a human-readable cleanup progress line.
func FormatClean(p *CleanProgress) string {
	if p == nil {
		return "Preparing..."
	}

	switch p.Phase {
	case PhaseCleaning:
		return fmt.Sprintf("Cleaning... %d/%d files - %s freed",
			p.RemovedFiles, p.TotalFiles, humanize.IBytes(uint64(p.FreedBytes)))
	case PhaseComplete:
		return fmt.Sprintf("Cleanup complete: %d files removed (%s) in %s",
			p.RemovedFiles, humanize.IBytes(uint64(p.FreedBytes)),
			time.Since(p.StartTime).Round(time.Second))
	case PhaseError:
		return fmt.Sprintf("Cleanup error: %v", p.Error)
	default:
		return "Preparing cleanup..."
	}
}
