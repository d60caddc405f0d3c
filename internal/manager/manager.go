// Package manager owns the batch conversion run: discovery, the worker
// pool, outcome collection, statistics, and progress/ETA reporting.
package manager

import (
	"fmt"
	"path/filepath"
	"time"

	"texopt/internal/config"
	"texopt/internal/converter"
	"texopt/internal/discover"
	"texopt/internal/models"
	"texopt/internal/worker"
)

// Manager distributes discovered files across a fixed-size worker pool and
// aggregates their outcomes. The collection loop is the only writer of the
// run statistics, so they need no locking.
type Manager struct {
	cfg       *config.Config
	processor worker.Processor
	rep       models.Reporter
	cancel    models.CancelFlag
	stats     models.Stats
}

// New creates a manager that processes files with processor and reports
// through rep.
func New(cfg *config.Config, processor worker.Processor, rep models.Reporter) *Manager {
	return &Manager{cfg: cfg, processor: processor, rep: rep}
}

// Stop requests cooperative cancellation. Unstarted tasks drain as
// cancelled; in-flight tasks run to their next checkpoint. Safe to call
// from any goroutine, more than once.
func (m *Manager) Stop() {
	m.cancel.Set()
}

// Stats returns the counters accumulated so far. Call after Run returns.
func (m *Manager) Stats() models.Stats {
	return m.stats
}

// Run executes the batch and returns the final statistics. Every discovered
// file produces exactly one outcome; a failure in one file never stops the
// rest of the batch.
func (m *Manager) Run() models.Stats {
	m.stats = models.Stats{StartTime: time.Now()}

	m.rep.Log("Scanning mods in: "+m.cfg.ModsPath, models.LevelInfo)
	files := discover.Find(m.cfg.ModsPath, m.rep)
	m.stats.Discovered = len(files)

	if len(files) == 0 {
		m.rep.Log("No PNG files found in the mods folder.", models.LevelInfo)
		m.rep.Progress(100, "No PNG files found.", "")
		m.stats.EndTime = time.Now()
		return m.stats
	}

	m.rep.Log(fmt.Sprintf("Found %d PNG files to process.", len(files)), models.LevelInfo)
	m.rep.Progress(0, fmt.Sprintf("Preparing to process %d files...", len(files)), "ETA: Calculating...")

	workerCount := m.cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = config.DefaultWorkerCount()
	}
	if workerCount > len(files) {
		workerCount = len(files)
	}

	// Buffering both channels to the batch size lets the enqueue loop and
	// the workers proceed without ever blocking on each other.
	taskChan := make(chan models.Task, len(files))
	statusCh := make(chan models.StatusUpdate, len(files))

	workers := make([]*worker.Worker, workerCount)
	for i := range workers {
		workers[i] = worker.New(i, taskChan, statusCh, m.processor, &m.cancel)
		workers[i].Start()
	}

	for _, path := range files {
		taskChan <- models.Task{
			SourcePath:        path,
			OutputPath:        converter.OutputPath(path),
			CompressionFormat: m.cfg.CompressionFormat,
			EnableGPU:         m.cfg.EnableGPU,
			GenerateMipmaps:   m.cfg.GenerateMipmaps,
			EnableUpscaling:   m.cfg.EnableUpscaling,
			MinUpscaleDim:     m.cfg.MinUpscaleDim,
		}
	}
	close(taskChan)

	loopStart := time.Now()
	for range files {
		update := <-statusCh
		m.stats.Apply(update.Outcome)
		if update.Outcome.Kind == models.OutcomeFailed && update.Outcome.Err != nil {
			m.rep.Log(fmt.Sprintf("Failed (%s): %s: %v",
				update.Outcome.Failure, filepath.Base(update.SourcePath), update.Outcome.Err),
				models.LevelError)
		}
		m.reportProgress(loopStart)
	}

	for _, w := range workers {
		<-w.Done()
	}
	m.stats.EndTime = time.Now()

	m.logSummary()
	return m.stats
}

// reportProgress recomputes percentage and ETA after one completion and
// emits a progress callback.
func (m *Manager) reportProgress(loopStart time.Time) {
	s := &m.stats
	percent := s.Completed * 100 / s.Discovered

	eta := ""
	if s.Completed > 0 {
		elapsed := time.Since(loopStart)
		perFile := elapsed / time.Duration(s.Completed)
		remaining := perFile * time.Duration(s.Discovered-s.Completed)
		eta = "ETA: " + models.FormatETA(remaining)
	}

	status := fmt.Sprintf("Processed: %d/%d (S: %d, F: %d, Sk: %d, Up: %d)",
		s.Completed, s.Discovered, s.Converted, s.Failed+s.Cancelled, s.Skipped, s.Upscaled)
	m.rep.Progress(percent, status, eta)
}

// logSummary emits the end-of-run report. Every category is listed even
// when zero. Cancelled tasks count toward the failure line but are also
// reported separately so a cancelled run still shows what completed.
func (m *Manager) logSummary() {
	s := &m.stats
	elapsed := s.EndTime.Sub(s.StartTime).Round(10 * time.Millisecond)

	if m.cancel.Requested() {
		m.rep.Log(fmt.Sprintf("Conversion stopped by user. Processed %d/%d before stopping.",
			s.Completed-s.Cancelled, s.Discovered), models.LevelWarning)
	} else {
		m.rep.Log("Texture conversion completed.", models.LevelSuccess)
	}

	m.rep.Log(fmt.Sprintf("Files discovered:       %d", s.Discovered), models.LevelInfo)
	m.rep.Log(fmt.Sprintf("Files converted:        %d", s.Converted), models.LevelInfo)
	m.rep.Log(fmt.Sprintf("  - GPU conversions:    %d", s.GPU), models.LevelInfo)
	m.rep.Log(fmt.Sprintf("  - CPU conversions:    %d", s.CPU), models.LevelInfo)
	m.rep.Log(fmt.Sprintf("Files upscaled:         %d", s.Upscaled), models.LevelInfo)
	m.rep.Log(fmt.Sprintf("Files skipped (newer):  %d", s.Skipped), models.LevelInfo)
	m.rep.Log(fmt.Sprintf("Errors encountered:     %d (incl. %d cancelled)", s.Failed+s.Cancelled, s.Cancelled),
		models.LevelInfo)
	m.rep.Log(fmt.Sprintf("Total processing time:  %s", elapsed), models.LevelInfo)
}
