package models

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Task identifies one source texture plus the run-wide settings that apply
// to it. Tasks are immutable once created.
type Task struct {
	SourcePath        string
	OutputPath        string
	CompressionFormat string
	EnableGPU         bool
	GenerateMipmaps   bool
	EnableUpscaling   bool
	MinUpscaleDim     int
}

// ImageInfo describes a source image as reported by inspection.
type ImageInfo struct {
	Width    int
	Height   int
	Mode     string
	HasAlpha bool
}

// OutcomeKind is the terminal category of a processed task.
type OutcomeKind int

const (
	OutcomeSkippedUpToDate OutcomeKind = iota
	OutcomeConverted
	OutcomeFailed
	OutcomeCancelled
)

// String returns the summary label for an outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkippedUpToDate:
		return "skipped"
	case OutcomeConverted:
		return "converted"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Backend identifies which compression path produced a converted outcome.
type Backend int

const (
	BackendNone Backend = iota
	BackendGPU
	BackendCPU
)

// FailureKind classifies a failed outcome.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInspect
	FailureUpscale
	FailureConversion
	FailureTimeout
	FailureUnexpected
)

// String returns the log label for a failure kind.
func (f FailureKind) String() string {
	switch f {
	case FailureInspect:
		return "inspect error"
	case FailureUpscale:
		return "upscale error"
	case FailureConversion:
		return "conversion error"
	case FailureTimeout:
		return "conversion timeout"
	case FailureUnexpected:
		return "unexpected error"
	}
	return "none"
}

// Outcome is the single terminal result of one task. Exactly one Outcome is
// produced per discovered file.
type Outcome struct {
	Kind     OutcomeKind
	Backend  Backend
	Upscaled bool
	Failure  FailureKind
	Err      error
}

// StatusUpdate is the message a worker sends to the manager when a task
// reaches its terminal outcome.
type StatusUpdate struct {
	WorkerID   int
	SourcePath string
	Outcome    Outcome
	Duration   time.Duration
}

// Stats tracks aggregate counters for one run. It is owned and mutated only
// by the manager's collection loop.
type Stats struct {
	Discovered int
	Completed  int
	Converted  int
	GPU        int
	CPU        int
	Upscaled   int
	Skipped    int
	Failed     int
	Cancelled  int
	StartTime  time.Time
	EndTime    time.Time
}

// Apply folds one outcome into the counters.
func (s *Stats) Apply(o Outcome) {
	s.Completed++
	switch o.Kind {
	case OutcomeSkippedUpToDate:
		s.Skipped++
	case OutcomeConverted:
		s.Converted++
		if o.Upscaled {
			s.Upscaled++
		}
		switch o.Backend {
		case BackendGPU:
			s.GPU++
		case BackendCPU:
			s.CPU++
		}
	case OutcomeFailed:
		s.Failed++
	case OutcomeCancelled:
		s.Cancelled++
	}
}

// CancelFlag is the cooperative cancellation signal shared by the manager
// and every in-flight task. It transitions false->true at most once per run.
type CancelFlag struct {
	set atomic.Bool
}

// Set requests cancellation. Safe to call more than once.
func (c *CancelFlag) Set() { c.set.Store(true) }

// Requested reports whether cancellation has been requested.
func (c *CancelFlag) Requested() bool { return c.set.Load() }

// FormatETA renders a remaining duration the way the progress surface
// expects it, e.g. "1m 42s".
func FormatETA(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	secs := int(remaining.Seconds())
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}

// LogLevel categorizes Reporter log messages.
type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the printed prefix for a log level.
func (l LogLevel) String() string {
	switch l {
	case LevelSuccess:
		return "SUCCESS"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	}
	return "INFO"
}

// Reporter is the callback surface consumed by a presentation layer. The
// pipeline depends only on this interface, never on a concrete front end.
type Reporter interface {
	// Progress reports overall completion as a percentage, a short status
	// line, and a human-readable ETA ("" when not yet known).
	Progress(percent int, status, eta string)

	// Log emits one message at the given level.
	Log(message string, level LogLevel)
}

// NopReporter discards all callbacks. Useful in tests.
type NopReporter struct{}

func (NopReporter) Progress(int, string, string) {}
func (NopReporter) Log(string, LogLevel)         {}
