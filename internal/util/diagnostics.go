package util

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"
)

// ProcessInfo is a snapshot of the running process, logged when the
// -diagnose flag is set.
type ProcessInfo struct {
	PID         int
	Goroutines  int
	CPUCores    int
	GoVersion   string
	HeapAlloc   string
	HeapSys     string
	NumGC       uint32
	ElapsedTime time.Duration
}

// Snapshot collects current process diagnostics.
func Snapshot(startTime time.Time) ProcessInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessInfo{
		PID:         os.Getpid(),
		Goroutines:  runtime.NumGoroutine(),
		CPUCores:    runtime.NumCPU(),
		GoVersion:   runtime.Version(),
		HeapAlloc:   FormatBytes(m.HeapAlloc),
		HeapSys:     FormatBytes(m.HeapSys),
		NumGC:       m.NumGC,
		ElapsedTime: time.Since(startTime),
	}
}

// LogDiagnostics writes a diagnostics snapshot to the standard logger.
func LogDiagnostics(startTime time.Time) {
	info := Snapshot(startTime)
	log.Printf("Diagnostics: pid=%d goroutines=%d cores=%d heap=%s/%s gc=%d elapsed=%s (%s)",
		info.PID, info.Goroutines, info.CPUCores,
		info.HeapAlloc, info.HeapSys, info.NumGC,
		info.ElapsedTime.Round(time.Millisecond), info.GoVersion)
}

// StartDiagnosticMonitor logs a snapshot every interval until the returned
// channel is closed.
func StartDiagnosticMonitor(startTime time.Time, interval time.Duration) chan struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				LogDiagnostics(startTime)
			}
		}
	}()
	return stop
}

// FormatBytes returns a human-readable byte string.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
