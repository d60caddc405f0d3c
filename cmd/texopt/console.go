package main

import (
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"

	"texopt/internal/models"
)

// consoleReporter renders pipeline callbacks on the terminal: a progress
// bar for Progress updates and prefixed lines for Log messages.
type consoleReporter struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newConsoleReporter() *consoleReporter {
	return &consoleReporter{}
}

// Progress updates the bar. The bar is created on the first callback so
// runs that never report progress print nothing.
func (r *consoleReporter) Progress(percent int, status, eta string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar == nil {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription("Converting"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	desc := status
	if eta != "" {
		desc += " | " + eta
	}
	r.bar.Describe(desc)
	_ = r.bar.Set(percent)
}

// Log prints one message above the bar.
func (r *consoleReporter) Log(message string, level models.LogLevel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("%s: %s", level, message)
	if r.bar != nil && !r.bar.IsFinished() {
		progressbar.Bprintln(r.bar, line)
		return
	}
	fmt.Println(line)
}

// Finish closes out the bar so the shell prompt lands on a fresh line.
func (r *consoleReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
		fmt.Println()
	}
}
