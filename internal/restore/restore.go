// Package restore deletes compressed outputs so the game falls back to the
// original source textures. An output is only removed when its source
// sibling still exists; orphaned outputs are left untouched.
package restore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"texopt/internal/discover"
	"texopt/internal/models"
)

// Stats holds the restore run counters.
type Stats struct {
	Found   int
	Deleted int
	Skipped int
	Errors  int
}

// Run sweeps root for compressed outputs and deletes each one whose source
// sibling exists. The sweep is sequential: it is dominated by filesystem
// metadata calls, not CPU work. Cancellation is checked once per item.
func Run(root string, cancel *models.CancelFlag, rep models.Reporter) Stats {
	var stats Stats

	rep.Log("Scanning for DDS files in: "+root, models.LevelInfo)
	outputs := discover.FindOutputs(root, rep)
	stats.Found = len(outputs)

	if len(outputs) == 0 {
		rep.Log("No DDS files found to restore.", models.LevelInfo)
		rep.Progress(100, "No DDS files found.", "")
		return stats
	}

	rep.Log(fmt.Sprintf("Found %d DDS files.", len(outputs)), models.LevelInfo)
	start := time.Now()

	for i, outputPath := range outputs {
		if cancel.Requested() {
			rep.Log("Restoration cancelled by user.", models.LevelWarning)
			break
		}

		processed := i + 1
		percent := processed * 100 / len(outputs)
		eta := "Calculating..."
		if i > 0 {
			perFile := time.Since(start) / time.Duration(processed)
			eta = "ETA: " + models.FormatETA(perFile*time.Duration(len(outputs)-processed))
		}
		rep.Progress(percent,
			fmt.Sprintf("Processing %d/%d: %s", processed, len(outputs), filepath.Base(outputPath)), eta)

		sourcePath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + discover.SourceExt
		if _, err := os.Stat(sourcePath); err != nil {
			stats.Skipped++
			continue
		}

		if err := os.Remove(outputPath); err != nil {
			stats.Errors++
			rep.Log("Error deleting "+outputPath+": "+err.Error(), models.LevelError)
			continue
		}
		stats.Deleted++
		rep.Log("Deleted: "+outputPath+" (source still present)", models.LevelSuccess)
	}

	if !cancel.Requested() {
		rep.Log("Restoration complete.", models.LevelSuccess)
	}
	rep.Log(fmt.Sprintf("DDS files deleted:         %d", stats.Deleted), models.LevelInfo)
	rep.Log(fmt.Sprintf("DDS files skipped (no source): %d", stats.Skipped), models.LevelInfo)
	if stats.Errors > 0 {
		rep.Log(fmt.Sprintf("Errors during deletion:    %d", stats.Errors), models.LevelError)
	} else {
		rep.Log("Errors during deletion:    0", models.LevelInfo)
	}
	return stats
}
