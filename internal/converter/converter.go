// Package converter implements the per-file conversion state machine:
// freshness check, inspection, conditional upscale, orientation correction,
// and the GPU-then-CPU compression attempt.
package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"texopt/internal/imageops"
	"texopt/internal/models"
	"texopt/internal/texconv"
)

// Compressor abstracts the external tool so the state machine can be tested
// without a real compressor on disk.
type Compressor interface {
	Convert(req texconv.Request) error
}

// Converter processes one task at a time. It holds no per-task state, so a
// single Converter is shared safely by every worker.
type Converter struct {
	comp Compressor
	rep  models.Reporter
}

// New creates a Converter backed by comp, reporting through rep.
func New(comp Compressor, rep models.Reporter) *Converter {
	return &Converter{comp: comp, rep: rep}
}

// OutputPath derives the compressed output path for a source file: same
// directory, same base name, .dds extension.
func OutputPath(sourcePath string) string {
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".dds"
}

// Process runs the state machine for one task and returns its single
// terminal outcome. The source file is never modified; all intermediate
// images are uniquely named temporaries removed on every exit path.
func (c *Converter) Process(task models.Task, cancel *models.CancelFlag) (outcome models.Outcome) {
	base := filepath.Base(task.SourcePath)

	if cancel.Requested() {
		return models.Outcome{Kind: models.OutcomeCancelled}
	}

	if c.upToDate(task) {
		c.rep.Log("Skipping (output newer): "+base, models.LevelInfo)
		return models.Outcome{Kind: models.OutcomeSkippedUpToDate}
	}

	info, err := imageops.Inspect(task.SourcePath)
	if err != nil {
		c.rep.Log("Could not read image info for "+base+": "+err.Error(), models.LevelError)
		return models.Outcome{Kind: models.OutcomeFailed, Failure: models.FailureInspect, Err: err}
	}

	var tempUpscaled, tempFlipped string
	defer func() {
		imageops.Remove(tempUpscaled, c.rep)
		imageops.Remove(tempFlipped, c.rep)
	}()

	current := task.SourcePath
	upscaled := false

	if cancel.Requested() {
		return models.Outcome{Kind: models.OutcomeCancelled}
	}

	if task.EnableUpscaling && (info.Width < task.MinUpscaleDim || info.Height < task.MinUpscaleDim) {
		newWidth := max(1, info.Width*2)
		newHeight := max(1, info.Height*2)

		tempUpscaled = imageops.TempPath(task.SourcePath, "temp_upscaled")
		c.rep.Log(fmt.Sprintf("Upscaling %s from %dx%d to %dx%d",
			base, info.Width, info.Height, newWidth, newHeight), models.LevelInfo)

		if err := imageops.Upscale(task.SourcePath, tempUpscaled, newWidth, newHeight); err != nil {
			c.rep.Log("Failed to upscale "+base+": "+err.Error(), models.LevelError)
			return models.Outcome{Kind: models.OutcomeFailed, Failure: models.FailureUpscale, Err: err}
		}
		current = tempUpscaled
		upscaled = true
	}

	if cancel.Requested() {
		return models.Outcome{Kind: models.OutcomeCancelled, Upscaled: upscaled}
	}

	// Orientation correction. A flip failure degrades rather than fails:
	// the unflipped image still converts, it just renders upside down.
	tempFlipped = imageops.TempPath(task.SourcePath, "temp_flipped")
	if err := imageops.FlipVertical(current, tempFlipped); err != nil {
		c.rep.Log("Failed to flip "+base+": "+err.Error(), models.LevelWarning)
		c.rep.Log("Proceeding with unflipped texture (may render upside down)", models.LevelWarning)
		imageops.Remove(tempFlipped, c.rep)
		tempFlipped = ""
	} else {
		current = tempFlipped
	}

	req := texconv.Request{
		Input:   current,
		Output:  task.OutputPath,
		Format:  task.CompressionFormat,
		Alpha:   info.HasAlpha,
		Mipmaps: task.GenerateMipmaps,
	}

	if task.EnableGPU {
		c.rep.Log(fmt.Sprintf("Converting (GPU): %s -> %s", base, filepath.Base(task.OutputPath)), models.LevelInfo)
		req.GPU = true
		if err := c.comp.Convert(req); err == nil {
			return models.Outcome{Kind: models.OutcomeConverted, Backend: models.BackendGPU, Upscaled: upscaled}
		} else {
			c.rep.Log("GPU conversion failed for "+base+", trying CPU: "+err.Error(), models.LevelWarning)
		}
	}

	c.rep.Log(fmt.Sprintf("Converting (CPU): %s -> %s", base, filepath.Base(task.OutputPath)), models.LevelInfo)
	req.GPU = false
	if err := c.comp.Convert(req); err != nil {
		c.rep.Log("Conversion failed for "+base+": "+err.Error(), models.LevelError)
		failure := models.FailureConversion
		if errors.Is(err, texconv.ErrTimeout) {
			failure = models.FailureTimeout
		}
		return models.Outcome{Kind: models.OutcomeFailed, Failure: failure, Upscaled: upscaled, Err: err}
	}
	return models.Outcome{Kind: models.OutcomeConverted, Backend: models.BackendCPU, Upscaled: upscaled}
}

// upToDate reports whether the output exists and is strictly newer than the
// source. A stat error during the comparison logs a warning and counts as
// stale so the file is processed rather than silently dropped.
func (c *Converter) upToDate(task models.Task) bool {
	outInfo, err := os.Stat(task.OutputPath)
	if err != nil {
		return false
	}
	srcInfo, err := os.Stat(task.SourcePath)
	if err != nil {
		c.rep.Log("Error checking mtime for "+task.SourcePath+": "+err.Error()+". Will attempt processing.",
			models.LevelWarning)
		return false
	}
	return outInfo.ModTime().After(srcInfo.ModTime())
}
