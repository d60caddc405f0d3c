// Package imageops wraps the raster operations the conversion pipeline
// needs: inspection, upscaling, and orientation correction. All pixel work
// is delegated to the imaging library.
package imageops

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "image/png"

	"texopt/internal/models"
)

// Inspect reads the header of the image at path and reports its dimensions
// and alpha presence without decoding the pixel data.
func Inspect(path string) (models.ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.ImageInfo{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return models.ImageInfo{}, fmt.Errorf("failed to decode image header: %w", err)
	}

	return models.ImageInfo{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Mode:     format,
		HasAlpha: modelHasAlpha(cfg.ColorModel),
	}, nil
}

// modelHasAlpha reports whether a decoded color model carries transparency.
// The PNG decoder reports RGBAModel for opaque truecolor and the NRGBA
// family only when an alpha channel is actually present, so RGBA models do
// not count. Paletted images count only when some palette entry is
// translucent.
func modelHasAlpha(m color.Model) bool {
	switch m {
	case color.NRGBAModel, color.NRGBA64Model, color.AlphaModel, color.Alpha16Model:
		return true
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a < 0xffff {
				return true
			}
		}
	}
	return false
}

// Upscale resizes the image at src to width x height using Lanczos
// resampling and writes the result to dst as PNG.
func Upscale(src, dst string, width, height int) error {
	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open image for upscaling: %w", err)
	}
	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	if err := imaging.Save(resized, dst); err != nil {
		return fmt.Errorf("failed to save upscaled image: %w", err)
	}
	return nil
}

// FlipVertical writes a vertically mirrored copy of src to dst. The target
// runtime samples textures with an inverted vertical axis, so every image
// is flipped before it is handed to the compressor.
func FlipVertical(src, dst string) error {
	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open image for flipping: %w", err)
	}
	if err := imaging.Save(imaging.FlipV(img), dst); err != nil {
		return fmt.Errorf("failed to save flipped image: %w", err)
	}
	return nil
}

// TempPath returns a collision-free temporary PNG path next to src. The
// name carries a millisecond timestamp and a random token so concurrent
// tasks on similarly named files can never collide.
func TempPath(src, label string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	token := uuid.NewString()[:8]
	name := fmt.Sprintf("%s_%s_%d_%s.png", label, base, time.Now().UnixMilli(), token)
	return filepath.Join(filepath.Dir(src), name)
}

// Remove deletes a temporary file if it exists, reporting a warning on
// failure. Missing files are fine: cleanup runs on every exit path,
// including ones where the temp file was never created.
func Remove(path string, rep models.Reporter) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		rep.Log("Could not remove temporary file "+path+": "+err.Error(), models.LevelWarning)
	}
}
