package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultFileName is the JSON settings file persisted between runs.
const DefaultFileName = "texopt_config.json"

// Conversion defaults shared by the CLI and any front end.
const (
	DefaultFormat        = "BC7_UNORM"
	DefaultMinUpscaleDim = 256
	maxWorkers           = 8
)

// Config holds application configuration
type Config struct {
	ModsPath          string // Root of the mod collection to scan
	TexconvPath       string // Path to the external compressor executable
	EnableGPU         bool   // Prefer GPU-accelerated compression
	EnableUpscaling   bool   // Upscale small textures before compression
	CompressionFormat string // Target format passed to the compressor
	GenerateMipmaps   bool   // Ask the compressor to generate mipmaps
	MinUpscaleDim     int    // Upscale when either dimension is below this
	WindowGeometry    string // Presentation-layer only, persisted untouched
	WorkerCount       int    // Size of the conversion worker pool
	Verbose           bool
}

// Default returns a Config with the documented defaults applied.
func Default() *Config {
	return &Config{
		CompressionFormat: DefaultFormat,
		EnableGPU:         true,
		EnableUpscaling:   true,
		GenerateMipmaps:   true,
		MinUpscaleDim:     DefaultMinUpscaleDim,
		WorkerCount:       DefaultWorkerCount(),
	}
}

// DefaultWorkerCount bounds the pool by available parallelism plus headroom
// for tasks blocked on the external tool, capped at maxWorkers.
func DefaultWorkerCount() int {
	n := runtime.NumCPU() + 4
	if n > maxWorkers {
		n = maxWorkers
	}
	return n
}

// fileConfig is the persisted shape. Keys match the settings file written
// by earlier releases, so existing files keep working.
type fileConfig struct {
	ModsPath          *string `json:"rimworld_mods_path,omitempty"`
	TexconvPath       *string `json:"texconv_path,omitempty"`
	EnableGPU         *bool   `json:"enable_gpu,omitempty"`
	EnableUpscaling   *bool   `json:"enable_upscaling,omitempty"`
	CompressionFormat *string `json:"compression_format,omitempty"`
	GenerateMipmaps   *bool   `json:"generate_mipmaps,omitempty"`
	WindowGeometry    *string `json:"window_geometry,omitempty"`
}

// Load reads the settings file at path and overlays it on the defaults.
// A missing or corrupt file is not an error: the defaults are returned
// unchanged so a damaged settings file can never block a run.
func Load(path string) *Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return cfg
	}

	if fc.ModsPath != nil {
		cfg.ModsPath = *fc.ModsPath
	}
	if fc.TexconvPath != nil {
		cfg.TexconvPath = *fc.TexconvPath
	}
	if fc.EnableGPU != nil {
		cfg.EnableGPU = *fc.EnableGPU
	}
	if fc.EnableUpscaling != nil {
		cfg.EnableUpscaling = *fc.EnableUpscaling
	}
	if fc.CompressionFormat != nil && *fc.CompressionFormat != "" {
		cfg.CompressionFormat = *fc.CompressionFormat
	}
	if fc.GenerateMipmaps != nil {
		cfg.GenerateMipmaps = *fc.GenerateMipmaps
	}
	if fc.WindowGeometry != nil {
		cfg.WindowGeometry = *fc.WindowGeometry
	}
	return cfg
}

// Save writes the persistable settings to path as indented JSON.
func (c *Config) Save(path string) error {
	fc := fileConfig{
		ModsPath:          &c.ModsPath,
		TexconvPath:       &c.TexconvPath,
		EnableGPU:         &c.EnableGPU,
		EnableUpscaling:   &c.EnableUpscaling,
		CompressionFormat: &c.CompressionFormat,
		GenerateMipmaps:   &c.GenerateMipmaps,
		WindowGeometry:    &c.WindowGeometry,
	}

	data, err := json.MarshalIndent(&fc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
