// Package check validates the environment before a batch starts: the mods
// root must exist and the external compressor must be present and runnable.
// Failures here are fatal to the run, unlike per-file errors.
package check

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"texopt/internal/config"
	"texopt/internal/models"
)

// Sentinel errors returned by Run when the environment is unusable.
var (
	ErrModsPathNotFound = errors.New("mods path not found or not a directory")
	ErrToolNotFound     = errors.New("compressor tool not found")
	ErrToolFailed       = errors.New("compressor tool failed to run")
)

// probeTimeout bounds the tool smoke test.
const probeTimeout = 10 * time.Second

// Root validates only the mods root. Restore uses this: deleting outputs
// does not depend on the compressor tool.
func Root(cfg *config.Config) error {
	fi, err := os.Stat(cfg.ModsPath)
	if err != nil || !fi.IsDir() {
		return ErrModsPathNotFound
	}
	return nil
}

// Run performs the pre-batch validation. When cfg.TexconvPath is empty the
// tool is searched on PATH and the resolved location written back to cfg.
func Run(cfg *config.Config, rep models.Reporter) error {
	if err := Root(cfg); err != nil {
		return err
	}

	if cfg.TexconvPath == "" {
		path, lookErr := exec.LookPath("texconv")
		if lookErr != nil {
			return ErrToolNotFound
		}
		cfg.TexconvPath = path
	} else if _, err := os.Stat(cfg.TexconvPath); err != nil {
		return ErrToolNotFound
	}

	// Smoke test: the tool must start and finish. A nonzero exit is fine,
	// running it with no arguments just prints usage.
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, cfg.TexconvPath)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return ErrToolFailed
		}
	}

	rep.Log("Compressor tool available: "+cfg.TexconvPath, models.LevelSuccess)
	return nil
}
