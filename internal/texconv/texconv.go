// Package texconv invokes the external DDS compressor as a child process
// and maps its exit status plus output-file presence onto typed errors.
package texconv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single compressor invocation. Timeouts are per
// invocation, never per batch.
const DefaultTimeout = 90 * time.Second

// Sentinel errors for the failure kinds callers need to tell apart.
var (
	// ErrTimeout means the tool ran past the per-invocation deadline.
	ErrTimeout = errors.New("compressor timed out")
	// ErrMissingOutput means the tool exited zero but produced no output file.
	ErrMissingOutput = errors.New("compressor produced no output file")
	// ErrOutputMove means the tool succeeded but its natural output could
	// not be renamed to the requested path.
	ErrOutputMove = errors.New("failed to move compressor output")
)

// ToolError is a nonzero exit from the compressor, with captured output.
type ToolError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := "compressor failed: " + e.Err.Error()
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Request describes one compression invocation.
type Request struct {
	Input   string // image handed to the tool
	Output  string // desired output path
	Format  string // compressed format identifier, e.g. BC7_UNORM
	Alpha   bool   // request premultiplied alpha
	Mipmaps bool   // generate all mipmap levels
	GPU     bool   // use GPU-accelerated compression
}

// Invoker runs the external compressor.
type Invoker struct {
	ToolPath string
	Timeout  time.Duration
}

// New returns an Invoker for the tool at toolPath with the default timeout.
func New(toolPath string) *Invoker {
	return &Invoker{ToolPath: toolPath, Timeout: DefaultTimeout}
}

// BuildArgs constructs the tool's argument list deterministically from req.
// The contract is:
//
//	-f <FORMAT> -o <output_dir> -y -ft dds [-m 0] [-pmalpha] [-gpu 0] <input>
func BuildArgs(req Request) []string {
	args := []string{
		"-f", req.Format,
		"-o", filepath.Dir(req.Output),
		"-y",
		"-ft", "dds",
	}
	if req.Mipmaps {
		args = append(args, "-m", "0")
	}
	if req.Alpha {
		args = append(args, "-pmalpha")
	}
	if req.GPU {
		args = append(args, "-gpu", "0")
	}
	return append(args, req.Input)
}

// Convert runs one compression. Success means the tool exited zero and the
// requested output file exists afterwards. The tool derives its output name
// from the input basename, so when that differs from the requested path the
// natural output is renamed into place.
func (inv *Invoker) Convert(req Request) error {
	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// The deadline context derives from Background on purpose: a run-level
	// cancellation must not kill an in-flight invocation, which runs to
	// completion or to its own timeout.
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := BuildArgs(req)
	cmd := exec.CommandContext(ctx, inv.ToolPath, args...)
	hideConsoleWindow(cmd)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if err != nil {
		return &ToolError{Args: args, Stderr: output.String(), Err: err}
	}

	natural := naturalOutput(req)
	if natural != req.Output {
		if _, statErr := os.Stat(natural); statErr == nil {
			if mvErr := os.Rename(natural, req.Output); mvErr != nil {
				return fmt.Errorf("%w: %v", ErrOutputMove, mvErr)
			}
		}
	}
	if _, statErr := os.Stat(req.Output); statErr != nil {
		return fmt.Errorf("%w (expected %s)", ErrMissingOutput, req.Output)
	}
	return nil
}

// naturalOutput is the path the tool writes on its own: the input basename
// with a .dds extension, inside the requested output directory.
func naturalOutput(req Request) string {
	base := strings.TrimSuffix(filepath.Base(req.Input), filepath.Ext(req.Input))
	return filepath.Join(filepath.Dir(req.Output), base+".dds")
}
