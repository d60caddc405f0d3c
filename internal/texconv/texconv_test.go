package texconv

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
	"time"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "minimal",
			req: Request{
				Input:  "/mods/m/tex.png",
				Output: "/mods/m/tex.dds",
				Format: "BC7_UNORM",
			},
			want: []string{"-f", "BC7_UNORM", "-o", "/mods/m", "-y", "-ft", "dds", "/mods/m/tex.png"},
		},
		{
			name: "all options",
			req: Request{
				Input:   "/mods/m/tex.png",
				Output:  "/mods/m/tex.dds",
				Format:  "BC7_UNORM",
				Alpha:   true,
				Mipmaps: true,
				GPU:     true,
			},
			want: []string{"-f", "BC7_UNORM", "-o", "/mods/m", "-y", "-ft", "dds",
				"-m", "0", "-pmalpha", "-gpu", "0", "/mods/m/tex.png"},
		},
		{
			name: "mipmaps only",
			req: Request{
				Input:   "/in.png",
				Output:  "/out/in.dds",
				Format:  "BC3_UNORM",
				Mipmaps: true,
			},
			want: []string{"-f", "BC3_UNORM", "-o", "/out", "-y", "-ft", "dds", "-m", "0", "/in.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildArgs(tt.req)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

// fakeTool writes an executable shell script standing in for the external
// compressor.
func fakeTool(t *testing.T, dir, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts require a POSIX shell")
	}
	path := filepath.Join(dir, "faketexconv")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// producingScript emulates the real tool's behavior of writing
// <input basename>.dds into the -o directory.
const producingScript = `
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
  last="$a"
done
base=$(basename "$last")
base="${base%.*}"
: > "$out/$base.dds"
`

func TestConvert_Success(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "tex.png")
	if err := os.WriteFile(input, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	inv := New(fakeTool(t, dir, producingScript))
	err := inv.Convert(Request{Input: input, Output: filepath.Join(dir, "tex.dds"), Format: "BC7_UNORM"})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "tex.dds")); err != nil {
		t.Error("output file missing after successful conversion")
	}
}

func TestConvert_RenamesNaturalOutput(t *testing.T) {
	dir := t.TempDir()
	// The tool is handed a temp flipped copy but the caller wants the
	// output named after the original source.
	input := filepath.Join(dir, "temp_flipped_tex_123_abcd.png")
	if err := os.WriteFile(input, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "tex.dds")

	inv := New(fakeTool(t, dir, producingScript))
	if err := inv.Convert(Request{Input: input, Output: output, Format: "BC7_UNORM"}); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if _, err := os.Stat(output); err != nil {
		t.Error("renamed output missing")
	}
	if _, err := os.Stat(filepath.Join(dir, "temp_flipped_tex_123_abcd.dds")); err == nil {
		t.Error("natural output should have been renamed away")
	}
}

func TestConvert_NonzeroExit(t *testing.T) {
	dir := t.TempDir()
	inv := New(fakeTool(t, dir, `echo "bad input" >&2; exit 3`))

	err := inv.Convert(Request{Input: filepath.Join(dir, "x.png"), Output: filepath.Join(dir, "x.dds"), Format: "BC7_UNORM"})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("want ToolError, got %v", err)
	}
	if toolErr.Stderr == "" {
		t.Error("ToolError should capture stderr")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("nonzero exit must not be conflated with a timeout")
	}
}

func TestConvert_MissingOutput(t *testing.T) {
	dir := t.TempDir()
	inv := New(fakeTool(t, dir, "exit 0"))

	err := inv.Convert(Request{Input: filepath.Join(dir, "x.png"), Output: filepath.Join(dir, "x.dds"), Format: "BC7_UNORM"})
	if !errors.Is(err, ErrMissingOutput) {
		t.Fatalf("want ErrMissingOutput, got %v", err)
	}
}

func TestConvert_Timeout(t *testing.T) {
	dir := t.TempDir()
	inv := New(fakeTool(t, dir, "sleep 5"))
	inv.Timeout = 100 * time.Millisecond

	start := time.Now()
	err := inv.Convert(Request{Input: filepath.Join(dir, "x.png"), Output: filepath.Join(dir, "x.dds"), Format: "BC7_UNORM"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout was not enforced")
	}
}

func TestConvert_ToolMissing(t *testing.T) {
	dir := t.TempDir()
	inv := New(filepath.Join(dir, "no-such-tool"))

	err := inv.Convert(Request{Input: filepath.Join(dir, "x.png"), Output: filepath.Join(dir, "x.dds"), Format: "BC7_UNORM"})
	if err == nil {
		t.Fatal("expected error for missing tool")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("startup failure must not be reported as a timeout")
	}
}
