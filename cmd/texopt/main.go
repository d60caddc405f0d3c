package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"texopt/internal/check"
	"texopt/internal/config"
	"texopt/internal/converter"
	"texopt/internal/manager"
	"texopt/internal/models"
	"texopt/internal/restore"
	"texopt/internal/texconv"
	"texopt/internal/util"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	// A panic anywhere maps to exit 1 with a message rather than a raw
	// stack trace on a user's terminal.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "ERROR: unexpected error: %v\n", r)
			code = 1
		}
	}()

	cfg := config.Load(config.DefaultFileName)

	if len(os.Args) < 2 {
		printUsage()
		return 0
	}

	switch os.Args[1] {
	case "convert":
		return runConvert(cfg, os.Args[2:])
	case "restore":
		return runRestore(cfg, os.Args[2:])
	case "build-executable":
		return runBuildExecutable()
	case "configure-paths":
		return runConfigurePaths(cfg)
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println("texopt - batch texture converter (PNG -> DDS)")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  texopt convert [-no-gpu] [-workers N] [-verbose] [-diagnose]")
	fmt.Println("        Convert textures to DDS alongside their sources")
	fmt.Println("  texopt restore")
	fmt.Println("        Delete DDS files whose source PNG still exists")
	fmt.Println("  texopt build-executable")
	fmt.Println("        Build a standalone binary into ./dist")
	fmt.Println("  texopt configure-paths")
	fmt.Println("        Interactively set the mods and compressor paths")
	fmt.Println()
	fmt.Printf("Settings are persisted in %s\n", config.DefaultFileName)
}

func runConvert(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	noGPU := fs.Bool("no-gpu", false, "Disable GPU acceleration for this run")
	workers := fs.Int("workers", cfg.WorkerCount, "Number of conversion workers")
	verbose := fs.Bool("verbose", false, "Enable verbose output")
	diagnose := fs.Bool("diagnose", false, "Periodically log process diagnostics")
	_ = fs.Parse(args)

	if *noGPU {
		cfg.EnableGPU = false
	}
	cfg.WorkerCount = *workers
	cfg.Verbose = *verbose

	rep := newConsoleReporter()
	defer rep.Finish()

	if err := check.Run(cfg, rep); err != nil {
		rep.Log(err.Error(), models.LevelError)
		return 1
	}

	startTime := time.Now()
	if *diagnose {
		stop := util.StartDiagnosticMonitor(startTime, 30*time.Second)
		defer close(stop)
	}

	invoker := texconv.New(cfg.TexconvPath)
	conv := converter.New(invoker, rep)
	mgr := manager.New(cfg, conv, rep)

	// SIGINT requests cooperative cancellation; in-flight compressor
	// invocations still run to completion or their own timeout.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		rep.Log(fmt.Sprintf("Received signal %v, finishing in-flight files...", sig), models.LevelWarning)
		mgr.Stop()
	}()

	rep.Log(fmt.Sprintf("Workers: %d | GPU: %v | Upscaling: %v | Format: %s",
		cfg.WorkerCount, cfg.EnableGPU, cfg.EnableUpscaling, cfg.CompressionFormat), models.LevelInfo)

	stats := mgr.Run()

	if *diagnose {
		util.LogDiagnostics(startTime)
	}
	if stats.Cancelled > 0 {
		return 1
	}
	return 0
}

func runRestore(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	_ = fs.Parse(args)

	rep := newConsoleReporter()
	defer rep.Finish()

	if err := check.Root(cfg); err != nil {
		rep.Log(err.Error(), models.LevelError)
		return 1
	}

	var cancel models.CancelFlag
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		if _, ok := <-sigChan; ok {
			cancel.Set()
		}
	}()

	stats := restore.Run(cfg.ModsPath, &cancel, rep)
	if stats.Errors > 0 {
		return 1
	}
	return 0
}

// runBuildExecutable shells out to the Go toolchain to produce a
// distributable binary, mirroring the old packaging step.
func runBuildExecutable() int {
	out := "dist/texopt"
	if runtime.GOOS == "windows" {
		out += ".exe"
	}

	fmt.Printf("Building standalone executable: %s\n", out)
	cmd := exec.Command("go", "build", "-o", out, "./cmd/texopt")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: build failed: %v\n", err)
		return 1
	}
	fmt.Println("Executable built successfully.")
	return 0
}

// runConfigurePaths interactively updates the persisted paths.
func runConfigurePaths(cfg *config.Config) int {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("Current mods path: %s\n", cfg.ModsPath)
	fmt.Print("Enter new path (or press Enter to keep current): ")
	if line, err := reader.ReadString('\n'); err == nil {
		if line = strings.TrimSpace(line); line != "" {
			cfg.ModsPath = line
		}
	}

	fmt.Printf("Current compressor path: %s\n", cfg.TexconvPath)
	fmt.Print("Enter new path (or press Enter to keep current): ")
	if line, err := reader.ReadString('\n'); err == nil {
		if line = strings.TrimSpace(line); line != "" {
			cfg.TexconvPath = line
		}
	}

	if err := cfg.Save(config.DefaultFileName); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not save configuration: %v\n", err)
		return 1
	}
	fmt.Println("Configuration saved.")
	return 0
}
