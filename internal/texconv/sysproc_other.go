//go:build !windows

package texconv

import "os/exec"

// hideConsoleWindow is a no-op outside Windows.
func hideConsoleWindow(*exec.Cmd) {}
