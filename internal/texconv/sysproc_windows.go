//go:build windows

package texconv

import (
	"os/exec"
	"syscall"
)

// hideConsoleWindow prevents the child process from flashing a console
// window when the application runs without one.
func hideConsoleWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
