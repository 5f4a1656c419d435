//go:build unix

package main

import (
	"os/exec"
	"syscall"
)

// configureDaemonProcess starts pmdrilld in its own session so closing the
// terminal does not deliver SIGHUP to it.
func configureDaemonProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
