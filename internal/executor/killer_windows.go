//go:build windows

package executor

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

const defaultBackend = BackendTree

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

func signalKiller() (Killer, error) {
	return nil, errors.New("signal kill backend needs process groups; use \"tree\"")
}
