//go:build !windows

package executor

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const defaultBackend = BackendSignal

// setProcessGroup puts the child in its own group so a kill reaches the
// JVM that Maven forks as well.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalKiller() (Killer, error) {
	return SignalKiller{}, nil
}

// SignalKiller sends SIGTERM to the process group, waits for the grace
// period and then sends SIGKILL to the group.
type SignalKiller struct{}

func (SignalKiller) Kill(pid int, grace time.Duration, exited <-chan struct{}) error {
	if err := unix.Kill(-pid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("terminate group %d: %w", pid, err)
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-exited:
	case <-timer.C:
	}

	// Children may outlive the group leader.
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("kill group %d: %w", pid, err)
	}
	return nil
}
