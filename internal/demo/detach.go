package demo

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	daemon "github.com/sevlyar/go-daemon"

	"github.com/fleetdash/fleetdash/internal/paths"
)

// Detach re-executes the current command as a background process that owns
// the demo pid file. In the parent it returns the child's pid and
// parent=true; in the child it returns parent=false plus a release func to
// call on exit.
func Detach() (pid int, parent bool, release func(), err error) {
	if _, err := paths.EnsureRuntimeDir(); err != nil {
		return 0, false, nil, err
	}

	ctx := &daemon.Context{
		PidFileName: paths.DemoPIDPath(),
		PidFilePerm: 0600,
		LogFileName: paths.DemoLogPath(),
		LogFilePerm: 0600,
		Umask:       027,
		Args:        os.Args,
	}

	child, err := ctx.Reborn()
	if err != nil {
		if errors.Is(err, daemon.ErrWouldBlock) {
			return 0, false, nil, errors.New("a demo server is already running (see 'fleetdash demo --stop')")
		}
		return 0, false, nil, fmt.Errorf("failed to detach: %w", err)
	}
	if child != nil {
		return child.Pid, true, nil, nil
	}
	return os.Getpid(), false, func() { ctx.Release() }, nil
}

// RunningPID returns the pid of a detached demo server, or 0
func RunningPID() int {
	pid, err := daemon.ReadPidFile(paths.DemoPIDPath())
	if err != nil || pid <= 0 {
		return 0
	}
	if syscall.Kill(pid, 0) != nil {
		return 0
	}
	return pid
}

// Stop signals a detached demo server to shut down
func Stop() (int, error) {
	pid := RunningPID()
	if pid == 0 {
		return 0, errors.New("no detached demo server is running")
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return 0, fmt.Errorf("failed to stop demo server (pid %d): %w", pid, err)
	}
	return pid, nil
}
