//go:build !windows

package signaler

import "golang.org/x/sys/unix"

// sigDebugger is the crash-handler signal: real-time base + 3.
const sigDebugger = 35

func signum(k Kind) int {
	switch k {
	case Debugger:
		return sigDebugger
	default:
		return int(unix.SIGQUIT)
	}
}

// defaultKill signals the thread group leader, which delivers to the whole
// thread group.
func defaultKill(tgid int, signum int) error {
	return unix.Kill(tgid, unix.Signal(signum))
}
