//go:build windows

package signaler

import "errors"

const sigDebugger = 35

func signum(k Kind) int {
	switch k {
	case Debugger:
		return sigDebugger
	default:
		return 3 // SIGQUIT
	}
}

// defaultKill exists so the package builds on Windows; delivery needs a
// Unix thread group.
func defaultKill(int, int) error {
	return errors.New("signaler: unsupported on windows")
}
