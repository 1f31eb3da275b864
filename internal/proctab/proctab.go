// Package proctab locates live processes and threads by name so the
// dispatcher can signal them for trace or tombstone capture.
package proctab

// CommLen is the fixed comparison length for task names, matching the
// kernel's bounded command-name field. Names are compared truncated to this
// many bytes.
const CommLen = 16

// Descriptor is a read-only snapshot of one live task. It is re-queried on
// every match attempt, never cached.
type Descriptor struct {
	Name       string
	PID        int
	TGID       int
	UID        int
	ParentName string
}

// Enumerator supplies live task snapshots. Threads enumerates every thread
// of every process; Processes enumerates thread-group leaders only. The
// enumeration order is implementation-defined and the matcher consumes at
// most one match from it.
type Enumerator interface {
	Threads() ([]Descriptor, error)
	Processes() ([]Descriptor, error)
}
