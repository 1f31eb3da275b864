package proctab

import "strings"

// Matcher finds at most one live task satisfying the lookup predicate.
type Matcher struct {
	enum Enumerator
}

func NewMatcher(enum Enumerator) *Matcher { return &Matcher{enum: enum} }

// FindThreadByName scans the thread-level enumeration and returns the first
// match, or false when nothing matches. Used for trace capture.
func (m *Matcher) FindThreadByName(name string) (Descriptor, bool) {
	ts, err := m.enum.Threads()
	if err != nil {
		return Descriptor{}, false
	}
	return firstMatch(ts, name)
}

// FindProcessByName scans thread-group leaders only. Used for tombstone
// capture.
func (m *Matcher) FindProcessByName(name string) (Descriptor, bool) {
	ps, err := m.enum.Processes()
	if err != nil {
		return Descriptor{}, false
	}
	return firstMatch(ps, name)
}

func firstMatch(ds []Descriptor, name string) (Descriptor, bool) {
	for _, d := range ds {
		if matches(d, name) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// matches implements the lookup predicate. A task matches either by exact
// bounded name comparison, or structurally: a "Binder:" thread that is its
// own group leader, owned by uid 1000, whose parent is named "main". The
// structural rule deliberately ignores the requested name; it exists to
// catch the system binder service whatever lookup triggered the scan, and
// its breadth is preserved as-is.
func matches(d Descriptor, name string) bool {
	if commEqual(d.Name, name) {
		return true
	}
	if strings.HasPrefix(d.Name, "Binder:") && d.TGID == d.PID &&
		d.UID == 1000 && d.ParentName == "main" {
		return true
	}
	return false
}

// commEqual compares two task names truncated to CommLen bytes.
func commEqual(a, b string) bool {
	if len(a) > CommLen {
		a = a[:CommLen]
	}
	if len(b) > CommLen {
		b = b[:CommLen]
	}
	return a == b
}
