//go:build linux

package proctab

import (
	"os"
	"strconv"
	"strings"
)

// ProcfsEnumerator reads live task snapshots from /proc. It implements
// Enumerator over the real process table; tests use fakes instead.
type ProcfsEnumerator struct {
	// Root overrides the proc mount point, default "/proc".
	Root string
}

func (e ProcfsEnumerator) root() string {
	if e.Root != "" {
		return e.Root
	}
	return "/proc"
}

func (e ProcfsEnumerator) Processes() ([]Descriptor, error) {
	pids, err := listNumeric(e.root())
	if err != nil {
		return nil, err
	}
	out := make([]Descriptor, 0, len(pids))
	for _, pid := range pids {
		d, err := e.readTask(pid, pid)
		if err != nil {
			continue // task exited mid-scan
		}
		out = append(out, d)
	}
	return out, nil
}

func (e ProcfsEnumerator) Threads() ([]Descriptor, error) {
	pids, err := listNumeric(e.root())
	if err != nil {
		return nil, err
	}
	var out []Descriptor
	for _, pid := range pids {
		tids, err := listNumeric(e.root() + "/" + strconv.Itoa(pid) + "/task")
		if err != nil {
			continue
		}
		for _, tid := range tids {
			d, err := e.readTask(pid, tid)
			if err != nil {
				continue
			}
			out = append(out, d)
		}
	}
	return out, nil
}

// readTask builds a Descriptor from /proc/<pid>/task/<tid>/status plus the
// parent's comm.
func (e ProcfsEnumerator) readTask(pid, tid int) (Descriptor, error) {
	base := e.root() + "/" + strconv.Itoa(pid) + "/task/" + strconv.Itoa(tid)
	b, err := os.ReadFile(base + "/status")
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{PID: tid}
	var ppid int
	for _, line := range strings.Split(string(b), "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch k {
		case "Name":
			d.Name = v
		case "Tgid":
			d.TGID, _ = strconv.Atoi(v)
		case "PPid":
			ppid, _ = strconv.Atoi(v)
		case "Uid":
			if f := strings.Fields(v); len(f) > 0 {
				d.UID, _ = strconv.Atoi(f[0])
			}
		}
	}
	if ppid > 0 {
		if pb, err := os.ReadFile(e.root() + "/" + strconv.Itoa(ppid) + "/comm"); err == nil {
			d.ParentName = strings.TrimSpace(string(pb))
		}
	}
	return d, nil
}

func listNumeric(dir string) ([]int, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(ents))
	for _, ent := range ents {
		n, err := strconv.Atoi(ent.Name())
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
