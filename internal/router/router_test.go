package router

import (
	"testing"

	"github.com/loykin/dumpkey/internal/gesture"
	"github.com/loykin/dumpkey/internal/notify"
	"github.com/loykin/dumpkey/internal/proctab"
	"github.com/loykin/dumpkey/internal/secmode"
	"github.com/loykin/dumpkey/internal/signaler"
)

type fakeMatcher struct {
	threads   map[string]proctab.Descriptor
	processes map[string]proctab.Descriptor
}

func (f fakeMatcher) FindThreadByName(name string) (proctab.Descriptor, bool) {
	d, ok := f.threads[name]
	return d, ok
}

func (f fakeMatcher) FindProcessByName(name string) (proctab.Descriptor, bool) {
	d, ok := f.processes[name]
	return d, ok
}

type sigCall struct {
	target proctab.Descriptor
	kind   signaler.Kind
}

type fakeSignaler struct{ calls []sigCall }

func (f *fakeSignaler) SignalAndWait(target proctab.Descriptor, kind signaler.Kind) {
	f.calls = append(f.calls, sigCall{target, kind})
}

type fakeNotifier struct{ scheduled []notify.Kind }

func (f *fakeNotifier) Schedule(kind notify.Kind) { f.scheduled = append(f.scheduled, kind) }

type harness struct {
	r      *Router
	sig    *fakeSignaler
	not    *fakeNotifier
	toggle *secmode.Toggle

	halts  []string
	serial int
}

func newHarness(dumpMode bool, m fakeMatcher) *harness {
	h := &harness{sig: &fakeSignaler{}, not: &fakeNotifier{}, toggle: secmode.NewToggle()}
	h.r = New(m, h.sig, h.not, h.toggle, Capabilities{
		DumpModeEnabled:    func() bool { return dumpMode },
		FatalHalt:          func(marker string) { h.halts = append(h.halts, marker) },
		EnableForcedSerial: func() { h.serial++ },
	})
	return h
}

func TestForceDumpEnabled(t *testing.T) {
	h := newHarness(true, fakeMatcher{})
	h.r.Dispatch(gesture.Action{Kind: gesture.ForceDump})
	if len(h.halts) != 1 || h.halts[0] != DumpMarker {
		t.Fatalf("expected one halt with marker %q, got %v", DumpMarker, h.halts)
	}
}

func TestForceDumpDisabledAbsorbed(t *testing.T) {
	h := newHarness(false, fakeMatcher{})
	res := h.r.Dispatch(gesture.Action{Kind: gesture.ForceDump})
	if len(h.halts) != 0 {
		t.Fatalf("dump mode disabled must not halt, got %v", h.halts)
	}
	if res != ResultAbsorbed {
		t.Fatalf("expected ResultAbsorbed, got %v", res)
	}
}

func TestCaptureTraceUsesThreadScanAndQuit(t *testing.T) {
	m := fakeMatcher{threads: map[string]proctab.Descriptor{
		"system_server": {Name: "system_server", PID: 5, TGID: 5},
	}}
	h := newHarness(false, m)
	h.r.Dispatch(gesture.Action{Kind: gesture.CaptureTrace, Target: "system_server"})
	if len(h.sig.calls) != 1 {
		t.Fatalf("expected one signal, got %d", len(h.sig.calls))
	}
	if h.sig.calls[0].kind != signaler.Quit || h.sig.calls[0].target.TGID != 5 {
		t.Fatalf("unexpected call %+v", h.sig.calls[0])
	}
}

func TestCaptureTombstoneUsesProcessScanAndDebugger(t *testing.T) {
	m := fakeMatcher{processes: map[string]proctab.Descriptor{
		"mediaserver": {Name: "mediaserver", PID: 9, TGID: 9},
	}}
	h := newHarness(false, m)
	h.r.Dispatch(gesture.Action{Kind: gesture.CaptureTombstone, Target: "mediaserver"})
	if len(h.sig.calls) != 1 || h.sig.calls[0].kind != signaler.Debugger {
		t.Fatalf("unexpected calls %+v", h.sig.calls)
	}
}

func TestCaptureNoMatchIsSilent(t *testing.T) {
	h := newHarness(false, fakeMatcher{})
	r1 := h.r.Dispatch(gesture.Action{Kind: gesture.CaptureTrace, Target: "ghost"})
	r2 := h.r.Dispatch(gesture.Action{Kind: gesture.CaptureTombstone, Target: "ghost"})
	if len(h.sig.calls) != 0 {
		t.Fatalf("no match must be a no-op, got %+v", h.sig.calls)
	}
	if r1 != ResultNoMatch || r2 != ResultNoMatch {
		t.Fatalf("expected ResultNoMatch, got %v %v", r1, r2)
	}
}

func TestEnableDebugNotify(t *testing.T) {
	h := newHarness(false, fakeMatcher{})
	h.r.Dispatch(gesture.Action{Kind: gesture.EnableDebugNotify})
	if h.toggle.Enforcing() {
		t.Fatal("enforcement must flip to permissive")
	}
	if len(h.not.scheduled) != 1 || h.not.scheduled[0] != notify.DebugEnabled {
		t.Fatalf("expected DebugEnabled scheduled, got %v", h.not.scheduled)
	}
}

func TestEnableSerialForceNotify(t *testing.T) {
	h := newHarness(false, fakeMatcher{})
	h.r.Dispatch(gesture.Action{Kind: gesture.EnableSerialForceNotify})
	if h.serial != 1 {
		t.Fatalf("expected one forced-serial invocation, got %d", h.serial)
	}
	if len(h.not.scheduled) != 1 || h.not.scheduled[0] != notify.SerialForceEnabled {
		t.Fatalf("expected SerialForceEnabled scheduled, got %v", h.not.scheduled)
	}
	if !h.toggle.Enforcing() {
		t.Fatal("serial branch must not touch enforcement")
	}
}
