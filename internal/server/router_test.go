package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loykin/dumpkey/internal/engine"
	sq "github.com/loykin/dumpkey/internal/journal/sqlite"
	"github.com/loykin/dumpkey/internal/notify"
	"github.com/loykin/dumpkey/internal/proctab"
	"github.com/loykin/dumpkey/internal/router"
	"github.com/loykin/dumpkey/internal/secmode"
	"github.com/loykin/dumpkey/internal/signaler"
)

type fakeMatcher struct{ threads map[string]proctab.Descriptor }

func (f fakeMatcher) FindThreadByName(name string) (proctab.Descriptor, bool) {
	d, ok := f.threads[name]
	return d, ok
}

func (f fakeMatcher) FindProcessByName(name string) (proctab.Descriptor, bool) {
	d, ok := f.threads[name]
	return d, ok
}

type fakeSignaler struct{ calls int }

func (f *fakeSignaler) SignalAndWait(proctab.Descriptor, signaler.Kind) { f.calls++ }

type fakeNotifier struct{ scheduled []notify.Kind }

func (f *fakeNotifier) Schedule(k notify.Kind) { f.scheduled = append(f.scheduled, k) }

func newTestEngine(t *testing.T) (*engine.Engine, *fakeSignaler) {
	t.Helper()
	jdb, err := sq.New(":memory:")
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if err := jdb.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	t.Cleanup(func() { _ = jdb.Close() })

	sig := &fakeSignaler{}
	m := fakeMatcher{threads: map[string]proctab.Descriptor{
		"system_server": {Name: "system_server", PID: 3, TGID: 3},
	}}
	r := router.New(m, sig, &fakeNotifier{}, secmode.NewToggle(), router.Capabilities{
		DumpModeEnabled:    func() bool { return false },
		FatalHalt:          func(string) {},
		EnableForcedSerial: func() {},
	})
	return engine.New(engine.Options{Router: r, Journal: jdb}), sig
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStatusEndpoint(t *testing.T) {
	eng, _ := newTestEngine(t)
	h := NewRouter(eng, "/api").Handler()

	w := doJSON(t, h, http.MethodGet, "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var st engine.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.State != "none" || !st.Enforcing {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestPeerEndpointNoPeer(t *testing.T) {
	eng, _ := newTestEngine(t)
	h := NewRouter(eng, "/api").Handler()

	w := doJSON(t, h, http.MethodGet, "/api/peer", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp peerResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Attached || resp.Peer != "" {
		t.Fatalf("no peer reporter wired, got %+v", resp)
	}
}

func TestSimulateAdvancesRecognizer(t *testing.T) {
	eng, _ := newTestEngine(t)
	h := NewRouter(eng, "").Handler()

	body := `[{"button":"volume_up","pressed":true}]`
	w := doJSON(t, h, http.MethodPost, "/simulate", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var st engine.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.State != "in_sequence" {
		t.Fatalf("expected in_sequence, got %q", st.State)
	}
}

func TestSimulateRejectsUnknownButton(t *testing.T) {
	eng, _ := newTestEngine(t)
	h := NewRouter(eng, "").Handler()

	w := doJSON(t, h, http.MethodPost, "/simulate", `[{"button":"mute","pressed":true}]`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestTriggerDispatchesAndJournals(t *testing.T) {
	eng, sig := newTestEngine(t)
	h := NewRouter(eng, "/api").Handler()

	w := doJSON(t, h, http.MethodPost, "/api/trigger",
		`{"action":"capture_trace","target":"system_server"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp triggerResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result != string(router.ResultDispatched) || !resp.Dispatched {
		t.Fatalf("unexpected response %+v", resp)
	}
	if sig.calls != 1 {
		t.Fatalf("expected one signal, got %d", sig.calls)
	}

	lw := doJSON(t, h, http.MethodGet, "/api/triggers?limit=5", "")
	if lw.Code != http.StatusOK {
		t.Fatalf("triggers status = %d, body %s", lw.Code, lw.Body.String())
	}
	var recs []map[string]any
	if err := json.Unmarshal(lw.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0]["action"] != "capture_trace" {
		t.Fatalf("unexpected records %+v", recs)
	}
}

func TestChordGatedTriggerDroppedWithoutChord(t *testing.T) {
	eng, sig := newTestEngine(t)
	h := NewRouter(eng, "").Handler()

	w := doJSON(t, h, http.MethodPost, "/trigger",
		`{"action":"capture_tombstone","target":"system_server","chord_gated":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp triggerResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Dispatched {
		t.Fatal("trigger without held chord must not dispatch")
	}
	if sig.calls != 0 {
		t.Fatalf("expected no signals, got %d", sig.calls)
	}
}

func TestTriggerRejectsUnknownAction(t *testing.T) {
	eng, _ := newTestEngine(t)
	h := NewRouter(eng, "").Handler()

	w := doJSON(t, h, http.MethodPost, "/trigger", `{"action":"reboot"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestTriggersRejectsBadLimit(t *testing.T) {
	eng, _ := newTestEngine(t)
	h := NewRouter(eng, "").Handler()

	w := doJSON(t, h, http.MethodGet, "/triggers?limit=zero", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestSanitizeBase(t *testing.T) {
	cases := map[string]string{
		"":       "",
		"/":      "",
		"api":    "/api",
		"/api/":  "/api",
		" /api ": "/api",
	}
	for in, want := range cases {
		if got := sanitizeBase(in); got != want {
			t.Fatalf("sanitizeBase(%q) = %q, want %q", in, got, want)
		}
	}
}
