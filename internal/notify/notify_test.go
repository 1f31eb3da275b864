package notify

import (
	"bytes"
	"encoding/binary"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }

type fakeConn struct {
	mu     sync.Mutex
	writes [][]byte
	dests  []net.Addr
	inbox  chan struct{} // never delivers; ReadFrom blocks until Close
	once   sync.Once
}

func newFakeConn() *fakeConn { return &fakeConn{inbox: make(chan struct{})} }

func (f *fakeConn) ReadFrom(p []byte) (int, net.Addr, error) {
	<-f.inbox
	return 0, nil, net.ErrClosed
}

func (f *fakeConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), p...)
	f.writes = append(f.writes, cp)
	f.dests = append(f.dests, addr)
	return len(p), nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.inbox) })
	return nil
}

func (f *fakeConn) LocalAddr() net.Addr              { return fakeAddr("local") }
func (f *fakeConn) SetDeadline(time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

// newQuietChannel builds a channel without background loops so tests can
// drive registration and draining deterministically.
func newQuietChannel(conn net.PacketConn) *Channel {
	return &Channel{conn: conn, kick: make(chan struct{}, 1), done: make(chan struct{})}
}

func registration(port uint32, payload string) []byte {
	b := make([]byte, HeaderLen+len(payload))
	putHeader(b, header{Len: uint32(HeaderLen + len(payload)), Port: port})
	copy(b[HeaderLen:], payload)
	return b
}

func TestRegistrationCapturesPeer(t *testing.T) {
	c := newQuietChannel(newFakeConn())
	c.handleInbound(registration(77, "hello"), fakeAddr("peer-1"))
	p, ok := c.Peer()
	if !ok || p != "peer-1" {
		t.Fatalf("expected peer-1 registered, got ok=%v p=%q", ok, p)
	}
	if c.peerPort != 77 {
		t.Fatalf("expected port 77, got %d", c.peerPort)
	}
}

func TestLastRegistrationWins(t *testing.T) {
	c := newQuietChannel(newFakeConn())
	c.handleInbound(registration(1, ""), fakeAddr("first"))
	c.handleInbound(registration(2, ""), fakeAddr("second"))
	p, _ := c.Peer()
	if p != "second" {
		t.Fatalf("expected most recent peer, got %q", p)
	}
}

func TestMalformedRegistrationDropped(t *testing.T) {
	c := newQuietChannel(newFakeConn())
	c.handleInbound(registration(9, ""), fakeAddr("good"))

	// declared length underflows the header size
	under := registration(1, "")
	binary.LittleEndian.PutUint32(under[0:4], HeaderLen-1)
	c.handleInbound(under, fakeAddr("bad-under"))

	// declared length exceeds received bytes
	over := registration(2, "")
	binary.LittleEndian.PutUint32(over[0:4], uint32(len(over)+1))
	c.handleInbound(over, fakeAddr("bad-over"))

	// truncated header
	c.handleInbound([]byte{1, 2, 3}, fakeAddr("bad-short"))

	p, ok := c.Peer()
	if !ok || p != "good" {
		t.Fatalf("malformed datagrams must not change the peer, got ok=%v p=%q", ok, p)
	}
}

func TestNoPeerNoSend(t *testing.T) {
	fc := newFakeConn()
	c := newQuietChannel(fc)
	c.Schedule(DebugEnabled)
	c.drainOnce()
	if n := len(fc.sent()); n != 0 {
		t.Fatalf("expected zero transport calls without a peer, got %d", n)
	}
	if Kind(c.pending.Load()) != None {
		t.Fatal("pending slot must reset even when dropped")
	}
}

func TestCoalescingNewestWins(t *testing.T) {
	fc := newFakeConn()
	c := newQuietChannel(fc)
	c.handleInbound(registration(5, ""), fakeAddr("peer"))

	c.Schedule(DebugEnabled)
	c.Schedule(SerialForceEnabled)
	c.drainOnce()
	c.drainOnce() // second drain sees an empty slot

	msgs := fc.sent()
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(msgs))
	}
	if !bytes.Contains(msgs[0], []byte("ENABLE_OEM_FORCE_SERIAL")) {
		t.Fatalf("expected serial-force payload, got %q", cString(msgs[0][HeaderLen:]))
	}
}

func TestMessagePayloads(t *testing.T) {
	fc := newFakeConn()
	c := newQuietChannel(fc)
	c.handleInbound(registration(5, ""), fakeAddr("peer"))

	c.Schedule(DebugEnabled)
	c.drainOnce()
	c.Schedule(SerialForceEnabled)
	c.drainOnce()
	c.SendMDMDumpSync()

	msgs := fc.sent()
	if len(msgs) != 3 {
		t.Fatalf("expected three messages, got %d", len(msgs))
	}
	want := []string{"Enable DEBUG!", "ENABLE_OEM_FORCE_SERIAL", "FORCE_MDM_DUMP_SYNC"}
	for i, w := range want {
		if len(msgs[i]) != HeaderLen+MaxMsgSize {
			t.Fatalf("message %d: wrong size %d", i, len(msgs[i]))
		}
		h, ok := parseHeader(msgs[i])
		if !ok || h.Len != HeaderLen+MaxMsgSize {
			t.Fatalf("message %d: bad header %+v", i, h)
		}
		if got := cString(msgs[i][HeaderLen:]); got != w {
			t.Fatalf("message %d: payload %q, want %q", i, got, w)
		}
	}
}

func TestUnixgramEndToEnd(t *testing.T) {
	dir := t.TempDir()
	srvPath := filepath.Join(dir, "chan.sock")
	peerPath := filepath.Join(dir, "peer.sock")

	srv, err := net.ListenPacket("unixgram", srvPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	c, err := New(srv)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = c.Close() }()

	peer, err := net.ListenPacket("unixgram", peerPath)
	if err != nil {
		t.Fatalf("peer listen: %v", err)
	}
	defer func() { _ = peer.Close() }()

	srvAddr := &net.UnixAddr{Name: srvPath, Net: "unixgram"}
	if _, err := peer.WriteTo(registration(123, "register"), srvAddr); err != nil {
		t.Fatalf("register: %v", err)
	}

	// wait for the receive loop to capture the peer
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := c.Peer(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("peer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.Schedule(DebugEnabled)

	buf := make([]byte, HeaderLen+MaxMsgSize)
	_ = peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := peer.ReadFrom(buf)
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if got := cString(buf[HeaderLen:n]); got != "Enable DEBUG!" {
		t.Fatalf("payload %q", got)
	}
}
