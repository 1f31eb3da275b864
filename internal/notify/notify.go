// Package notify implements the single-peer asynchronous message channel
// used to tell a userspace listener to change behavior. A listener registers
// by sending any well-formed datagram; every later outbound message is
// unicast to the most recently registered peer. There is no acknowledgment
// and no multiplexing.
package notify

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/loykin/dumpkey/internal/metrics"
)

const (
	// MaxMsgSize bounds the outbound payload.
	MaxMsgSize = 1024
	// HeaderLen is the fixed wire header size.
	HeaderLen = 16
)

// Kind is the pending-notification slot value. The slot holds at most one
// undelivered request; a new request overwrites the old one before the
// worker drains it (coalescing, not queuing).
type Kind int32

const (
	None Kind = iota
	DebugEnabled
	SerialForceEnabled
)

func (k Kind) String() string {
	switch k {
	case DebugEnabled:
		return "debug_enabled"
	case SerialForceEnabled:
		return "serial_force_enabled"
	default:
		return "none"
	}
}

// payload returns the fixed message text for a kind.
func (k Kind) payload() string {
	switch k {
	case DebugEnabled:
		return "Enable DEBUG!"
	case SerialForceEnabled:
		return "ENABLE_OEM_FORCE_SERIAL"
	default:
		return ""
	}
}

// header is the minimal wire header carried by every datagram.
// Len covers header plus payload. Port is the sender's endpoint id.
type header struct {
	Len   uint32
	Type  uint16
	Flags uint16
	Seq   uint32
	Port  uint32
}

func putHeader(b []byte, h header) {
	binary.LittleEndian.PutUint32(b[0:4], h.Len)
	binary.LittleEndian.PutUint16(b[4:6], h.Type)
	binary.LittleEndian.PutUint16(b[6:8], h.Flags)
	binary.LittleEndian.PutUint32(b[8:12], h.Seq)
	binary.LittleEndian.PutUint32(b[12:16], h.Port)
}

func parseHeader(b []byte) (header, bool) {
	if len(b) < HeaderLen {
		return header{}, false
	}
	return header{
		Len:   binary.LittleEndian.Uint32(b[0:4]),
		Type:  binary.LittleEndian.Uint16(b[4:6]),
		Flags: binary.LittleEndian.Uint16(b[6:8]),
		Seq:   binary.LittleEndian.Uint32(b[8:12]),
		Port:  binary.LittleEndian.Uint32(b[12:16]),
	}, true
}

// Channel is the single-peer notification channel. One background worker
// drains the pending slot; one receive loop handles registrations.
type Channel struct {
	conn net.PacketConn

	mu       sync.Mutex
	peer     net.Addr
	peerPort uint32

	pending atomic.Int32
	kick    chan struct{}
	done    chan struct{}
	closed  sync.Once
	seq     atomic.Uint32
}

// New wraps conn and starts the receive loop and the send worker. Failure
// here leaves the surrounding system without notification capability; the
// caller decides whether that is fatal.
func New(conn net.PacketConn) (*Channel, error) {
	if conn == nil {
		return nil, errors.New("notify: nil transport")
	}
	c := &Channel{
		conn: conn,
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go c.recvLoop()
	go c.workLoop()
	return c, nil
}

// Close stops both loops and closes the transport.
func (c *Channel) Close() error {
	var err error
	c.closed.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Schedule records kind as the sole pending notification and wakes the
// worker. Scheduling again before the drain overwrites the earlier value;
// only the newest is ever sent.
func (c *Channel) Schedule(kind Kind) {
	c.pending.Store(int32(kind))
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Peer reports the currently registered endpoint, if any.
func (c *Channel) Peer() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peer == nil {
		return "", false
	}
	return c.peer.String(), true
}

// SendMDMDumpSync tells the peer to synchronize a modem dump. Unlike the
// scheduled notifications it bypasses the pending slot and sends inline.
func (c *Channel) SendMDMDumpSync() {
	c.send("FORCE_MDM_DUMP_SYNC")
}

func (c *Channel) recvLoop() {
	buf := make([]byte, HeaderLen+MaxMsgSize)
	for {
		n, addr, err := c.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		c.handleInbound(buf[:n], addr)
	}
}

// handleInbound validates a registration datagram and captures the sender
// as the sole unicast destination. Malformed datagrams are dropped with no
// state change and no acknowledgment is ever sent.
func (c *Channel) handleInbound(b []byte, addr net.Addr) {
	h, ok := parseHeader(b)
	if !ok || h.Len < HeaderLen || int(h.Len) > len(b) {
		return
	}
	c.mu.Lock()
	c.peer = addr
	c.peerPort = h.Port
	c.mu.Unlock()
	slog.Info("peer registered", "endpoint", addr.String(), "port", h.Port, "payload", cString(b[HeaderLen:h.Len]))
}

func (c *Channel) workLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.kick:
			c.drainOnce()
		}
	}
}

// drainOnce takes whatever is in the pending slot and attempts one send.
// The slot resets to None whether or not the send goes anywhere.
func (c *Channel) drainOnce() {
	kind := Kind(c.pending.Swap(int32(None)))
	if kind == None {
		return
	}
	if c.send(kind.payload()) {
		metrics.IncNotificationSent(kind.String())
	} else {
		metrics.IncNotificationDropped()
	}
}

// send transmits a fixed-size message to the registered peer. With no peer
// the message is dropped, not queued.
func (c *Channel) send(text string) bool {
	c.mu.Lock()
	peer := c.peer
	c.mu.Unlock()
	if peer == nil {
		return false
	}
	msg := make([]byte, HeaderLen+MaxMsgSize)
	putHeader(msg, header{Len: HeaderLen + MaxMsgSize, Seq: c.seq.Add(1)})
	copy(msg[HeaderLen:], text)
	if _, err := c.conn.WriteTo(msg, peer); err != nil {
		slog.Warn("notification send failed", "endpoint", peer.String(), "error", err)
		return false
	}
	slog.Info("notification sent", "endpoint", peer.String(), "message", text)
	return true
}

// cString trims a NUL-padded buffer to its text content.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
