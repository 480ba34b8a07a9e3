// File: protocol/conn.go
// Author: momentics <momentics@gmail.com>
//
// Conn is the connection adapter of spec §4.G: opaque to the event loop
// beyond the api.Conn capability set, but internally it owns the HTTP
// request buffering, the WebSocket upgrade handshake, and the frame
// codec. Adapted from the read/write-loop and control-frame handling the
// teacher's connection.go used to carry before protocol ownership moved
// to the domain rewritten here.
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/loomstack/loomws/api"
	"github.com/loomstack/loomws/control"
)

type connState int

const (
	stateHandshaking connState = iota
	stateOpen
)

// maxHandshakeBuffer bounds how many bytes of an unfinished HTTP request
// a connection will buffer before giving up on it as malformed.
const maxHandshakeBuffer = 16 * 1024

// Conn implements api.Conn. All methods are I/O-thread-only; the stats
// getters are read there too, since the server marshals stats-document
// requests from other goroutines onto the I/O thread.
type Conn struct {
	fd         int
	remoteAddr string
	owner      api.Owner

	state connState

	inbuf  []byte
	outbuf []byte

	subscribedWritable bool
	closeAfterDrain    bool

	bytesReceived int64
	bytesSent     int64

	credentials api.Credentials
	handler     api.WebSocketHandler

	requestURI string

	// closeOnce guards against the double-destruction spec §3 forbids.
	closeOnce sync.Once
	closeErr  error
}

// New wraps an accepted fd as a Conn. owner is the server, used for the
// callbacks §4.G grants connections (subscribe/unsubscribe/remove,
// handler lookup, static root, authentication).
func New(fd int, remoteAddr string, owner api.Owner) *Conn {
	return &Conn{fd: fd, remoteAddr: remoteAddr, owner: owner, state: stateHandshaking}
}

func (c *Conn) Fd() int                      { return c.fd }
func (c *Conn) RemoteAddr() string           { return c.remoteAddr }
func (c *Conn) RequestURI() string           { return c.requestURI }
func (c *Conn) Credentials() api.Credentials { return c.credentials }
func (c *Conn) BytesReceived() int64         { return c.bytesReceived }
func (c *Conn) BytesSent() int64             { return c.bytesSent }
func (c *Conn) InputBufferSize() int         { return len(c.inbuf) }
func (c *Conn) OutputBufferSize() int        { return len(c.outbuf) }

// OnReadable drains the socket into inbuf and advances whichever state
// machine applies: HTTP request accumulation before the upgrade, frame
// decoding after it.
func (c *Conn) OnReadable() {
	var buf [4096]byte
	for {
		n, err := unix.Read(c.fd, buf[:])
		if n > 0 {
			c.bytesReceived += int64(n)
			c.inbuf = append(c.inbuf, buf[:n]...)
		}
		if err == unix.EAGAIN {
			break
		}
		if err != nil || n == 0 {
			// Peer closed or a real read error: ask the loop to remove us
			// at the end of this iteration.
			c.owner.Remove(c)
			break
		}
		if n < len(buf) {
			break
		}
	}

	switch c.state {
	case stateHandshaking:
		c.tryHandshake()
	case stateOpen:
		c.drainFrames()
	}
}

// OnWritable flushes outbuf. Once drained it unsubscribes from the
// write edge so the readiness set stops waking us for it.
func (c *Conn) OnWritable() {
	for len(c.outbuf) > 0 {
		n, err := unix.Write(c.fd, c.outbuf)
		if n > 0 {
			c.bytesSent += int64(n)
			c.outbuf = c.outbuf[n:]
		}
		if err == unix.EAGAIN {
			return
		}
		if err != nil {
			c.owner.Remove(c)
			return
		}
	}
	if c.subscribedWritable {
		c.subscribedWritable = false
		c.owner.UnsubscribeFromWritable(c)
	}
	if c.closeAfterDrain {
		c.owner.Remove(c)
	}
}

// removeAfterDrain asks the owner to remove this connection once outbuf
// has been fully flushed to the socket, instead of tearing it down
// immediately. A response just enqueued by the caller would otherwise be
// discarded by finishDeletions before the writable edge ever fires.
func (c *Conn) removeAfterDrain() {
	if len(c.outbuf) == 0 {
		c.owner.Remove(c)
		return
	}
	c.closeAfterDrain = true
}

// Send frames payload as a single, final data frame and enqueues it for
// writing. Opcode should be OpText or OpBinary; server-to-client frames
// are never masked, per RFC 6455.
func (c *Conn) Send(opcode byte, payload []byte) error {
	enc, err := EncodeFrame(&Frame{Final: true, Opcode: opcode, PayloadLen: int64(len(payload)), Payload: payload}, false)
	if err != nil {
		return err
	}
	c.enqueue(enc)
	return nil
}

func (c *Conn) enqueue(b []byte) {
	c.outbuf = append(c.outbuf, b...)
	if len(c.outbuf) > 0 && !c.subscribedWritable {
		c.subscribedWritable = true
		c.owner.SubscribeToWritable(c)
	}
}

// tryHandshake attempts to parse a complete HTTP request out of inbuf.
// An incomplete request is left buffered for the next readable edge.
func (c *Conn) tryHandshake() {
	if len(c.inbuf) > maxHandshakeBuffer {
		c.owner.Remove(c)
		return
	}

	req, err := ReadRequest(bytes.NewReader(c.inbuf))
	if err != nil {
		if errors.Is(err, ErrHeadersTooLarge) {
			c.owner.Remove(c)
			return
		}
		// Not enough bytes yet for a complete request line + headers.
		return
	}
	c.requestURI = req.RequestURI
	c.inbuf = nil

	if cred, ok := c.owner.Authenticate(req); ok {
		c.credentials = cred
	}

	if !IsUpgradeRequest(req) {
		c.serveStatic(req)
		return
	}

	handler, ok := c.owner.GetHandler(req.URL.Path)
	if !ok {
		c.writeSimpleResponse(http.StatusNotFound, "no handler registered for this endpoint")
		c.removeAfterDrain()
		return
	}
	if origin := req.Header.Get("Origin"); origin != "" && !c.owner.IsCrossOriginAllowed(req.URL.Path) {
		c.writeSimpleResponse(http.StatusForbidden, "cross-origin upgrade not allowed")
		c.removeAfterDrain()
		return
	}

	respHdr, err := Handshake(req)
	if err != nil {
		c.writeSimpleResponse(http.StatusBadRequest, err.Error())
		c.removeAfterDrain()
		return
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/1.1 101 Switching Protocols\r\n")
	for k, vs := range respHdr {
		for _, v := range vs {
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}
	b.WriteString("\r\n")
	c.enqueue(b.Bytes())

	c.handler = handler
	c.state = stateOpen
	c.handler.OnConnect(c)
}

func (c *Conn) serveStatic(req *http.Request) {
	root := c.owner.StaticRoot()
	if root == "" {
		c.writeSimpleResponse(http.StatusNotFound, "static serving disabled")
		c.removeAfterDrain()
		return
	}
	c.enqueue(control.ServeStatic(root, req))
	c.removeAfterDrain()
}

func (c *Conn) writeSimpleResponse(code int, msg string) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\nConnection: close\r\nContent-Length: %d\r\n\r\n%s",
		code, http.StatusText(code), len(msg), msg)
	c.enqueue(b.Bytes())
}

// drainFrames decodes as many complete frames as inbuf currently holds,
// dispatching control frames locally and data frames to the handler.
func (c *Conn) drainFrames() {
	for {
		f, n, err := DecodeFrame(c.inbuf)
		if err != nil {
			c.owner.Remove(c)
			return
		}
		if f == nil {
			return
		}
		c.inbuf = c.inbuf[n:]
		c.handleFrame(f)
	}
}

func (c *Conn) handleFrame(f *Frame) {
	switch f.Opcode {
	case OpPing:
		pong := &Frame{Final: true, Opcode: OpPong, PayloadLen: f.PayloadLen, Payload: f.Payload}
		if enc, err := EncodeFrame(pong, false); err == nil {
			c.enqueue(enc)
		}
	case OpPong:
		// No action required; keepalive acknowledged.
	case OpClose:
		if enc, err := EncodeFrame(CloseFrame(1000, ""), false); err == nil {
			c.enqueue(enc)
		}
		c.removeAfterDrain()
	default:
		if c.handler != nil {
			c.handler.OnMessage(c, f.Opcode, f.Payload)
		}
	}
}

// Close closes the underlying fd exactly once, firing OnClose on the
// handler if the upgrade had completed. Deregistration from the readiness
// set is done by the server before it calls Close.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		if c.handler != nil {
			c.handler.OnClose(c)
		}
		c.closeErr = unix.Close(c.fd)
	})
	return c.closeErr
}
