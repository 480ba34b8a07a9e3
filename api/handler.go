// File: api/handler.go
// Package api defines the contracts the event loop depends on but never
// implements itself: the connection capability set it drives (§4.G) and the
// WebSocket handler map applications register against an endpoint (§4.E, §6).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net/http"

// Credentials describes the identity attached to a connection once
// authenticated. Populated by whatever Authenticator the host configures;
// Username is the only field the stats document (§6) renders.
type Credentials struct {
	Username string
}

// Conn is the capability set the event loop uses to drive a connection. The
// loop never reaches into connection internals beyond this surface — frame
// parsing, handshake state, and buffering are the connection's own business.
type Conn interface {
	// Fd returns the OS descriptor this connection was registered under.
	Fd() int

	// OnReadable is called when the readiness set reports the read edge.
	// The connection consumes available bytes, advances its protocol state,
	// and may enqueue output as a result.
	OnReadable()

	// OnWritable is called when the readiness set reports the write edge.
	// The connection flushes pending output; if the output buffer drains it
	// must call Server.UnsubscribeFromWritable(self).
	OnWritable()

	// BytesReceived is read by the lame-connection reaper.
	BytesReceived() int64

	// Stats surface for GetStatsDocument (§6).
	RemoteAddr() string
	RequestURI() string
	Credentials() Credentials
	InputBufferSize() int
	OutputBufferSize() int
	BytesSent() int64

	// Send enqueues a data frame (opcode Text or Binary) for delivery,
	// subscribing to the write edge if the output buffer was empty. The
	// only way a WebSocketHandler pushes data to its peer.
	Send(opcode byte, payload []byte) error

	// Close releases the connection and closes its fd. The server
	// deregisters the descriptor from the readiness set and erases the
	// connection from the connection table before calling it. Idempotent.
	Close() error
}

// Owner is the surface a Conn calls back into the event loop with (§4.G,
// the server-exposed half of the connection contract). Every method
// asserts it is running on the I/O thread; a cross-thread call is a
// programming error and must fail loudly rather than corrupt state.
type Owner interface {
	SubscribeToWritable(c Conn)
	UnsubscribeFromWritable(c Conn)
	Remove(c Conn)
	GetHandler(endpoint string) (WebSocketHandler, bool)
	IsCrossOriginAllowed(endpoint string) bool
	StaticRoot() string
	Authenticate(r *http.Request) (Credentials, bool)
}

// WebSocketHandler is the application-supplied callback set for a single
// registered endpoint. The connection adapter invokes these as frames arrive;
// the loop itself never calls a WebSocketHandler directly.
type WebSocketHandler interface {
	// OnConnect fires once the HTTP upgrade handshake completes.
	OnConnect(conn Conn)

	// OnMessage fires for each complete data frame (text or binary).
	OnMessage(conn Conn, opcode byte, payload []byte)

	// OnClose fires when the connection is torn down, for any reason.
	OnClose(conn Conn)
}
