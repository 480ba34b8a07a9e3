package protocol

import (
	"bufio"
	"net/http"
	"strings"
	"testing"
)

func parseRequest(t *testing.T, raw string) *http.Request {
	t.Helper()
	req, err := http.ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("failed to parse fixture request: %v", err)
	}
	return req
}

// rfc6455Request is the well-known example from RFC 6455 §1.3.
const rfc6455Request = "GET /chat HTTP/1.1\r\n" +
	"Host: server.example.com\r\n" +
	"Upgrade: websocket\r\n" +
	"Connection: Upgrade\r\n" +
	"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
	"Sec-WebSocket-Version: 13\r\n\r\n"

func TestHandshakeComputesExpectedAccept(t *testing.T) {
	req := parseRequest(t, rfc6455Request)
	hdr, err := Handshake(req)
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	const want = "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got := hdr.Get("Sec-WebSocket-Accept"); got != want {
		t.Errorf("Sec-WebSocket-Accept = %q, want %q", got, want)
	}
}

func TestHandshakeRejectsMissingKey(t *testing.T) {
	raw := "GET /chat HTTP/1.1\r\nHost: x\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Version: 13\r\n\r\n"
	req := parseRequest(t, raw)
	if _, err := Handshake(req); err != ErrMissingWebSocketKey {
		t.Fatalf("got %v, want ErrMissingWebSocketKey", err)
	}
}

func TestHandshakeRejectsWrongVersion(t *testing.T) {
	raw := "GET /chat HTTP/1.1\r\nHost: x\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\nSec-WebSocket-Version: 8\r\n\r\n"
	req := parseRequest(t, raw)
	if _, err := Handshake(req); err != ErrBadWebSocketVersion {
		t.Fatalf("got %v, want ErrBadWebSocketVersion", err)
	}
}

func TestIsUpgradeRequestFalseForPlainGET(t *testing.T) {
	req := parseRequest(t, "GET /index.html HTTP/1.1\r\nHost: x\r\n\r\n")
	if IsUpgradeRequest(req) {
		t.Fatal("plain GET should not be an upgrade request")
	}
}
