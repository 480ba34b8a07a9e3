package protocol

import (
	"net/http"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/loomstack/loomws/api"
)

// fakeOwner is a minimal api.Owner double recording whether Remove was
// called, to exercise the close-after-drain contract in isolation.
type fakeOwner struct {
	removed          bool
	subscribed       bool
	unsubscribeCalls int
}

func (f *fakeOwner) SubscribeToWritable(api.Conn) { f.subscribed = true }

func (f *fakeOwner) UnsubscribeFromWritable(api.Conn) {
	f.subscribed = false
	f.unsubscribeCalls++
}

func (f *fakeOwner) Remove(api.Conn) { f.removed = true }

func (f *fakeOwner) GetHandler(string) (api.WebSocketHandler, bool) { return nil, false }

func (f *fakeOwner) IsCrossOriginAllowed(string) bool { return true }

func (f *fakeOwner) StaticRoot() string { return "" }

func (f *fakeOwner) Authenticate(*http.Request) (api.Credentials, bool) {
	return api.Credentials{}, false
}

func socketpair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

// TestRemoveAfterDrainWaitsForOutputToFlush is a regression test: enqueuing
// a response and asking to remove the connection must not discard that
// response. Removal must happen only once OnWritable reports the buffer
// drained.
func TestRemoveAfterDrainWaitsForOutputToFlush(t *testing.T) {
	server, client := socketpair(t)
	owner := &fakeOwner{}
	c := New(server, "test", owner)

	c.writeSimpleResponse(http.StatusForbidden, "cross-origin upgrade not allowed")
	c.removeAfterDrain()

	if owner.removed {
		t.Fatal("Remove was called before the response was flushed")
	}
	if c.OutputBufferSize() == 0 {
		t.Fatal("expected the response to still be buffered")
	}

	c.OnWritable()

	if !owner.removed {
		t.Fatal("expected Remove to be called once the output buffer drained")
	}
	if c.OutputBufferSize() != 0 {
		t.Fatalf("expected an empty output buffer, got %d bytes left", c.OutputBufferSize())
	}

	buf := make([]byte, 4096)
	n, err := unix.Read(client, buf)
	if err != nil {
		t.Fatalf("read from peer: %v", err)
	}
	got := string(buf[:n])
	if !strings.HasPrefix(got, "HTTP/1.1 403 Forbidden") {
		t.Fatalf("client did not receive the 403 response, got: %q", got)
	}
	if !strings.Contains(got, "cross-origin upgrade not allowed") {
		t.Fatalf("response body missing, got: %q", got)
	}
}

// TestRemoveAfterDrainWithNothingBufferedRemovesImmediately covers the
// degenerate case where there is nothing to flush.
func TestRemoveAfterDrainWithNothingBufferedRemovesImmediately(t *testing.T) {
	server, _ := socketpair(t)
	owner := &fakeOwner{}
	c := New(server, "test", owner)

	c.removeAfterDrain()

	if !owner.removed {
		t.Fatal("expected immediate Remove when nothing was buffered")
	}
}
