package control

import (
	"strings"
	"testing"
)

func TestRenderStatsDocumentEmpty(t *testing.T) {
	doc := RenderStatsDocument(nil)
	if doc != "clear();\n" {
		t.Fatalf("got %q, want just the clear() call for no connections", doc)
	}
}

func TestRenderStatsDocumentFieldsPresent(t *testing.T) {
	doc := RenderStatsDocument([]ConnSnapshot{{
		Since: "Mon, 02 Jan 2006 15:04:05 MST", Fd: 7, ID: 1,
		URI: "/echo", Addr: "127.0.0.1:5555", User: "alice",
		Input: 3, Read: 100, Output: 0, Written: 42,
	}})
	if !strings.HasPrefix(doc, "clear();\n") {
		t.Fatal("document must start with clear();")
	}
	for _, want := range []string{`fd: 7`, `id: 1`, `uri: "/echo"`, `addr: "127.0.0.1:5555"`, `user: "alice"`, `written: 42`} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}
