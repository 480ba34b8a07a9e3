// File: control/staticfiles.go
// Author: momentics <momentics@gmail.com>
//
// Static file responder for plain HTTP GETs that are not WebSocket
// upgrades, the collaborator spec §1 names as external to the core.
// Wraps net/http.FileServer — no third-party static responder appeared
// anywhere in the retrieved pack, so this stays on the standard library
// (see DESIGN.md).
package control

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
)

// ServeStatic renders the response http.FileServer would produce for
// req against root into a single byte slice, since the connection
// adapter writes to a non-blocking socket rather than a live
// http.ResponseWriter.
func ServeStatic(root string, req *http.Request) []byte {
	rw := newRecorder()
	http.FileServer(http.Dir(root)).ServeHTTP(rw, req)
	return rw.bytes()
}

type recorder struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
	wroteHead  bool
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header), statusCode: http.StatusOK}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) Write(p []byte) (int, error) {
	if !r.wroteHead {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(p)
}

func (r *recorder) WriteHeader(statusCode int) {
	if r.wroteHead {
		return
	}
	r.wroteHead = true
	r.statusCode = statusCode
}

func (r *recorder) bytes() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.statusCode, http.StatusText(r.statusCode))
	if r.header.Get("Content-Length") == "" {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", r.body.Len())
	}
	keys := make([]string, 0, len(r.header))
	for k := range r.header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range r.header[k] {
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}
	b.WriteString("\r\n")
	b.Write(r.body.Bytes())
	return b.Bytes()
}
