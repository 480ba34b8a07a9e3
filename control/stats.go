// File: control/stats.go
// Author: momentics <momentics@gmail.com>
//
// Stats document in the exact shape the original monitoring page
// expects: a "clear();" call followed by one "connection({...});" per
// live connection, meant to be evaluated by a JS-speaking front end.
package control

import (
	"fmt"
	"strings"
)

// ConnSnapshot is one connection's worth of stats-document fields,
// gathered by the server on the I/O thread and handed here to render.
type ConnSnapshot struct {
	Since   string // local-time string
	Fd      int
	ID      int64
	URI     string
	Addr    string
	User    string
	Input   int
	Read    int64
	Output  int
	Written int64
}

// RenderStatsDocument formats snapshots in the original's textual
// layout. Field order matches the original's object literal exactly so
// existing monitoring pages keep working unmodified.
func RenderStatsDocument(snapshots []ConnSnapshot) string {
	var b strings.Builder
	b.WriteString("clear();\n")
	for _, s := range snapshots {
		fmt.Fprintf(&b,
			"connection({since: %q, fd: %d, id: %d, uri: %q, addr: %q, user: %q, input: %d, read: %d, output: %d, written: %d});\n",
			s.Since, s.Fd, s.ID, s.URI, s.Addr, s.User, s.Input, s.Read, s.Output, s.Written)
	}
	return b.String()
}
