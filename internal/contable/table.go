// File: internal/contable/table.go
// Author: momentics <momentics@gmail.com>
//
// Package contable implements the connection table described in spec §4.D:
// connection -> acceptance timestamp, I/O-thread-only, no locking. The
// invariant from spec §3 ("a connection is registered in the readiness set
// iff it appears in this table") is enforced by its callers in the server
// package, which always pair Insert with a readiness-set Register and Erase
// with a Deregister.
package contable

import (
	"time"

	"github.com/loomstack/loomws/api"
)

// entry pairs the acceptance timestamp with a stable numeric ID, used by
// the stats document (spec §6) to identify a connection across snapshots
// for its whole lifetime even though its map key (the Conn value) isn't
// a meaningful display value.
type entry struct {
	acceptedAt time.Time
	id         int64
}

// Table maps a live connection to its acceptance time and stable ID.
// Every method must only be called from the I/O thread.
type Table struct {
	byConn map[api.Conn]entry
	nextID int64
}

// New returns an empty connection table.
func New() *Table {
	return &Table{byConn: make(map[api.Conn]entry)}
}

// Insert records c as accepted at acceptedAt, assigning it the next
// stable ID.
func (t *Table) Insert(c api.Conn, acceptedAt time.Time) {
	t.nextID++
	t.byConn[c] = entry{acceptedAt: acceptedAt, id: t.nextID}
}

// Erase removes c. Reports whether c was present, so callers can detect the
// "unknown connection scheduled for deletion" invariant violation (§4.F
// step 6).
func (t *Table) Erase(c api.Conn) bool {
	_, ok := t.byConn[c]
	delete(t.byConn, c)
	return ok
}

// AcceptedAt returns when c was accepted, if it is still present.
func (t *Table) AcceptedAt(c api.Conn) (time.Time, bool) {
	v, ok := t.byConn[c]
	return v.acceptedAt, ok
}

// ID returns c's stable numeric identifier, if it is still present.
func (t *Table) ID(c api.Conn) (int64, bool) {
	v, ok := t.byConn[c]
	return v.id, ok
}

// Len reports the number of live connections.
func (t *Table) Len() int {
	return len(t.byConn)
}

// ForEach iterates the table in unspecified order, per spec §4.D. fn must
// not mutate the table; callers that need to delete while iterating collect
// the connections first (the event loop's pendingDelete set, or the slice
// its shutdown builds).
func (t *Table) ForEach(fn func(c api.Conn, acceptedAt time.Time, id int64)) {
	for c, e := range t.byConn {
		fn(c, e.acceptedAt, e.id)
	}
}
