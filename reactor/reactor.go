// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Package reactor wraps the OS level-triggered readiness facility the event
// loop waits on. A Set tracks interest for a bounded number of descriptors,
// each tagged with a stable integer ID rather than a raw pointer — the
// arena-of-IDs approach called for in the spec's design notes, so that a
// registration can outlive (or be checked against) the connection it names
// without smuggling an unsafe.Pointer through the kernel.
package reactor

import "fmt"

// Tag identifies what a readiness event belongs to: the listener, the
// wakeup channel's read end, or a specific connection by its arena slot.
type Tag int64

const (
	// TagInvalid is never a valid registration; Wait never returns it.
	TagInvalid Tag = 0
	// TagListener marks the listening socket's registration.
	TagListener Tag = -1
	// TagWakeup marks the wakeup channel's read-end registration.
	TagWakeup Tag = -2
	// firstConnTag is the smallest tag value handed out for a connection.
	// Connection tags are always > 0, so the sign of a Tag alone tells a
	// caller which of the three domains it falls in.
	firstConnTag Tag = 1
)

// InterestMask is a bitset over the readiness conditions a registration (or
// a reported event) can carry.
type InterestMask uint8

const (
	Readable InterestMask = 1 << iota
	Writable
	Hangup
	Error
	Priority
)

// String renders a mask the way the original SeaSocks EventBits stream
// operator renders epoll_event.events, for log lines.
func (m InterestMask) String() string {
	if m == 0 {
		return "(none)"
	}
	names := []struct {
		bit  InterestMask
		name string
	}{
		{Readable, "READABLE"},
		{Writable, "WRITABLE"},
		{Hangup, "HANGUP"},
		{Error, "ERROR"},
		{Priority, "PRIORITY"},
	}
	s := ""
	for _, n := range names {
		if m&n.bit != 0 {
			if s != "" {
				s += ", "
			}
			s += n.name
		}
	}
	return s
}

// Event is one readiness notification returned by Wait.
type Event struct {
	Tag  Tag
	Mask InterestMask
}

// Set is the readiness-notification facility the event loop waits on.
// Implementations must use level-triggered semantics: a descriptor with
// unread input keeps reporting Readable on every Wait until it is drained.
type Set interface {
	// Register adds fd to the interest set under tag with the given mask.
	Register(fd int, mask InterestMask, tag Tag) error

	// Modify changes the interest mask for an already-registered fd.
	Modify(fd int, mask InterestMask, tag Tag) error

	// Deregister removes fd from the interest set. Safe to call even if fd
	// was never registered (implementations return nil in that case, since
	// the caller's own cleanup bookkeeping is authoritative).
	Deregister(fd int) error

	// Wait blocks up to timeoutMs (or returns immediately if events are
	// already pending) and fills out with up to len(out) ready events,
	// returning the count filled.
	Wait(out []Event, timeoutMs int) (n int, err error)

	// Close releases the underlying OS handle.
	Close() error
}

// Arena hands out stable Tag values for connections and lets the loop map a
// Tag back to whatever it registered. It owns no fds itself.
type Arena struct {
	next Tag
	byTag map[Tag]any
}

// NewArena creates an empty tag arena.
func NewArena() *Arena {
	return &Arena{next: firstConnTag, byTag: make(map[Tag]any)}
}

// Put allocates a fresh tag for v and returns it.
func (a *Arena) Put(v any) Tag {
	t := a.next
	a.next++
	a.byTag[t] = v
	return t
}

// Get resolves a tag back to the value registered under it.
func (a *Arena) Get(t Tag) (any, bool) {
	v, ok := a.byTag[t]
	return v, ok
}

// Remove evicts a tag from the arena. Must be called before the underlying
// object is destroyed, so that a stray late event can never resolve to a
// freed object.
func (a *Arena) Remove(t Tag) {
	delete(a.byTag, t)
}

// Len reports the number of live connection tags, for diagnostics.
func (a *Arena) Len() int {
	return len(a.byTag)
}

func (t Tag) String() string {
	switch t {
	case TagInvalid:
		return "invalid"
	case TagListener:
		return "listener"
	case TagWakeup:
		return "wakeup"
	default:
		return fmt.Sprintf("conn#%d", int64(t))
	}
}
