//go:build linux

// File: wakeup/wakeup_linux.go
// Author: momentics <momentics@gmail.com>
//
// Package wakeup implements the cross-thread signal used to break the
// readiness wait: a non-blocking eventfd. The original SeaSocks server.cpp
// uses a non-blocking pipe pair (its own comment notes eventfd would be
// cheaper "once RH5 is dead and gone" — this module takes that suggestion
// and uses eventfd on Linux instead of a two-fd pipe).
package wakeup

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// Channel is a one-way, many-writer/one-reader wakeup signal. The read end
// is registered in the readiness set with interest = Readable; writing any
// byte (here, incrementing the eventfd counter) makes it readable.
type Channel struct {
	fd int
}

// New creates an eventfd-backed wakeup channel, non-blocking and
// close-on-exec, matching the pipe endpoints' configuration in the
// original.
func New() (*Channel, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Channel{fd: fd}, nil
}

// Fd returns the descriptor to register with the readiness set.
func (c *Channel) Fd() int {
	return c.fd
}

// Poke wakes the I/O thread out of its readiness wait. Best-effort: per
// spec §4.B, a failed write here (e.g. the channel isn't initialised yet)
// is not itself a fatal condition — the task that triggered the poke still
// enqueued and will be picked up on the next loop iteration regardless.
func (c *Channel) Poke() {
	if c.fd < 0 {
		return
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(c.fd, buf[:])
}

// Drain empties the read end until it would block. Per spec §4.B and the
// design notes' corrected error check (the original's `errno != EAGAIN ||
// errno != EWOULDBLOCK` is always true and therefore always fatal — a bug;
// the intended condition is a conjunction), any read error other than
// would-block is fatal and reported to the caller, who terminates the loop.
func (c *Channel) Drain() error {
	var buf [8]byte
	for {
		_, err := unix.Read(c.fd, buf[:])
		if err == nil {
			continue
		}
		if err == unix.EAGAIN {
			return nil
		}
		return err
	}
}

// Close releases the descriptor.
func (c *Channel) Close() error {
	if c.fd < 0 {
		return nil
	}
	fd := c.fd
	c.fd = -1
	return unix.Close(fd)
}
