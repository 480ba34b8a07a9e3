//go:build !linux

// File: wakeup/wakeup_stub.go
// Author: momentics <momentics@gmail.com>
//
// Non-Linux placeholder: the eventfd-backed Channel has no portable
// equivalent here, matching reactor's own platform split. Serve already
// fails during readiness-set creation on these platforms, so New is
// never reached in practice; it exists so the package still builds.
package wakeup

import "github.com/loomstack/loomws/api"

// Channel is an opaque placeholder on non-Linux platforms.
type Channel struct{}

// New always fails on platforms without eventfd support.
func New() (*Channel, error) {
	return nil, api.ErrNotSupported
}

func (c *Channel) Fd() int      { return -1 }
func (c *Channel) Poke()        {}
func (c *Channel) Drain() error { return nil }
func (c *Channel) Close() error { return nil }
