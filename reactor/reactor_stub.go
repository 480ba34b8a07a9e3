//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub for platforms without an epoll-compatible level-triggered readiness
// facility. Per spec §7, this is a setup error: Serve logs it and returns
// without running the loop, rather than panicking the host process.

package reactor

import "github.com/loomstack/loomws/api"

// NewSet always fails on unsupported platforms.
func NewSet() (Set, error) {
	return nil, api.ErrNotSupported
}
