// File: internal/gid/gid.go
// Author: momentics <momentics@gmail.com>
//
// Package gid answers "which goroutine is this?" — the closest Go analogue
// to the gettid() the original SeaSocks Server::checkThread compares
// against. Go has no stable, supported API for this (goroutines aren't
// pinned to OS threads the way pthreads are), so this parses the numeric ID
// out of runtime.Stack's header line. It is only ever used for the
// fail-loud "you called this from the wrong goroutine" assertion in
// server.checkThread — never on a hot path, never for scheduling decisions.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Current returns the calling goroutine's numeric ID.
func Current() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	// Stack() header looks like "goroutine 37 [running]:\n..."
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return -1
	}
	rest := buf[len(prefix):]
	sp := bytes.IndexByte(rest, ' ')
	if sp < 0 {
		return -1
	}
	id, err := strconv.ParseInt(string(rest[:sp]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
