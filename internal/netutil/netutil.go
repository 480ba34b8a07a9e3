// File: internal/netutil/netutil.go
// Author: momentics <momentics@gmail.com>
//
// Package netutil holds the raw-socket setup the event loop needs: a
// non-blocking, SO_REUSEADDR, backlog-5 IPv4 listener, and the
// SO_LINGER{on,5s} + non-blocking configuration applied to each accepted
// socket. Adapted line-for-line in spirit from the original SeaSocks
// Server::configureSocket / Server::serve / Server::handleAccept.
package netutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ListenBacklog matches spec §4.F step 2.
const ListenBacklog = 5

// Listen creates a non-blocking, SO_REUSEADDR IPv4 TCP listening socket
// bound to 0.0.0.0:port.
func Listen(port int) (fd int, err error) {
	fd, err = unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("create listen socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("make listen socket non-blocking: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("set SO_REUSEADDR: %w", err)
	}
	addr := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, ListenBacklog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	return fd, nil
}

// Accept accepts a single pending connection from listenFd, per the
// "one accept per listener event" policy of spec §4.F (level-triggering
// re-fires while the backlog is non-empty, so this is sufficient).
// Returns the new fd and the formatted remote address "a.b.c.d:port".
func Accept(listenFd int) (fd int, remoteAddr string, err error) {
	nfd, sa, err := unix.Accept(listenFd)
	if err != nil {
		return -1, "", err
	}
	return nfd, formatSockaddr(sa), nil
}

// ConfigureAccepted applies SO_LINGER{on,5s} and non-blocking mode to a
// freshly accepted socket, matching the original's handleAccept.
func ConfigureAccepted(fd int) error {
	linger := &unix.Linger{Onoff: 1, Linger: 5}
	if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, linger); err != nil {
		return fmt.Errorf("set SO_LINGER: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("make accepted socket non-blocking: %w", err)
	}
	return nil
}

func formatSockaddr(sa unix.Sockaddr) string {
	v4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%d.%d.%d.%d:%d", v4.Addr[0], v4.Addr[1], v4.Addr[2], v4.Addr[3], v4.Port)
}
