// File: server/loop.go
// Author: momentics <momentics@gmail.com>
//
// The event loop itself (spec §4.F), the heaviest single piece of the
// core: setup, per-iteration dispatch, accept policy, the lame-connection
// reaper, and shutdown. Grounded directly on the original SeaSocks
// Server::serve / Server::handleAccept / Server::checkAndDispatchEpollEvent
// / Server::tryAndGetReaperReady (naming adapted to this module).
package server

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/loomstack/loomws/api"
	"github.com/loomstack/loomws/internal/gid"
	"github.com/loomstack/loomws/internal/netutil"
	"github.com/loomstack/loomws/protocol"
	"github.com/loomstack/loomws/reactor"
	"github.com/loomstack/loomws/wakeup"
)

// Serve takes ownership of the calling goroutine as the I/O thread,
// binds the listening socket at port, and runs the loop until
// Terminate is called. staticRoot may be empty to disable static
// serving.
func (s *Server) Serve(staticRoot string, port int) error {
	if !s.started.CompareAndSwap(false, true) {
		return api.ErrAlreadyRunning
	}
	s.ioThreadGID.Store(gid.Current())
	s.cfg.StaticRoot = staticRoot
	s.cfg.Port = port

	listenFd, err := netutil.Listen(port)
	if err != nil {
		s.logger.Error("failed to create listening socket", zap.Int("port", port), zap.Error(err))
		return err
	}
	s.listenFd = listenFd

	set, err := reactor.NewSet()
	if err != nil {
		s.logger.Error("failed to create readiness set", zap.Error(err))
		unix.Close(listenFd)
		return err
	}
	s.set = set

	wake, err := wakeup.New()
	if err != nil {
		s.logger.Error("failed to create wakeup channel", zap.Error(err))
		set.Close()
		unix.Close(listenFd)
		return err
	}
	s.wake = wake
	s.arena = reactor.NewArena()

	if err := s.set.Register(listenFd, reactor.Readable, reactor.TagListener); err != nil {
		s.logger.Error("failed to register listener", zap.Error(err))
		s.teardown()
		return err
	}
	if err := s.set.Register(wake.Fd(), reactor.Readable, reactor.TagWakeup); err != nil {
		s.logger.Error("failed to register wakeup channel", zap.Error(err))
		s.teardown()
		return err
	}

	s.nextReaperDeadline = time.Now().Add(s.cfg.ReaperInterval)
	events := make([]reactor.Event, s.cfg.BatchSize)

	for !s.terminating.Load() {
		s.tasks.Drain()

		if !time.Now().Before(s.nextReaperDeadline) {
			s.reap()
			s.nextReaperDeadline = s.nextReaperDeadline.Add(s.cfg.ReaperInterval)
		}

		n, err := s.set.Wait(events, int(s.cfg.WaitTimeout/time.Millisecond))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			s.logger.Error("readiness wait failed", zap.Error(err))
			break
		}

		if n == len(events) && time.Since(s.lastSaturationWarn) >= s.cfg.SaturationWarnInterval {
			s.logger.Warn("readiness event queue saturated", zap.Int("batch_size", n))
			s.lastSaturationWarn = time.Now()
		}

		for i := 0; i < n; i++ {
			s.dispatch(events[i])
		}

		s.finishDeletions()
	}

	s.shutdown()
	return nil
}

func (s *Server) dispatch(ev reactor.Event) {
	switch ev.Tag {
	case reactor.TagListener:
		s.handleListenerEvent(ev.Mask)
	case reactor.TagWakeup:
		s.handleWakeupEvent(ev.Mask)
	default:
		s.handleConnectionEvent(ev)
	}
}

func (s *Server) handleListenerEvent(mask reactor.InterestMask) {
	if mask&^reactor.Readable != 0 {
		s.logger.Error("unexpected event bits on listener", zap.Stringer("mask", mask))
		s.terminating.Store(true)
		return
	}
	if mask&reactor.Readable == 0 {
		return
	}
	s.accept()
}

func (s *Server) handleWakeupEvent(mask reactor.InterestMask) {
	if mask&^reactor.Readable != 0 {
		s.logger.Error("unexpected event bits on wakeup channel", zap.Stringer("mask", mask))
		s.terminating.Store(true)
		return
	}
	if err := s.wake.Drain(); err != nil {
		s.logger.Error("wakeup channel drain failed", zap.Error(err))
		s.terminating.Store(true)
	}
}

func (s *Server) handleConnectionEvent(ev reactor.Event) {
	v, ok := s.arena.Get(ev.Tag)
	if !ok {
		return
	}
	c := v.(api.Conn)
	mask := ev.Mask

	if mask&^(reactor.Readable|reactor.Writable|reactor.Hangup) != 0 {
		s.logger.Warn("unexpected event bits on connection", zap.Int("fd", c.Fd()), zap.Stringer("mask", mask))
		s.scheduleDelete(c)
		return
	}
	if mask&reactor.Hangup != 0 {
		s.logger.Debug("connection hung up", zap.Int("fd", c.Fd()))
		s.scheduleDelete(c)
		return
	}
	if mask&reactor.Writable != 0 {
		c.OnWritable()
	}
	if mask&reactor.Readable != 0 {
		c.OnReadable()
	}
}

// accept implements spec §4.F's accept policy: a single accept per
// listener readiness event, relying on level-triggering to re-fire
// while the backlog is non-empty.
func (s *Server) accept() {
	fd, remoteAddr, err := netutil.Accept(s.listenFd)
	if err != nil {
		if !errors.Is(err, unix.EAGAIN) {
			s.logger.Warn("accept failed", zap.Error(err))
		}
		return
	}
	if err := netutil.ConfigureAccepted(fd); err != nil {
		s.logger.Warn("failed to configure accepted socket", zap.Error(err))
		unix.Close(fd)
		return
	}

	c := protocol.New(fd, remoteAddr, s)
	tag := s.arena.Put(c)
	if err := s.set.Register(fd, reactor.Readable, tag); err != nil {
		s.logger.Warn("failed to register accepted connection", zap.Error(err))
		s.arena.Remove(tag)
		unix.Close(fd)
		return
	}
	s.meta[c] = &connMeta{tag: tag, mask: reactor.Readable}
	s.table.Insert(c, time.Now())
}

// reap schedules deletion of every connection that has received zero
// bytes since acceptance longer than the configured lame timeout.
func (s *Server) reap() {
	now := time.Now()
	s.table.ForEach(func(c api.Conn, acceptedAt time.Time, _ int64) {
		if c.BytesReceived() == 0 && now.Sub(acceptedAt) >= s.cfg.LameConnectionTimeout {
			s.logger.Warn("reaping lame connection", zap.Int("fd", c.Fd()))
			s.scheduleDelete(c)
		}
	})
}

// finishDeletions destroys every connection scheduled this iteration,
// by either the reaper or event dispatch. A connection scheduled but no
// longer present in the table is a bookkeeping invariant violation
// (spec §4.F step 6, §7): it is logged severe and the loop terminates.
func (s *Server) finishDeletions() {
	for c := range s.pendingDelete {
		if !s.table.Erase(c) {
			fault := api.NewError(api.ErrCodeInternal, api.ErrUnknownConnection.Error()).WithContext("fd", c.Fd())
			s.lastFault.Store(fault)
			s.logger.Error(api.ErrUnknownConnection.Error(), zap.Int("fd", c.Fd()))
			s.terminating.Store(true)
			continue
		}
		if m, ok := s.meta[c]; ok {
			s.set.Deregister(c.Fd())
			s.arena.Remove(m.tag)
			delete(s.meta, c)
		}
		c.Close()
	}
	s.pendingDelete = make(map[api.Conn]struct{})
}

// shutdown closes every remaining connection, then the listener, the
// wakeup channel, and the readiness set, in that order (spec §4.F).
func (s *Server) shutdown() {
	var remaining []api.Conn
	s.table.ForEach(func(c api.Conn, _ time.Time, _ int64) {
		remaining = append(remaining, c)
	})
	for _, c := range remaining {
		s.table.Erase(c)
		if m, ok := s.meta[c]; ok {
			s.set.Deregister(c.Fd())
			s.arena.Remove(m.tag)
			delete(s.meta, c)
		}
		c.Close()
	}
	s.teardown()
}

func (s *Server) teardown() {
	if s.set != nil {
		s.set.Deregister(s.listenFd)
		if s.wake != nil {
			s.set.Deregister(s.wake.Fd())
		}
	}
	if s.listenFd != 0 {
		unix.Close(s.listenFd)
	}
	if s.wake != nil {
		s.wake.Close()
	}
	if s.set != nil {
		s.set.Close()
	}
}
