// File: server/server.go
// Author: momentics <momentics@gmail.com>
//
// Server is the event loop and connection lifecycle manager of spec
// §2–§3: it owns the listening descriptor, the readiness set, the
// wakeup channel, the task queue, the connection table, and the handler
// registry, and binds them together in Serve (server/loop.go). Grounded
// on the original SeaSocks Server class and on the teacher's
// server/hioload.go facade shape.
package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/loomstack/loomws/api"
	"github.com/loomstack/loomws/control"
	"github.com/loomstack/loomws/internal/contable"
	"github.com/loomstack/loomws/internal/gid"
	"github.com/loomstack/loomws/internal/registry"
	"github.com/loomstack/loomws/internal/taskqueue"
	"github.com/loomstack/loomws/reactor"
	"github.com/loomstack/loomws/wakeup"
)

// connMeta is the server's bookkeeping for one live connection: its
// readiness-set tag and the interest mask currently registered for it.
type connMeta struct {
	tag  reactor.Tag
	mask reactor.InterestMask
}

// Server implements the embedding API of spec §6 and the api.Owner
// contract Conn calls back into.
type Server struct {
	cfg    *Config
	logger *zap.Logger

	registry      *registry.Registry
	table         *contable.Table
	tasks         *taskqueue.Queue
	authenticator api.Authenticator

	set   reactor.Set
	arena *reactor.Arena
	wake  *wakeup.Channel

	listenFd int

	meta map[api.Conn]*connMeta

	pendingDelete map[api.Conn]struct{}

	started     atomic.Bool
	terminating atomic.Bool
	ioThreadGID atomic.Int64
	lastFault   atomic.Pointer[api.Error]

	nextReaperDeadline time.Time
	lastSaturationWarn time.Time
}

// New constructs a Server with DefaultConfig and a no-op logger unless
// overridden by opts.
func New(opts ...Option) *Server {
	s := &Server{
		cfg:           DefaultConfig(),
		logger:        zap.NewNop(),
		registry:      registry.New(),
		table:         contable.New(),
		tasks:         taskqueue.New(),
		meta:          make(map[api.Conn]*connMeta),
		pendingDelete: make(map[api.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddWebSocketHandler registers handler at endpoint. Per spec §4.E and
// §9, the recommended contract is registration before Serve; mutation
// afterwards should go through Schedule.
func (s *Server) AddWebSocketHandler(endpoint string, handler api.WebSocketHandler, allowCrossOrigin bool) {
	s.registry.Add(endpoint, handler, allowCrossOrigin)
}

// EnableSingleSignOn installs the bundled header-based Authenticator.
// A host wanting real SSO should instead call SetAuthenticator directly
// with its own api.Authenticator.
func (s *Server) EnableSingleSignOn(opts api.SSOOptions) {
	s.authenticator = control.NewHeaderAuthenticator(opts)
}

// SetAuthenticator installs a custom credential extractor.
func (s *Server) SetAuthenticator(a api.Authenticator) {
	s.authenticator = a
}

// SetLameConnectionTimeoutSeconds overrides the reaper threshold.
// Intended to be called before Serve; calling it while running is only
// safe from the I/O thread (e.g. via Schedule).
func (s *Server) SetLameConnectionTimeoutSeconds(n int) {
	s.cfg.LameConnectionTimeout = time.Duration(n) * time.Second
}

// Schedule enqueues task to run on the I/O thread before the next
// readiness wait. Callable from any thread.
func (s *Server) Schedule(task func()) {
	s.tasks.Schedule(task)
	if s.wake != nil {
		s.wake.Poke()
	}
}

// Terminate signals the loop to stop. Callable from any thread, and
// idempotent.
func (s *Server) Terminate() {
	if s.terminating.CompareAndSwap(false, true) {
		if s.wake != nil {
			s.wake.Poke()
		}
	}
}

// GetStatsDocument renders the stats document (spec §6), serialising
// with the I/O thread via Schedule so the snapshot is consistent.
func (s *Server) GetStatsDocument() string {
	result := make(chan string, 1)
	s.Schedule(func() {
		result <- s.statsDocumentLocked()
	})
	return <-result
}

func (s *Server) statsDocumentLocked() string {
	var snapshots []control.ConnSnapshot
	s.table.ForEach(func(c api.Conn, acceptedAt time.Time, id int64) {
		snapshots = append(snapshots, control.ConnSnapshot{
			Since:   acceptedAt.Local().Format(time.RFC1123),
			Fd:      c.Fd(),
			ID:      id,
			URI:     c.RequestURI(),
			Addr:    c.RemoteAddr(),
			User:    c.Credentials().Username,
			Input:   c.InputBufferSize(),
			Read:    c.BytesReceived(),
			Output:  c.OutputBufferSize(),
			Written: c.BytesSent(),
		})
	})
	return control.RenderStatsDocument(snapshots)
}

// LastFault reports the last internal invariant violation the loop
// detected (e.g. a bookkeeping mismatch in finishDeletions), or nil if
// none has occurred. Safe to call from any thread; this is the
// introspection surface an operator or host binary polls after Serve
// returns with an unexpected shutdown.
func (s *Server) LastFault() *api.Error {
	return s.lastFault.Load()
}

// checkThread enforces the I/O-thread-only contract on the api.Owner
// methods below: a call from any other goroutine is logged and terminates
// the loop. The embedding-API setters (AddWebSocketHandler,
// EnableSingleSignOn, SetAuthenticator, SetLameConnectionTimeoutSeconds)
// do not call it. It is a no-op before Serve has recorded the I/O
// thread's identity.
func (s *Server) checkThread() error {
	if !s.started.Load() {
		return nil
	}
	if gid.Current() != s.ioThreadGID.Load() {
		s.logger.Error("method called from non-I/O thread", zap.Int64("goroutine", gid.Current()))
		s.Terminate()
		return api.ErrWrongThread
	}
	return nil
}

// --- api.Owner ---

func (s *Server) SubscribeToWritable(c api.Conn) {
	if err := s.checkThread(); err != nil {
		return
	}
	m, ok := s.meta[c]
	if !ok {
		return
	}
	m.mask |= reactor.Writable
	if err := s.set.Modify(c.Fd(), m.mask, m.tag); err != nil {
		s.logger.Warn("failed to subscribe to writable", zap.Int("fd", c.Fd()), zap.Error(err))
		s.scheduleDelete(c)
	}
}

func (s *Server) UnsubscribeFromWritable(c api.Conn) {
	if err := s.checkThread(); err != nil {
		return
	}
	m, ok := s.meta[c]
	if !ok {
		return
	}
	m.mask &^= reactor.Writable
	if err := s.set.Modify(c.Fd(), m.mask, m.tag); err != nil {
		s.logger.Warn("failed to unsubscribe from writable", zap.Int("fd", c.Fd()), zap.Error(err))
		s.scheduleDelete(c)
	}
}

func (s *Server) Remove(c api.Conn) {
	if err := s.checkThread(); err != nil {
		return
	}
	s.scheduleDelete(c)
}

func (s *Server) GetHandler(endpoint string) (api.WebSocketHandler, bool) {
	if err := s.checkThread(); err != nil {
		return nil, false
	}
	return s.registry.Get(endpoint)
}

func (s *Server) IsCrossOriginAllowed(endpoint string) bool {
	if err := s.checkThread(); err != nil {
		return false
	}
	return s.registry.IsCrossOriginAllowed(endpoint)
}

func (s *Server) StaticRoot() string {
	if err := s.checkThread(); err != nil {
		return ""
	}
	return s.cfg.StaticRoot
}

func (s *Server) Authenticate(r *http.Request) (api.Credentials, bool) {
	if err := s.checkThread(); err != nil {
		return api.Credentials{}, false
	}
	if s.authenticator == nil {
		return api.Credentials{}, false
	}
	cred, err := s.authenticator.Authenticate(r)
	if err != nil || cred == nil {
		return api.Credentials{}, false
	}
	return *cred, true
}

// scheduleDelete marks c for removal at the end of the current loop
// iteration (spec §4.F step 6), deduplicating repeated schedules of the
// same connection within one iteration.
func (s *Server) scheduleDelete(c api.Conn) {
	s.pendingDelete[c] = struct{}{}
}
