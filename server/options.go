// File: server/options.go
// Package server defines functional options for Server construction.
// Author: momentics <momentics@gmail.com>

package server

import "go.uber.org/zap"

// Option customizes Server construction, following the teacher's
// ServerOption pattern.
type Option func(*Server)

// WithLogger attaches a structured logger; the default is zap.NewNop(),
// matching the pack's silent-by-default logging convention.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig overrides the default configuration wholesale.
func WithConfig(cfg *Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}
