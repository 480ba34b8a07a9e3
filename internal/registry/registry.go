// File: internal/registry/registry.go
// Author: momentics <momentics@gmail.com>
//
// Package registry implements the handler registry of spec §4.E: an
// immutable-after-serve mapping from endpoint path to (handler,
// allow-cross-origin). Grounded on the original SeaSocks
// Server::addWebSocketHandler / getWebSocketHandler / isCrossOriginAllowed.
package registry

import "github.com/loomstack/loomws/api"

// Entry pairs a handler with its cross-origin policy.
type Entry struct {
	Handler           api.WebSocketHandler
	AllowCrossOrigin bool
}

// Registry is a read-mostly map: written only before Serve starts (per the
// recommended contract in spec §9 — mutation afterwards should go through
// Schedule), read freely afterwards from the I/O thread.
type Registry struct {
	byEndpoint map[string]Entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byEndpoint: make(map[string]Entry)}
}

// Add registers handler at endpoint, replacing any existing entry.
func (r *Registry) Add(endpoint string, handler api.WebSocketHandler, allowCrossOrigin bool) {
	r.byEndpoint[endpoint] = Entry{Handler: handler, AllowCrossOrigin: allowCrossOrigin}
}

// Get returns the handler registered at endpoint, distinguishing absence
// from a registered nil.
func (r *Registry) Get(endpoint string) (api.WebSocketHandler, bool) {
	e, ok := r.byEndpoint[endpoint]
	if !ok {
		return nil, false
	}
	return e.Handler, true
}

// IsCrossOriginAllowed reports the cross-origin policy for endpoint. An
// unregistered endpoint is treated as disallowed, matching the original's
// isCrossOriginAllowed returning false when the endpoint isn't found.
func (r *Registry) IsCrossOriginAllowed(endpoint string) bool {
	e, ok := r.byEndpoint[endpoint]
	return ok && e.AllowCrossOrigin
}
