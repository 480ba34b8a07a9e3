// File: api/sso.go
// Author: momentics <momentics@gmail.com>
//
// Single-sign-on credential extraction is an external collaborator: the core
// loop only needs something that can look at a request and hand back
// Credentials. Concrete providers live outside this package.

package api

import "net/http"

// Authenticator extracts Credentials from an incoming upgrade (or plain GET)
// request. A nil Credentials with a nil error means "no identity could be
// established" rather than a hard failure — the connection proceeds
// unauthenticated.
type Authenticator interface {
	Authenticate(r *http.Request) (*Credentials, error)
}

// SSOOptions configures an Authenticator. Concrete providers (OAuth, SAML,
// header-based proxies) accept their own option set; this is the minimal
// shape the bundled header-based authenticator understands.
type SSOOptions struct {
	// HeaderName is the HTTP header a trusted upstream proxy sets with the
	// authenticated username, e.g. "X-Forwarded-User".
	HeaderName string
}
