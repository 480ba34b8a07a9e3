// File: control/sso.go
// Author: momentics <momentics@gmail.com>
//
// Minimal header-based Authenticator: trusts a header a fronting proxy
// is assumed to set after its own authentication step. Stands in for
// the original SsoAuthenticator; a host wanting real SSO (OAuth, SAML)
// supplies its own api.Authenticator instead of this one.
package control

import (
	"net/http"

	"github.com/loomstack/loomws/api"
)

// HeaderAuthenticator implements api.Authenticator by copying a trusted
// header's value into Credentials.Username.
type HeaderAuthenticator struct {
	HeaderName string
}

// NewHeaderAuthenticator builds an Authenticator keyed on opts.HeaderName,
// defaulting to "X-Forwarded-User" when unset.
func NewHeaderAuthenticator(opts api.SSOOptions) *HeaderAuthenticator {
	name := opts.HeaderName
	if name == "" {
		name = "X-Forwarded-User"
	}
	return &HeaderAuthenticator{HeaderName: name}
}

// Authenticate returns nil, nil when the header is absent — unauthenticated
// is not an error, per api.Authenticator's contract.
func (a *HeaderAuthenticator) Authenticate(r *http.Request) (*api.Credentials, error) {
	v := r.Header.Get(a.HeaderName)
	if v == "" {
		return nil, nil
	}
	return &api.Credentials{Username: v}, nil
}
