package control

import (
	"net/http"
	"testing"

	"github.com/loomstack/loomws/api"
)

func TestHeaderAuthenticatorExtractsUsername(t *testing.T) {
	auth := NewHeaderAuthenticator(api.SSOOptions{HeaderName: "X-Forwarded-User"})
	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-User", "alice")

	cred, err := auth.Authenticate(req)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if cred == nil || cred.Username != "alice" {
		t.Fatalf("got %+v, want Username=alice", cred)
	}
}

func TestHeaderAuthenticatorAbsentHeaderIsNotAnError(t *testing.T) {
	auth := NewHeaderAuthenticator(api.SSOOptions{})
	req, _ := http.NewRequest("GET", "/", nil)

	cred, err := auth.Authenticate(req)
	if err != nil || cred != nil {
		t.Fatalf("got %+v, %v; want nil, nil", cred, err)
	}
}

func TestHeaderAuthenticatorDefaultsHeaderName(t *testing.T) {
	auth := NewHeaderAuthenticator(api.SSOOptions{})
	if auth.HeaderName != "X-Forwarded-User" {
		t.Fatalf("got %q, want default header name", auth.HeaderName)
	}
}
