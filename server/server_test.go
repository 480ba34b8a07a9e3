package server

import (
	"net/http"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/loomstack/loomws/api"
)

type nopHandler struct{}

func (nopHandler) OnConnect(api.Conn)              {}
func (nopHandler) OnMessage(api.Conn, byte, []byte) {}
func (nopHandler) OnClose(api.Conn)                 {}

func TestNewAppliesOptions(t *testing.T) {
	logger := zap.NewExample()
	cfg := DefaultConfig()
	cfg.Port = 4242

	s := New(WithLogger(logger), WithConfig(cfg))
	if s.logger != logger {
		t.Error("WithLogger did not take effect")
	}
	if s.cfg.Port != 4242 {
		t.Errorf("cfg.Port = %d, want 4242", s.cfg.Port)
	}
}

func TestNewDefaultsToNopLoggerAndDefaultConfig(t *testing.T) {
	s := New()
	if s.cfg.Port != DefaultConfig().Port {
		t.Errorf("unexpected default port %d", s.cfg.Port)
	}
	if s.logger.Core().Enabled(zapcore.FatalLevel) {
		t.Error("default logger is not a no-op logger")
	}
}

func TestAddWebSocketHandlerIsVisibleThroughOwnerMethods(t *testing.T) {
	s := New()
	h := nopHandler{}
	s.AddWebSocketHandler("/chat", h, true)

	got, ok := s.GetHandler("/chat")
	if !ok || got != h {
		t.Fatalf("GetHandler(/chat) = %v, %v; want the registered handler", got, ok)
	}
	if !s.IsCrossOriginAllowed("/chat") {
		t.Error("expected cross-origin to be allowed for /chat")
	}
	if _, ok := s.GetHandler("/missing"); ok {
		t.Error("expected /missing to be absent")
	}
}

func TestEnableSingleSignOnInstallsHeaderAuthenticator(t *testing.T) {
	s := New()
	s.EnableSingleSignOn(api.SSOOptions{HeaderName: "X-Forwarded-User"})

	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-User", "alice")

	cred, ok := s.Authenticate(req)
	if !ok || cred.Username != "alice" {
		t.Fatalf("Authenticate = %+v, %v; want alice, true", cred, ok)
	}
}

func TestAuthenticateWithoutAuthenticatorConfigured(t *testing.T) {
	s := New()
	req, _ := http.NewRequest("GET", "/", nil)
	if _, ok := s.Authenticate(req); ok {
		t.Error("expected Authenticate to report false with no authenticator installed")
	}
}

func TestCheckThreadIsNoOpBeforeServeStarts(t *testing.T) {
	s := New()
	if err := s.checkThread(); err != nil {
		t.Errorf("checkThread before Serve = %v, want nil", err)
	}
}
