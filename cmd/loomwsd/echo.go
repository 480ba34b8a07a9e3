package main

import (
	"go.uber.org/zap"

	"github.com/loomstack/loomws/api"
)

// echoHandler is the demo WebSocket handler registered at /echo: it
// sends back every data frame it receives, unchanged. A real host
// application supplies its own api.WebSocketHandler implementation.
type echoHandler struct {
	logger *zap.Logger
}

func (h *echoHandler) OnConnect(conn api.Conn) {
	h.logger.Info("client connected", zap.String("remote_addr", conn.RemoteAddr()))
}

func (h *echoHandler) OnMessage(conn api.Conn, opcode byte, payload []byte) {
	h.logger.Debug("message received", zap.String("remote_addr", conn.RemoteAddr()), zap.Int("bytes", len(payload)))
	if err := conn.Send(opcode, payload); err != nil {
		h.logger.Warn("failed to echo message", zap.Error(err))
	}
}

func (h *echoHandler) OnClose(conn api.Conn) {
	h.logger.Info("client disconnected", zap.String("remote_addr", conn.RemoteAddr()))
}
