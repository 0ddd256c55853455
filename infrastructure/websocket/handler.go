// Package websocket serves chat sessions over gorilla WebSocket connections.
package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"stranger-chat/domain"
	"stranger-chat/protocol"
	"stranger-chat/services"
	"stranger-chat/sink"

	gorilla "github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Config struct {
	BufferSize      int
	MaxMessageBytes int64
	PingInterval    time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	// AllowedOrigins restricts browser origins. Empty accepts any origin.
	AllowedOrigins []string
}

// Handler upgrades HTTP requests and runs one reader and one writer per connection.
type Handler struct {
	log      *slog.Logger
	service  services.IChatService
	upgrader gorilla.Upgrader
	cfg      Config
}

func NewHandler(log *slog.Logger, service services.IChatService, cfg Config) *Handler {
	h := &Handler{log: log, service: service, cfg: cfg}
	h.upgrader = gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(h.cfg.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	return lo.Contains(h.cfg.AllowedOrigins, origin)
}

// ServeHTTP blocks until the connection is closed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	id := domain.NewConnID()
	s := sink.NewConnectionSink(h.log, h.cfg.BufferSize)
	h.service.Connect(id, s)
	h.log.Info("Client connected", "conn_id", id, "remote", r.RemoteAddr)

	ctx := r.Context()
	go h.writePump(ctx, id, conn, s)
	h.readPump(ctx, id, conn, s)
}

func (h *Handler) readPump(ctx context.Context, id domain.ConnID, conn *gorilla.Conn, s *sink.ConnectionSink) {
	defer func() {
		// The partner must still be warned when the server is shutting down
		h.service.Leave(context.WithoutCancel(ctx), id)
		s.Close()
		_ = conn.Close()
		h.log.Info("Client disconnected", "conn_id", id)
	}()

	conn.SetReadLimit(h.cfg.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway, gorilla.CloseNoStatusReceived) {
				h.log.Warn("Connection closed unexpectedly", "conn_id", id, "error", err)
			}
			return
		}

		cmd, err := protocol.Decode(frame)
		if err != nil {
			h.service.ReportError(ctx, id, err)
			continue
		}
		_ = h.service.Dispatch(ctx, id, cmd)
	}
}

func (h *Handler) writePump(ctx context.Context, id domain.ConnID, conn *gorilla.Conn, s *sink.ConnectionSink) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case e := <-s.Events():
			frame, err := protocol.Encode(e)
			if err != nil {
				h.log.Error("Cannot encode event", "conn_id", id, "event", e.Type(), "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.WriteMessage(gorilla.TextMessage, frame); err != nil {
				h.log.Debug("Write failed", "conn_id", id, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		case <-s.Done():
			return
		case <-ctx.Done():
			msg := gorilla.FormatCloseMessage(gorilla.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(gorilla.CloseMessage, msg, time.Now().Add(h.cfg.WriteWait))
			return
		}
	}
}

// IsUpgrade reports whether r asks for a WebSocket connection.
func IsUpgrade(r *http.Request) bool {
	return gorilla.IsWebSocketUpgrade(r)
}
