package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"stranger-chat/infrastructure/websocket"
	"stranger-chat/observability"
	"stranger-chat/runtime"
)

// StateSource is implemented by runtime.Coordinator.
type StateSource interface {
	Stats() observability.MonitoringStats
	Sessions() []runtime.SessionView
}

type RouterConfig struct {
	// StaticDir holds the presentation pages. Empty disables static serving.
	StaticDir      string
	AllowedOrigins []string
	// Inspect exposes the session table on /inspect.
	Inspect bool
}

// NewRouter exposes the chat WebSocket on /ws and on upgrade requests to /,
// the presentation pages on /, plus /health and /stats.
func NewRouter(log *slog.Logger, chat http.Handler, state StateSource, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	var static http.Handler = http.NotFoundHandler()
	if cfg.StaticDir != "" {
		static = http.FileServer(http.Dir(cfg.StaticDir))
		log.Info("Serving static files", "dir", cfg.StaticDir)
	}

	mux.Handle("/ws", chat)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsUpgrade(r) {
			chat.ServeHTTP(w, r)
			return
		}
		static.ServeHTTP(w, r)
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(log, w, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(log, w, state.Stats())
	})
	if cfg.Inspect {
		mux.Handle("GET /inspect", inspectHandler(log, state))
		log.Debug("Session inspector available", "endpoint", "/inspect")
	}

	return withCORS(cfg.AllowedOrigins, mux)
}

func writeJSON(log *slog.Logger, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("Failed to write response", "error", err)
	}
}
