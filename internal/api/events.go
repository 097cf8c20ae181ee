package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleEvents upgrades the connection and streams save/delete/refresh
// notifications for the authenticated user until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	client := s.hub.Register(user.ID, conn)
	defer s.hub.Unregister(user.ID, client)

	slog.Info("event stream connected", "user", user.ID)

	// The stream is one-way; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			slog.Debug("event stream closed", "user", user.ID, "error", err)
			return
		}
	}
}
