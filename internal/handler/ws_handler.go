package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/randx"
)

// HandleWebSocket upgrades the request and runs the connection until it ends.
// The connection joins a room later through a join event.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logx.Warn("Failed to upgrade connection to WebSocket", "error", err.Error())
			return
		}

		connectionID := randx.ConnectionID()
		client := chat.NewClient(deps.Hub, conn, connectionID)

		if !deps.Hub.Register(client) {
			logx.Warn("WebSocket connection rejected: hub is shutting down.", "connection_id", connectionID)
			closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
			_ = conn.Close()
			return
		}

		go client.WritePump()

		client.ReadPump()
	}
}
