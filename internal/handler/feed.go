package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"horsecounter/internal/logger"
	ws "horsecounter/internal/service/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FeedWebsocketHandler registers viewers with the hub so they receive every
// new history entry.
func FeedWebsocketHandler(hub *ws.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("Feed viewer disconnected normally")
				} else {
					logger.Warning("Feed viewer disconnected with error: %v", err)
				}
				break
			}
		}
	}
}
