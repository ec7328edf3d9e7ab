package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/kce-spotlight/console/internal/auth"
)

// HandleWebSocket upgrades a signed-in request and runs it as a Hub client.
// Cross-origin upgrades are refused.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, auth.SessionToken(r.Context()))
		client.Run(r.Context())
	}
}
