package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/koru-backend/logger"
)

// TokenResolver maps an access token to the user it was issued for.
type TokenResolver func(token string) (userID string, err error)

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || origin == "" || allowed[origin]
		},
	}
}

// HistoryHandler upgrades GET /ws/history?token=... and streams the user's
// history change events until the client disconnects.
func HistoryHandler(hub *Hub, resolve TokenResolver, allowedOrigins []string, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	upgrader := newUpgrader(allowedOrigins)

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token", "code": "AUTH"})
			return
		}
		userID, err := resolve(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "code": "AUTH"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "error", err)
			return
		}
		client := hub.Register(userID, conn)
		defer hub.Unregister(userID, conn)
		log.Debug("history ws connected", "user_id", userID)

		hello, _ := json.Marshal(gin.H{"type": "connected"})
		client.Send <- hello

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		log.Debug("history ws disconnected", "user_id", userID)
	}
}
