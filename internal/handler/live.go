package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/flicky/bakery-api/internal/middleware"
	"github.com/flicky/bakery-api/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// LiveHandler streams order change triggers over a WebSocket. Clients react
// to a message by re-reading their orders.
type LiveHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewLiveHandler(hub *realtime.Hub, allowedOrigins []string, log *slog.Logger) *LiveHandler {
	return &LiveHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		log: log,
	}
}

func (h *LiveHandler) Orders(c *gin.Context) {
	session := middleware.GetSession(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", "error", err, "user_id", session.UserID)
		return
	}

	sub := h.hub.Subscribe(session)
	go h.readPump(conn, sub)
	h.writePump(conn, sub)
}

// readPump discards client messages and unsubscribes once the socket closes.
func (h *LiveHandler) readPump(conn *websocket.Conn, sub *realtime.Subscriber) {
	defer h.hub.Unsubscribe(sub)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed", "error", err, "user_id", sub.UserID)
			}
			return
		}
	}
}

func (h *LiveHandler) writePump(conn *websocket.Conn, sub *realtime.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
