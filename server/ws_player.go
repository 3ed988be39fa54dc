package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jvetere1999/passion-os-sub009/core/auth"
	"github.com/jvetere1999/passion-os-sub009/core/player"
	"github.com/jvetere1999/passion-os-sub009/logger"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10 // must be shorter than wsPongWait
	wsMaxMessageSize = 512
)

// PlayerSocketHandler streams player state transitions over WebSocket.
// Each connection gets the current snapshot on subscribe and then every
// transition until it closes.
type PlayerSocketHandler struct {
	player   *player.Player
	upgrader websocket.Upgrader
}

// NewPlayerSocketHandler creates the WebSocket handler for a player.
func NewPlayerSocketHandler(p *player.Player) *PlayerSocketHandler {
	return &PlayerSocketHandler{
		player: p,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeWS upgrades the connection and pushes state snapshots.
func (h *PlayerSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if auth.Enabled() {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "Token required", http.StatusUnauthorized)
			return
		}
		if _, err := auth.ParseToken(token); err != nil {
			logger.Warn("invalid WebSocket token", logger.ErrorField(err))
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	states := h.player.Subscribe()
	defer h.player.Unsubscribe(states)

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	logger.Info("player socket connected", logger.String("remote", r.RemoteAddr))

	// The read loop only exists to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					logger.Warn("player socket closed unexpectedly", logger.ErrorField(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case state, ok := <-states:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(state); err != nil {
				logger.Debug("player socket write failed", logger.ErrorField(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
