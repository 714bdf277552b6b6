package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStatsStream はWebSocketで統計を定期配信する。
// クライアントの切断かサーバーのシャットダウンまで続く。
func (s *Server) handleStatsStream(c *gin.Context) {
	s.streamMu.Lock()
	if s.closing {
		s.streamMu.Unlock()
		s.abortWithError(c, http.StatusServiceUnavailable, "shutting_down", "Server is shutting down")
		return
	}
	s.streams.Add(1)
	s.streamMu.Unlock()
	defer s.streams.Done()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade がエラーレスポンスを書き込み済み
		s.log.Warn("WebSocketへのアップグレードに失敗しました", "error", err)
		return
	}
	defer conn.Close()

	// クライアントからの切断を検知する
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(s.statsResponse())
	}

	if err := send(); err != nil {
		return
	}

	ticker := time.NewTicker(s.streamInterval())
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return

		case <-ticker.C:
			if err := send(); err != nil {
				return
			}
		}
	}
}
