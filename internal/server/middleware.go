package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID はリクエストごとの識別子を付与する。
// クライアントが有効なUUIDを送ってきた場合はそれを引き継ぐ。
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger は全リクエストを数え、接続元・メソッド・パス・User-Agentを記録する
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.store.RecordRequest()

		userAgent := c.Request.UserAgent()
		if userAgent == "" {
			userAgent = "Unknown"
		}
		s.log.Info("Request",
			"client", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"user_agent", userAgent,
			"request_id", c.GetString(requestIDKey),
		)

		c.Next()

		s.log.Debug("Response",
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// cors はブラウザ・スマートフォンからのアクセス用にCORSヘッダーを付与する。
// プリフライトリクエストには本文なしで応答する。
func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// recoverPanic はハンドラ内のpanicを500応答に変換する。
// 1件の失敗でリッスンループが止まることはない。
func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	err, ok := recovered.(error)
	if !ok {
		err = fmt.Errorf("%v", recovered)
	}
	s.internalError(c, "リクエスト処理中に予期しないエラーが発生しました", err)
}
