package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// route はメソッドとパスの組とハンドラの対応
type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

// routes はAPIのルートテーブルを返す。
// ここにないGET/HEADは静的ファイル、それ以外は404になる。
func (s *Server) routes() []route {
	return []route{
		{http.MethodGet, "/stats", s.handleStats},
		{http.MethodGet, "/health", s.handleHealth},
		{http.MethodGet, "/api/status", s.handleStatus},
		{http.MethodGet, "/api/game-info", s.handleGameInfo},
		{http.MethodGet, "/api/qr", s.handleQR},
		{http.MethodGet, "/ws/stats", s.handleStatsStream},
		{http.MethodPost, "/api/game-start", s.handleGameStart},
		{http.MethodPost, "/api/game-end", s.handleGameEnd},
	}
}

// newEngine はルートテーブルとミドルウェアを登録したginエンジンを作成する
func (s *Server) newEngine() *gin.Engine {
	engine := gin.New()

	// (メソッド, パス) の完全一致のみで振り分ける
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.HandleMethodNotAllowed = false

	// クライアントアドレスは接続元をそのまま使う
	_ = engine.SetTrustedProxies(nil)

	engine.Use(
		gin.CustomRecoveryWithWriter(io.Discard, s.recoverPanic),
		s.requestID(),
		s.requestLogger(),
		s.cors(),
	)

	for _, r := range s.routes() {
		engine.Handle(r.method, r.path, r.handler)
	}
	engine.NoRoute(s.handleFallback)

	return engine
}

// handleFallback はルートテーブルにないリクエストを処理する
func (s *Server) handleFallback(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead:
		s.handleStatic(c)
	default:
		s.notFound(c, "Endpoint not found")
	}
}
