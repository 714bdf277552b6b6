package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/df-mc/atomic"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"jasim/internal/config"
	"jasim/internal/logging"
	"jasim/internal/static"
	"jasim/internal/telemetry"
)

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config *config.Config
	log    *logging.Logger
	store  *telemetry.Store
	files  *static.Server

	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener

	running atomic.Bool
	ready   chan struct{}

	// done はシャットダウン開始時に閉じられ、WebSocket配信を止める
	done         chan struct{}
	streamMu     sync.Mutex
	closing      bool
	streams      sync.WaitGroup
	shutdownOnce sync.Once
	shutdownErr  error

	localIP     string
	resolveIP   func() string
	openBrowser func(url string) error
}

// Option はServerの生成オプション
type Option func(*Server)

// WithBrowserOpener はブラウザ起動処理を差し替える
func WithBrowserOpener(fn func(url string) error) Option {
	return func(s *Server) {
		s.openBrowser = fn
	}
}

// WithLocalIPResolver はネットワークアドレスの取得処理を差し替える
func WithLocalIPResolver(fn func() string) Option {
	return func(s *Server) {
		s.resolveIP = fn
	}
}

// New は新しいServerインスタンスを作成する。
// カウンタとドキュメントルートは呼び出し側が所有し、注入する。
func New(cfg *config.Config, log *logging.Logger, store *telemetry.Store, files *static.Server, opts ...Option) *Server {
	s := &Server{
		config:      cfg,
		log:         log,
		store:       store,
		files:       files,
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
		localIP:     fallbackIP,
		resolveIP:   LocalIP,
		openBrowser: openBrowser,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = s.newEngine()
	s.httpServer = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// Handler はルーティング済みのhttp.Handlerを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Ready はリッスン開始後に閉じられるチャンネルを返す
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr は実際にリッスンしているアドレスを返す。起動前はnil。
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Running はサーバーが稼働中かどうかを返す
func (s *Server) Running() bool {
	return s.running.Load()
}

// Start はサーバーを起動し、コンテキストのキャンセルかシグナル受信まで処理を続ける
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.ServerAddress()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%s でのリッスンに失敗: %w", addr, err)
	}
	s.listener = ln
	s.localIP = s.resolveIP()
	s.running.Store(true)
	close(s.ready)

	// シャットダウン用のチャンネル
	serveErrCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
	}()

	s.logBanner()

	if !s.config.Server.NoBrowser {
		go s.launchBrowser()
	}

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		s.log.Info("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		s.log.Info("シグナルを受信しました", "signal", sig.String())
	case err := <-serveErrCh:
		s.running.Store(false)
		return fmt.Errorf("サーバーの実行に失敗: %w", err)
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.log.Info("サーバーをシャットダウンしています...")
		s.streamMu.Lock()
		s.closing = true
		close(s.done)
		s.streamMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		err := s.httpServer.Shutdown(ctx)
		s.streams.Wait()
		s.running.Store(false)

		if err != nil {
			s.shutdownErr = fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
			return
		}
		s.log.Info("サーバーが正常にシャットダウンされました")
	})
	return s.shutdownErr
}

// Status はサーバーの稼働状況を返す
func (s *Server) Status() StatusResponse {
	snap := s.store.Snapshot()
	return StatusResponse{
		IsRunning:    s.running.Load(),
		Uptime:       snap.Uptime.Seconds(),
		RequestCount: snap.RequestCount,
		GameStats:    snap.Counters,
	}
}

// port は実際にリッスンしているポート番号を返す
func (s *Server) port() int {
	if tcpAddr, ok := s.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return s.config.Server.Port
}

// LocalURL はこのマシンから開くためのURLを返す
func (s *Server) LocalURL() string {
	return "http://" + net.JoinHostPort(s.config.BrowserHost(), strconv.Itoa(s.port()))
}

// NetworkURL は同じネットワーク上の端末から開くためのURLを返す
func (s *Server) NetworkURL() string {
	return "http://" + net.JoinHostPort(s.localIP, strconv.Itoa(s.port()))
}

// PhoneURL はスマートフォンでゲームを開くためのURLを返す
func (s *Server) PhoneURL() string {
	return s.NetworkURL() + config.DefaultAsset
}

// logBanner は起動時の案内を出力する
func (s *Server) logBanner() {
	line := strings.Repeat("=", 60)
	endpoints := lo.Map(s.routes(), func(r route, _ int) string {
		return r.method + " " + r.path
	})

	s.log.Info(line)
	s.log.Info("ゲームサーバーが起動しました", "title", gameName, "started_at", s.store.Snapshot().StartTime.Format(time.RFC3339))
	s.log.Info(line)
	s.log.Info("ローカルアドレス", "url", s.LocalURL())
	s.log.Info("ネットワークアドレス", "url", s.NetworkURL())
	s.log.Info("スマートフォン用", "url", s.PhoneURL(), "qr", s.NetworkURL()+"/api/qr")
	s.log.Info(line)
	s.log.Info("メインファイル", "path", config.DefaultAsset, "root", s.files.Source())
	s.log.Info("APIエンドポイント", "routes", strings.Join(endpoints, ", "))
	s.log.Info(line)
	s.log.Info("Ctrl+C でサーバーを停止します")
	s.log.Info(line)
}

// launchBrowser はゲームのURLをブラウザで開く。失敗しても起動は続ける。
func (s *Server) launchBrowser() {
	url := s.LocalURL() + config.DefaultAsset
	if err := s.openBrowser(url); err != nil {
		s.log.Debug("ブラウザを開けませんでした", "url", url, "error", err)
	}
}

// streamInterval はWebSocketへの統計送信間隔を返す
func (s *Server) streamInterval() time.Duration {
	return s.config.Telemetry.StreamInterval
}
