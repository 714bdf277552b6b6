package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"jasim/internal/logging"
	"jasim/internal/static"
	"jasim/internal/telemetry"
)

// startServer はサーバーを別ゴルーチンで起動し、リッスン開始まで待つ
func startServer(t *testing.T, srv *Server) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("サーバーの起動に失敗しました: %v", err)
	case <-time.After(3 * time.Second):
		cancel()
		t.Fatal("サーバーの起動がタイムアウトしました")
	}
	return cancel, errCh
}

// TestServerStartAndShutdown はサーバーの起動とシャットダウンをテストする
func TestServerStartAndShutdown(t *testing.T) {
	env := newTestEnv(t)

	cancel, errCh := startServer(t, env.srv)
	if !env.srv.Running() {
		t.Error("起動後は稼働中であるべきです")
	}

	// コンテキストをキャンセルしてサーバーを停止
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("サーバーの起動/停止でエラーが発生しました: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}

	if env.srv.Running() {
		t.Error("停止後は稼働中フラグが下りているべきです")
	}
	if env.srv.Status().IsRunning {
		t.Error("Status should report is_running=false after shutdown")
	}

	// 二重のシャットダウンは無害
	if err := env.srv.Shutdown(); err != nil {
		t.Errorf("2回目のシャットダウンでエラー: %v", err)
	}
}

// TestServerEndpoints は実際のリスナー経由でエンドポイントをテストする
func TestServerEndpoints(t *testing.T) {
	env := newTestEnv(t)

	cancel, errCh := startServer(t, env.srv)
	defer func() {
		cancel()
		<-errCh
	}()

	baseURL := fmt.Sprintf("http://%s", env.srv.Addr())

	testCases := []struct {
		name           string
		method         string
		endpoint       string
		body           string
		expectedStatus int
	}{
		{"ルート", http.MethodGet, "/", "", http.StatusOK},
		{"index.html", http.MethodGet, "/index.html", "", http.StatusOK},
		{"ヘルスチェック", http.MethodGet, "/health", "", http.StatusOK},
		{"統計", http.MethodGet, "/stats", "", http.StatusOK},
		{"ゲーム情報", http.MethodGet, "/api/game-info", "", http.StatusOK},
		{"ステータス", http.MethodGet, "/api/status", "", http.StatusOK},
		{"存在しないファイル", http.MethodGet, "/nope.js", "", http.StatusNotFound},
		{"ゲーム開始", http.MethodPost, "/api/game-start", "{}", http.StatusOK},
		{"不正なゲーム開始", http.MethodPost, "/api/game-start", "{", http.StatusBadRequest},
		{"存在しないAPI", http.MethodPost, "/api/nope", "{}", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, baseURL+tc.endpoint, strings.NewReader(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("HTTPリクエストでエラーが発生しました: %v", err)
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			if resp.StatusCode != tc.expectedStatus {
				t.Errorf("予期しないステータスコード: got %d, want %d", resp.StatusCode, tc.expectedStatus)
			}
		})
	}

	status := env.srv.Status()
	if !status.IsRunning {
		t.Error("稼働中であるべきです")
	}
	if status.RequestCount != int64(len(testCases)) {
		t.Errorf("request_count = %d, want %d", status.RequestCount, len(testCases))
	}
}

// TestServerConcurrentRequests は並行リクエストでカウンタが失われないことを確認する
func TestServerConcurrentRequests(t *testing.T) {
	env := newTestEnv(t)

	cancel, errCh := startServer(t, env.srv)
	defer func() {
		cancel()
		<-errCh
	}()

	baseURL := fmt.Sprintf("http://%s", env.srv.Addr())

	const clients = 8
	const perClient = 10

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perClient; j++ {
				resp, err := http.Post(baseURL+"/api/game-start", "application/json", strings.NewReader("{}"))
				if err != nil {
					t.Errorf("request failed: %v", err)
					return
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	snap := env.store.Snapshot()
	if snap.GameStarts != clients*perClient {
		t.Errorf("game_starts = %d, want %d", snap.GameStarts, clients*perClient)
	}
	if snap.TotalRequests != clients*perClient {
		t.Errorf("total_requests = %d, want %d", snap.TotalRequests, clients*perClient)
	}
}

func TestServerStart_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := testConfig()
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	srv := New(cfg, logging.Discard(), telemetry.NewStore(), static.New(testFiles(), "test"))
	err = srv.Start(context.Background())
	if err == nil {
		t.Fatal("使用中のポートではエラーが期待されました")
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		t.Errorf("Expected wrapped *net.OpError, got %T: %v", err, err)
	}
	if srv.Running() {
		t.Error("起動失敗時は稼働中であってはいけません")
	}
}

// TestServerBrowserLaunch はブラウザ起動とその失敗が無視されることをテストする
func TestServerBrowserLaunch(t *testing.T) {
	opened := make(chan string, 1)
	env := newTestEnv(t, WithBrowserOpener(func(url string) error {
		opened <- url
		return errors.New("no browser available")
	}))
	env.srv.config.Server.NoBrowser = false
	env.srv.config.Server.Host = "0.0.0.0"

	cancel, errCh := startServer(t, env.srv)

	select {
	case url := <-opened:
		want := fmt.Sprintf("http://localhost:%d/super-mario-optimized.html", env.srv.port())
		if url != want {
			t.Errorf("Opened %q, want %q", url, want)
		}
	case <-time.After(3 * time.Second):
		t.Error("ブラウザが開かれませんでした")
	}

	// ブラウザの失敗後もサーバーは動作する
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", env.srv.port()))
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestServerURLs(t *testing.T) {
	env := newTestEnv(t)

	cancel, errCh := startServer(t, env.srv)
	defer func() {
		cancel()
		<-errCh
	}()

	port := env.srv.port()
	if got, want := env.srv.LocalURL(), fmt.Sprintf("http://127.0.0.1:%d", port); got != want {
		t.Errorf("LocalURL = %q, want %q", got, want)
	}
	if got, want := env.srv.NetworkURL(), fmt.Sprintf("http://192.168.1.20:%d", port); got != want {
		t.Errorf("NetworkURL = %q, want %q", got, want)
	}
	if got := env.srv.PhoneURL(); !strings.HasSuffix(got, "/super-mario-optimized.html") {
		t.Errorf("PhoneURL = %q", got)
	}
}
