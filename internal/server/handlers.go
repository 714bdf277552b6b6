package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"jasim/internal/gameinfo"
	"jasim/internal/qrcode"
	"jasim/internal/static"
	"jasim/internal/telemetry"
)

const (
	// serverVersion はこのサーバーのバージョン
	serverVersion = "1.0.0"
	// gameName は統計に表示するゲーム名
	gameName = gameinfo.Title
)

// errInvalidJSON はリクエストボディがJSONとして解析できないことを表す
var errInvalidJSON = errors.New("invalid JSON body")

// StatsResponse は /stats のレスポンス
type StatsResponse struct {
	ServerUptime  float64 `json:"server_uptime"`
	TotalRequests int64   `json:"total_requests"`
	PlayersOnline int64   `json:"players_online"`
	GameStarts    int64   `json:"game_starts"`
	Errors        int64   `json:"errors"`
	ServerVersion string  `json:"server_version"`
	GameName      string  `json:"game_name"`
}

// HealthResponse は /health のレスポンス
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// StatusResponse は /api/status のレスポンス
type StatusResponse struct {
	IsRunning    bool               `json:"is_running"`
	Uptime       float64            `json:"uptime"`
	RequestCount int64              `json:"request_count"`
	GameStats    telemetry.Counters `json:"game_stats"`
}

// GameStartResponse は /api/game-start のレスポンス
type GameStartResponse struct {
	Status    string  `json:"status"`
	Message   string  `json:"message"`
	GameID    string  `json:"game_id"`
	Timestamp float64 `json:"timestamp"`
}

// GameEndResponse は /api/game-end のレスポンス。
// スコアとレベルはクライアントが送った値をそのまま返す。
type GameEndResponse struct {
	Status       string          `json:"status"`
	Message      string          `json:"message"`
	FinalScore   json.RawMessage `json:"final_score"`
	LevelReached json.RawMessage `json:"level_reached"`
	Timestamp    float64         `json:"timestamp"`
}

// ErrorResponse はエラー時のレスポンス
type ErrorResponse struct {
	Error     string  `json:"error"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

// unixSeconds は時刻を小数付きのUNIX秒に変換する
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// statsResponse は現在のカウンタから統計レスポンスを組み立てる
func (s *Server) statsResponse() StatsResponse {
	snap := s.store.Snapshot()
	return StatsResponse{
		ServerUptime:  snap.Uptime.Seconds(),
		TotalRequests: snap.TotalRequests,
		PlayersOnline: snap.PlayersOnline,
		GameStarts:    snap.GameStarts,
		Errors:        snap.Errors,
		ServerVersion: serverVersion,
		GameName:      gameName,
	}
}

// handleStats はゲーム統計エンドポイント
func (s *Server) handleStats(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.statsResponse())
}

// handleHealth はヘルスチェックエンドポイント
func (s *Server) handleHealth(c *gin.Context) {
	snap := s.store.Snapshot()
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: unixSeconds(snap.TakenAt),
		Uptime:    snap.Uptime.Seconds(),
	}

	c.JSON(http.StatusOK, response)
}

// handleStatus はサーバー稼働状況エンドポイント
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Status())
}

// handleGameInfo はゲーム情報エンドポイント
func (s *Server) handleGameInfo(c *gin.Context) {
	info, tag := gameinfo.ForAcceptLanguage(c.GetHeader("Accept-Language"))
	c.Header("Content-Language", tag.String())
	c.IndentedJSON(http.StatusOK, info)
}

// handleQR はスマートフォン用URLのQRコードを返す
func (s *Server) handleQR(c *gin.Context) {
	size := qrcode.DefaultSize
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 1024 {
			s.badRequest(c, "size must be between 64 and 1024")
			return
		}
		size = n
	}

	png, err := qrcode.Generate(s.PhoneURL(), size)
	if err != nil {
		s.internalError(c, "QRコードの生成に失敗しました", err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/png", png)
}

// handleGameStart はゲーム開始の通知を処理する
func (s *Server) handleGameStart(c *gin.Context) {
	if _, err := s.readJSONBody(c); err != nil {
		s.log.Error("ゲーム開始データの処理に失敗しました", "error", err)
		s.badRequest(c, "Invalid game start data")
		return
	}

	s.store.RecordGameStart()
	now := s.store.Now()

	response := GameStartResponse{
		Status:    "success",
		Message:   "تم بدء اللعبة بنجاح",
		GameID:    fmt.Sprintf("game_%d", now.Unix()),
		Timestamp: unixSeconds(now),
	}
	s.log.Info("ゲームが開始されました", "game_id", response.GameID)

	c.JSON(http.StatusOK, response)
}

// handleGameEnd はゲーム終了の通知を処理する
func (s *Server) handleGameEnd(c *gin.Context) {
	data, err := s.readJSONBody(c)
	if err != nil {
		s.log.Error("ゲーム終了データの処理に失敗しました", "error", err)
		s.badRequest(c, "Invalid game end data")
		return
	}

	// JSONオブジェクト以外（null や配列）は受け付けない
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		s.log.Error("ゲーム終了データの処理に失敗しました", "error", fmt.Errorf("%w: expected an object", errInvalidJSON))
		s.badRequest(c, "Invalid game end data")
		return
	}

	s.store.RecordGameEnd()

	response := GameEndResponse{
		Status:       "success",
		Message:      "تم إنهاء اللعبة",
		FinalScore:   fieldOrDefault(body, "score", "0"),
		LevelReached: fieldOrDefault(body, "level", "1"),
		Timestamp:    unixSeconds(s.store.Now()),
	}
	s.log.Info("ゲームが終了しました", "score", string(response.FinalScore), "level", string(response.LevelReached))

	c.JSON(http.StatusOK, response)
}

// fieldOrDefault はフィールドが存在すればその値を、なければデフォルトを返す
func fieldOrDefault(body map[string]json.RawMessage, key, def string) json.RawMessage {
	if v, ok := body[key]; ok {
		return v
	}
	return json.RawMessage(def)
}

// readJSONBody はボディを上限付きで読み込み、UTF-8のJSONとして妥当か検証する
func (s *Server) readJSONBody(c *gin.Context) ([]byte, error) {
	reader := http.MaxBytesReader(c.Writer, c.Request.Body, s.config.Server.MaxBodyBytes)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("ボディの読み込みに失敗: %w", err)
	}
	if !utf8.Valid(data) || !json.Valid(data) {
		return nil, errInvalidJSON
	}
	return data, nil
}

// handleStatic はドキュメントルートのファイルを配信する
func (s *Server) handleStatic(c *gin.Context) {
	asset, err := s.files.Read(c.Request.URL.Path)
	if err != nil {
		if errors.Is(err, static.ErrNotFound) {
			s.log.Debug("ファイルが見つかりません", "path", c.Request.URL.Path, "reason", err)
			s.notFound(c, "File not found")
			return
		}
		s.internalError(c, "ファイルの配信に失敗しました", err)
		return
	}

	s.log.Debug("ファイルを配信します", "path", c.Request.URL.Path, "file", asset.Name, "content_type", asset.ContentType)
	c.Header("Content-Length", strconv.Itoa(len(asset.Body)))
	if asset.CacheControl != "" {
		c.Header("Cache-Control", asset.CacheControl)
	}
	c.Data(http.StatusOK, asset.ContentType, asset.Body)
}

// ヘルパー関数

// abortWithError はエラーレスポンスを返して処理を中断する
func (s *Server) abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: unixSeconds(s.store.Now()),
	})
}

func (s *Server) notFound(c *gin.Context, message string) {
	s.abortWithError(c, http.StatusNotFound, "not_found", message)
}

func (s *Server) badRequest(c *gin.Context, message string) {
	s.abortWithError(c, http.StatusBadRequest, "bad_request", message)
}

// internalError はエラーを記録し、エラー数を加算して500を返す
func (s *Server) internalError(c *gin.Context, message string, err error) {
	s.store.RecordError()
	s.log.Report(message, err, "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey))
	s.abortWithError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
}
