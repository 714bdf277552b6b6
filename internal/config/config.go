package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/restartfu/gophig"
	"gopkg.in/yaml.v3"
)

// DefaultAsset はルートパスで配信されるゲーム本体のHTML
const DefaultAsset = "/super-mario-optimized.html"

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Static    StaticConfig    `yaml:"static"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host      string `yaml:"host"`       // リッスンするホスト
	Port      int    `yaml:"port"`       // リッスンするポート番号
	NoBrowser bool   `yaml:"no_browser"` // 起動時にブラウザを開かない

	// タイムアウト設定（0は無制限）
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	MaxBodyBytes int64 `yaml:"max_body_bytes"` // POSTボディの上限
}

// StaticConfig は静的ファイル配信の設定
type StaticConfig struct {
	Root     string `yaml:"root"`     // ドキュメントルート
	Embedded bool   `yaml:"embedded"` // 埋め込みファイルを使うか
}

// TelemetryConfig は統計配信の設定
type TelemetryConfig struct {
	StreamInterval time.Duration `yaml:"stream_interval"` // WebSocketへの送信間隔
}

// LogConfig はログ出力の設定
type LogConfig struct {
	File      string `yaml:"file"`       // ログファイルのパス（空ならコンソールのみ）
	Level     string `yaml:"level"`      // debug, info, warn, error
	SentryDSN string `yaml:"sentry_dsn"` // 空ならSentryは無効
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     0,
			WriteTimeout:    0,
			ShutdownTimeout: 5 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Static: StaticConfig{
			Root: ".",
		},
		Telemetry: TelemetryConfig{
			StreamInterval: 2 * time.Second,
		},
		Log: LogConfig{
			File:  "super-mario-server.log",
			Level: "info",
		},
	}
}

// Load は設定を読み込む。
// デフォルト値、CONFIG_FILE の設定ファイル、環境変数の順に上書きする。
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile は指定された設定ファイルを使って設定を読み込む。
// path が空の場合はファイルを読まない。
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", path, err)
		}
	}

	cfg.applyEnv()

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// readFile は拡張子に応じて設定ファイルを読み込む
func (c *Config) readFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		// 既存の値を残したまま上書きする
		return yaml.Unmarshal(data, c)
	case ".toml":
		g := gophig.NewGophig[tomlFile](path, gophig.TOMLMarshaler{}, os.ModePerm)
		loaded, err := g.LoadConf()
		if err != nil {
			return err
		}
		return c.merge(loaded)
	default:
		return fmt.Errorf("未対応の設定ファイル形式: %s", filepath.Ext(path))
	}
}

// tomlFile はTOML設定ファイルの内容。
// 書かれていないキーはnilのまま残り、既存の値を上書きしない。
// 時間はYAMLと同じく "10s" のような文字列で書く。
type tomlFile struct {
	Server struct {
		Host            *string `toml:"host"`
		Port            *int    `toml:"port"`
		NoBrowser       *bool   `toml:"no_browser"`
		ReadTimeout     *string `toml:"read_timeout"`
		WriteTimeout    *string `toml:"write_timeout"`
		ShutdownTimeout *string `toml:"shutdown_timeout"`
		MaxBodyBytes    *int64  `toml:"max_body_bytes"`
	} `toml:"server"`
	Static struct {
		Root     *string `toml:"root"`
		Embedded *bool   `toml:"embedded"`
	} `toml:"static"`
	Telemetry struct {
		StreamInterval *string `toml:"stream_interval"`
	} `toml:"telemetry"`
	Log struct {
		File      *string `toml:"file"`
		Level     *string `toml:"level"`
		SentryDSN *string `toml:"sentry_dsn"`
	} `toml:"log"`
}

// merge はTOMLファイルに書かれたキーだけを上書きする
func (c *Config) merge(f tomlFile) error {
	set(&c.Server.Host, f.Server.Host)
	set(&c.Server.Port, f.Server.Port)
	set(&c.Server.NoBrowser, f.Server.NoBrowser)
	set(&c.Server.MaxBodyBytes, f.Server.MaxBodyBytes)
	set(&c.Static.Root, f.Static.Root)
	set(&c.Static.Embedded, f.Static.Embedded)
	set(&c.Log.File, f.Log.File)
	set(&c.Log.Level, f.Log.Level)
	set(&c.Log.SentryDSN, f.Log.SentryDSN)

	durations := []struct {
		key string
		dst *time.Duration
		src *string
	}{
		{"server.read_timeout", &c.Server.ReadTimeout, f.Server.ReadTimeout},
		{"server.write_timeout", &c.Server.WriteTimeout, f.Server.WriteTimeout},
		{"server.shutdown_timeout", &c.Server.ShutdownTimeout, f.Server.ShutdownTimeout},
		{"telemetry.stream_interval", &c.Telemetry.StreamInterval, f.Telemetry.StreamInterval},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s の値が不正です: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// applyEnv は環境変数で設定を上書きする
func (c *Config) applyEnv() {
	c.Server.Host = getEnvOrDefault("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsIntOrDefault("PORT", c.Server.Port)
	c.Server.Port = getEnvAsIntOrDefault("SERVER_PORT", c.Server.Port)
	c.Server.NoBrowser = !getEnvAsBoolOrDefault("OPEN_BROWSER", !c.Server.NoBrowser)
	c.Static.Root = getEnvOrDefault("DOC_ROOT", c.Static.Root)
	c.Log.File = getEnvOrDefault("LOG_FILE", c.Log.File)
	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.SentryDSN = getEnvOrDefault("SENTRY_DSN", c.Log.SentryDSN)
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("タイムアウトに負の値は指定できません")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("無効なシャットダウンタイムアウト: %v", c.Server.ShutdownTimeout)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("無効なボディ上限: %d", c.Server.MaxBodyBytes)
	}

	if !c.Static.Embedded && c.Static.Root == "" {
		return fmt.Errorf("ドキュメントルートが設定されていません")
	}

	if c.Telemetry.StreamInterval <= 0 {
		return fmt.Errorf("無効な統計配信間隔: %v", c.Telemetry.StreamInterval)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("無効なログレベル: %q", c.Log.Level)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// BrowserHost はブラウザで開くときのホスト名を返す。
// 全インターフェースを表すアドレスは localhost に置き換える。
func (c *Config) BrowserHost() string {
	switch c.Server.Host {
	case "", "0.0.0.0", "::", "[::]":
		return "localhost"
	default:
		return c.Server.Host
	}
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault は環境変数を真偽値として取得する
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
