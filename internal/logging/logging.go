// Package logging はアプリケーションのロガーとエラー通知を初期化する。
//
// ログはコンソールと追記専用のログファイルの両方に出力される。
// Sentry DSN が設定されている場合は内部エラーをSentryへ送信する。
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"jasim/internal/config"
)

// Logger はslogロガーと出力先を束ねる
type Logger struct {
	*slog.Logger

	file   *os.File
	sentry bool
}

// ParseLevel は文字列のログレベルをslog.Levelに変換する
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unrecognized log level: %q", level)
	}
}

// New は設定からロガーを作成する
func New(cfg config.LogConfig, console io.Writer) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	l := &Logger{}
	out := console
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("ログファイル %s を開けません: %w", cfg.File, err)
		}
		l.file = f
		out = io.MultiWriter(console, f)
	}

	l.Logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			l.Logger.Warn("Sentryの初期化に失敗しました", "error", err)
		} else {
			l.sentry = true
		}
	}

	return l, nil
}

// Discard は何も出力しないロガーを返す（テスト用）
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Report はエラーをログに記録し、Sentryが有効なら送信する
func (l *Logger) Report(msg string, err error, args ...any) {
	l.Logger.Error(msg, append([]any{"error", err}, args...)...)
	if l.sentry && err != nil {
		sentry.CaptureException(fmt.Errorf("%s: %w", msg, err))
	}
}

// Close はSentryの送信待ちを処理し、ログファイルを閉じる
func (l *Logger) Close() error {
	if l.sentry {
		sentry.Flush(2 * time.Second)
	}
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
