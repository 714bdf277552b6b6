// Package app はサーバーの組み立てと起動をまとめる
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"jasim/internal/config"
	"jasim/internal/logging"
	"jasim/internal/server"
	"jasim/internal/static"
	"jasim/internal/telemetry"
)

// Run は設定に従って依存関係を組み立て、サーバーを停止まで動かす
func Run(ctx context.Context, cfg *config.Config, opts ...server.Option) error {
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("ロガーの初期化に失敗: %w", err)
	}
	defer log.Close()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	files, err := static.Open(cfg.Static)
	if err != nil {
		log.Report("ドキュメントルートを開けませんでした", err)
		return err
	}
	defer files.Close()

	srv := server.New(cfg, log, telemetry.NewStore(), files, opts...)
	if err := srv.Start(ctx); err != nil {
		log.Report("サーバーの起動に失敗しました", err, "addr", cfg.ServerAddress())
		return err
	}
	return nil
}
