// Package main はゲームサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"jasim/internal/app"
	"jasim/internal/config"
)

func main() {
	// コマンドラインオプション
	var (
		configFile = flag.String("config", os.Getenv("CONFIG_FILE"), "設定ファイル (.yaml / .toml)")
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port       = flag.Int("port", -1, "サーバーのポート (デフォルト: 8000)")
		root       = flag.String("root", "", "ドキュメントルート (デフォルト: カレントディレクトリ)")
		embedded   = flag.Bool("embedded", false, "埋め込みのゲームファイルを配信する")
		noBrowser  = flag.Bool("no-browser", false, "起動時にブラウザを開かない")
		help       = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Super Mario game server")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port >= 0 {
		cfg.Server.Port = *port
	}
	if *root != "" {
		cfg.Static.Root = *root
	}
	if *embedded {
		cfg.Static.Embedded = true
	}
	if *noBrowser {
		cfg.Server.NoBrowser = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定が不正です: %v", err)
	}

	if err := app.Run(context.Background(), cfg); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
