// Package server は、ゲームの静的ファイル配信と統計用JSON APIを提供します。
//
// 責務:
//   - HTTPサーバーの起動と管理（バナー表示、ブラウザ起動、シグナル処理）
//   - ルートテーブルに基づくリクエストの振り分け
//   - 静的ファイル（HTML/CSS/JS/画像）の配信
//   - 統計・ヘルスチェック・ゲーム開始/終了APIの処理
//   - WebSocketによる統計のリアルタイム配信
//
// 仕様:
//   - ルーティングにはginを使用
//   - WebSocketはgorilla/websocketを使用
//   - グレースフルシャットダウンに対応
//   - 複数クライアントの同時接続をサポート（カウンタはtelemetry.Storeで排他制御）
//   - 個々のリクエストにはタイムアウトを設けない（設定で変更可能）
package server
