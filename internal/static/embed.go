package static

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed all:dist
var embedFS embed.FS

// EmbeddedFS はバイナリに埋め込まれた代替ドキュメントルートを返す
func EmbeddedFS() (fs.FS, error) {
	// dist のサブディレクトリを取得
	sub, err := fs.Sub(embedFS, "dist")
	if err != nil {
		return nil, fmt.Errorf("埋め込み静的ファイルシステムの作成に失敗: %w", err)
	}
	return sub, nil
}
