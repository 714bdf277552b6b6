// Package qrcode はスマートフォンから接続するためのQRコードを生成する
package qrcode

import (
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

// DefaultSize はPNG画像の一辺のピクセル数
const DefaultSize = 256

// Generate はURLを埋め込んだQRコードのPNG画像を生成する
func Generate(url string, size int) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("QRコードに埋め込むURLが空です")
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qr.Encode(url, qr.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("QRコードの生成に失敗: %w", err)
	}
	return png, nil
}
