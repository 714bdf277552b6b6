package server

import (
	"io"

	"github.com/pkg/browser"
)

func init() {
	// ブラウザ起動コマンドの出力はサーバーログに混ぜない
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// openBrowser は既定のブラウザでURLを開く
func openBrowser(url string) error {
	return browser.OpenURL(url)
}
