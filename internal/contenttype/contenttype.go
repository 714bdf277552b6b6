// Package contenttype は拡張子からレスポンスヘッダー値を決定する
package contenttype

import (
	"path"
	"strings"
)

// Default は表にない拡張子に使うMIMEタイプ
const Default = "application/octet-stream"

// types は拡張子とMIMEタイプの対応表
var types = map[string]string{
	".html": "text/html; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".ico":  "image/x-icon",
	".json": "application/json; charset=utf-8",
	".txt":  "text/plain; charset=utf-8",
}

// Resolve はパスの拡張子に対応するMIMEタイプを返す
func Resolve(p string) string {
	if t, ok := types[ext(p)]; ok {
		return t
	}
	return Default
}

// CacheControl はアセット種別ごとのCache-Control値を返す。
// 指定がない種別は空文字列。
func CacheControl(p string) string {
	switch ext(p) {
	case ".js", ".css":
		return "public, max-age=3600"
	case ".html":
		return "no-cache"
	default:
		return ""
	}
}

// ext は小文字化した拡張子を返す
func ext(p string) string {
	return strings.ToLower(path.Ext(p))
}
