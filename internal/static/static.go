// Package static はドキュメントルート配下のゲームアセットを読み出す。
//
// URLパスは正規化してからドキュメントルートからの相対名に変換する。
// ディスク上のルートは os.Root で開くため、".." やシンボリックリンクで
// ルートの外へ出ることはできない。
package static

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"jasim/internal/config"
	"jasim/internal/contenttype"
)

// ErrNotFound は要求されたパスが通常ファイルとして存在しないことを表す
var ErrNotFound = errors.New("file not found")

// SourceEmbedded は埋め込みルートを使っているときの Source の値
const SourceEmbedded = "embedded"

// Asset は読み出したファイルと付随するヘッダー値
type Asset struct {
	Name         string // ルートからの相対名
	ContentType  string
	CacheControl string
	Body         []byte
}

// Server はドキュメントルートからファイルを読み出す
type Server struct {
	fsys   fs.FS
	root   *os.Root
	source string
}

// New は任意のファイルシステムをルートとするServerを作成する
func New(fsys fs.FS, source string) *Server {
	return &Server{fsys: fsys, source: source}
}

// Open は設定に従ってドキュメントルートを開く。
// ディレクトリが存在しない場合は埋め込みルートに切り替える。
func Open(cfg config.StaticConfig) (*Server, error) {
	if !cfg.Embedded {
		root, err := os.OpenRoot(cfg.Root)
		if err == nil {
			return &Server{fsys: root.FS(), root: root, source: cfg.Root}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ドキュメントルート %s を開けません: %w", cfg.Root, err)
		}
	}

	fsys, err := EmbeddedFS()
	if err != nil {
		return nil, err
	}
	return New(fsys, SourceEmbedded), nil
}

// Source はドキュメントルートの説明（ディレクトリ名または "embedded"）を返す
func (s *Server) Source() string {
	return s.source
}

// Close はディスク上のルートを閉じる
func (s *Server) Close() error {
	if s.root == nil {
		return nil
	}
	return s.root.Close()
}

// Resolve はURLパスをドキュメントルートからの相対名に変換する。
// "/" と "/index.html" はゲーム本体のHTMLに置き換える。
func Resolve(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" || name == "index.html" {
		name = strings.TrimPrefix(config.DefaultAsset, "/")
	}
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

// Read はURLパスに対応するファイルを読み出す。
// 通常ファイルが見つからない場合は ErrNotFound を返す。
func (s *Server) Read(urlPath string) (*Asset, error) {
	name, ok := Resolve(urlPath)
	if !ok {
		return nil, ErrNotFound
	}

	// 存在確認に失敗した場合は理由に関わらず見つからない扱い
	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, name)
	}

	body, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("ファイル %s の読み込みに失敗: %w", name, err)
	}

	return &Asset{
		Name:         name,
		ContentType:  contenttype.Resolve(name),
		CacheControl: contenttype.CacheControl(name),
		Body:         body,
	}, nil
}
