// Package telemetry はサーバープロセス内の利用状況カウンタを保持する。
//
// カウンタはメモリ上のみで管理され、プロセス再起動でゼロに戻る。
package telemetry

import (
	"sync"
	"time"
)

// Counters は公開される利用状況カウンタ
type Counters struct {
	PlayersOnline int64 `json:"players_online"`
	TotalRequests int64 `json:"total_requests"`
	GameStarts    int64 `json:"game_starts"`
	Errors        int64 `json:"errors"`
}

// Snapshot はある時点のカウンタと稼働時間の写し
type Snapshot struct {
	Counters
	RequestCount int64         `json:"request_count"`
	StartTime    time.Time     `json:"-"`
	Uptime       time.Duration `json:"-"`
	TakenAt      time.Time     `json:"-"`
}

// Store はカウンタを排他制御付きで管理する
type Store struct {
	mu           sync.Mutex
	counters     Counters
	requestCount int64
	startTime    time.Time
	now          func() time.Time
}

// Option はStoreの生成オプション
type Option func(*Store)

// WithClock は時刻取得関数を差し替える（テスト用）
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore は新しいStoreを作成する。開始時刻は作成時点で固定される。
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.startTime = s.now()
	return s
}

// RecordRequest はリクエスト数を加算する
func (s *Store) RecordRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestCount++
	s.counters.TotalRequests++
}

// RecordGameStart はゲーム開始数とオンライン人数を加算する
func (s *Store) RecordGameStart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.GameStarts++
	s.counters.PlayersOnline++
}

// RecordGameEnd はオンライン人数を減算する。0未満にはならない。
func (s *Store) RecordGameEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counters.PlayersOnline > 0 {
		s.counters.PlayersOnline--
	}
}

// RecordError はエラー数を加算する
func (s *Store) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Errors++
}

// Snapshot は全カウンタの一貫した写しを返す
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	return Snapshot{
		Counters:     s.counters,
		RequestCount: s.requestCount,
		StartTime:    s.startTime,
		Uptime:       now.Sub(s.startTime),
		TakenAt:      now,
	}
}

// Now はStoreが使う現在時刻を返す
func (s *Store) Now() time.Time {
	return s.now()
}
