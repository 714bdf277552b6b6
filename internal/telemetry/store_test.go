package telemetry

import (
	"sync"
	"testing"
	"time"
)

// fakeClock はテスト用の手動時計
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStore_GameStartsIncreasePlayers(t *testing.T) {
	s := NewStore()

	const k = 7
	for i := 0; i < k; i++ {
		s.RecordGameStart()
	}

	snap := s.Snapshot()
	if snap.GameStarts != k {
		t.Errorf("Expected %d game starts, got %d", k, snap.GameStarts)
	}
	if snap.PlayersOnline != k {
		t.Errorf("Expected %d players online, got %d", k, snap.PlayersOnline)
	}
}

// TestStore_PlayersOnlineNeverNegative はオンライン人数が負にならないことを確認する
func TestStore_PlayersOnlineNeverNegative(t *testing.T) {
	s := NewStore()

	for i := 0; i < 5; i++ {
		s.RecordGameEnd()
	}
	if got := s.Snapshot().PlayersOnline; got != 0 {
		t.Fatalf("Expected 0 players online, got %d", got)
	}

	s.RecordGameStart()
	s.RecordGameStart()
	s.RecordGameEnd()
	s.RecordGameEnd()
	s.RecordGameEnd()

	snap := s.Snapshot()
	if snap.PlayersOnline != 0 {
		t.Errorf("Expected 0 players online, got %d", snap.PlayersOnline)
	}
	if snap.GameStarts != 2 {
		t.Errorf("Expected game starts to stay at 2, got %d", snap.GameStarts)
	}
}

func TestStore_RequestsAndErrors(t *testing.T) {
	s := NewStore()

	s.RecordRequest()
	s.RecordRequest()
	s.RecordError()

	snap := s.Snapshot()
	if snap.TotalRequests != 2 || snap.RequestCount != 2 {
		t.Errorf("Expected 2 requests, got total=%d count=%d", snap.TotalRequests, snap.RequestCount)
	}
	if snap.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", snap.Errors)
	}
}

func TestStore_Uptime(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	s := NewStore(WithClock(clock.Now))

	clock.Advance(90 * time.Second)

	snap := s.Snapshot()
	if snap.Uptime != 90*time.Second {
		t.Errorf("Expected snapshot uptime 90s, got %v", snap.Uptime)
	}
	if !snap.StartTime.Equal(start) {
		t.Errorf("Expected start time %v, got %v", start, snap.StartTime)
	}
	if want := start.Add(90 * time.Second); !snap.TakenAt.Equal(want) {
		t.Errorf("Expected snapshot time %v, got %v", want, snap.TakenAt)
	}
	if got := snap.TakenAt.Sub(snap.StartTime); got != snap.Uptime {
		t.Errorf("Uptime %v must equal TakenAt - StartTime %v", snap.Uptime, got)
	}
}

// TestStore_ConcurrentUpdates は並行更新でカウントが失われないことを確認する
func TestStore_ConcurrentUpdates(t *testing.T) {
	s := NewStore()

	const workers = 16
	const perWorker = 250

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s.RecordRequest()
				s.RecordGameStart()
				s.RecordGameEnd()
				s.RecordError()
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	want := int64(workers * perWorker)
	if snap.TotalRequests != want {
		t.Errorf("Expected %d requests, got %d", want, snap.TotalRequests)
	}
	if snap.GameStarts != want {
		t.Errorf("Expected %d game starts, got %d", want, snap.GameStarts)
	}
	if snap.Errors != want {
		t.Errorf("Expected %d errors, got %d", want, snap.Errors)
	}
	if snap.PlayersOnline < 0 {
		t.Errorf("Players online went negative: %d", snap.PlayersOnline)
	}
}
