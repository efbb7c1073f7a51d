package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// countingSyncer wraps a SyncUsecase and counts full sync runs.
type countingSyncer struct {
	SyncUsecase
	syncs   atomic.Int32
	pushes  atomic.Int32
	block   chan struct{}
	syncErr error
}

func (c *countingSyncer) Sync(ctx context.Context, force bool) error {
	c.syncs.Add(1)
	if c.block != nil {
		<-c.block
	}
	if c.syncErr != nil {
		return c.syncErr
	}
	return c.SyncUsecase.Sync(ctx, force)
}

func (c *countingSyncer) SyncEncounterItems(ctx context.Context) (PushReport, error) {
	c.pushes.Add(1)
	return c.SyncUsecase.SyncEncounterItems(ctx)
}

func newManagerFixture() (*syncFixture, *countingSyncer, *SyncManager) {
	f := newSyncFixture()
	syncer := &countingSyncer{SyncUsecase: f.uc}
	m := NewSyncManager(syncer, f.flags, fakeConn{}, time.Hour, quietLogger())
	m.gate.clock = f.clock.Now
	return f, syncer, m
}

func TestSyncManager_CycleGatedHourly(t *testing.T) {
	ctx := context.Background()
	f, syncer, m := newManagerFixture()

	report, err := m.Cycle(ctx, false)
	if err != nil || !report.Ran {
		t.Fatalf("first cycle: ran=%v err=%v", report.Ran, err)
	}

	f.clock.Advance(59 * time.Minute)
	if report, _ := m.Cycle(ctx, false); report.Ran {
		t.Fatalf("cycle must be gated before the interval")
	}

	f.clock.Advance(2 * time.Minute)
	if report, _ := m.Cycle(ctx, false); !report.Ran {
		t.Fatalf("cycle must run after 61 minutes")
	}
	if got := syncer.syncs.Load(); got != 2 {
		t.Fatalf("expected 2 syncs, got %d", got)
	}
	if got := syncer.pushes.Load(); got != 2 {
		t.Fatalf("expected push after each sync, got %d", got)
	}

	if report, _ := m.Cycle(ctx, true); !report.Ran {
		t.Fatalf("forced cycle must run")
	}
}

func TestSyncManager_SkipsOfflineAndTokenless(t *testing.T) {
	ctx := context.Background()
	f, syncer, m := newManagerFixture()

	m.conn = fakeConn{offline: true}
	if report, err := m.Cycle(ctx, true); err != nil || report.Ran {
		t.Fatalf("offline cycle should skip, got %+v %v", report, err)
	}

	m.conn = fakeConn{}
	f.uc.SetToken("")
	if report, err := m.Cycle(ctx, true); err != nil || report.Ran {
		t.Fatalf("tokenless cycle should skip, got %+v %v", report, err)
	}
	if syncer.syncs.Load() != 0 {
		t.Fatalf("no sync expected")
	}
	if _, ok := f.flags.timeOf(KeyLastSyncCycle); ok {
		t.Fatalf("skipped cycles must not record a timestamp")
	}
}

func TestSyncManager_OverlappingCyclesCoalesce(t *testing.T) {
	ctx := context.Background()
	_, syncer, m := newManagerFixture()
	syncer.block = make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Cycle(ctx, true)
		}()
	}
	deadline := time.After(2 * time.Second)
	for syncer.syncs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("sync never started")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	time.Sleep(20 * time.Millisecond)
	close(syncer.block)
	wg.Wait()

	if got := syncer.syncs.Load(); got != 1 {
		t.Fatalf("expected overlapping callers to share one sync, got %d", got)
	}
}

func TestSyncManager_RunStopsOnUnauthorized(t *testing.T) {
	_, syncer, m := newManagerFixture()
	syncer.syncErr = entity.ErrUnauthorized

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, entity.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop on auth failure")
	}
}

func TestSyncManager_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, _, m := newManagerFixture()

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop on cancel")
	}
}
