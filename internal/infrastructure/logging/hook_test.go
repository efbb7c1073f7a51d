package logging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/config"
)

type fakeLogSink struct {
	mu      sync.RWMutex
	entries []entity.LogEntry
	fail    bool
}

func (f *fakeLogSink) Append(_ context.Context, entries []entity.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk full")
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeLogSink) Trim(_ context.Context, keep int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sort.SliceStable(f.entries, func(i, j int) bool { return f.entries[i].CreatedAt.Before(f.entries[j].CreatedAt) })
	excess := len(f.entries) - keep
	if excess <= 0 {
		return 0, nil
	}
	f.entries = append([]entity.LogEntry(nil), f.entries[excess:]...)
	return excess, nil
}

func (f *fakeLogSink) ListRecent(_ context.Context, limit int) ([]entity.LogEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := append([]entity.LogEntry(nil), f.entries...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeLogSink) snapshot() []entity.LogEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]entity.LogEntry(nil), f.entries...)
}

func TestStoreHook_PersistsAndEvicts(t *testing.T) {
	sink := &fakeLogSink{}
	hook := NewStoreHook(sink, WithRetain(3), WithFlushInterval(time.Hour))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	logger.AddHook(hook)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		logger.WithTime(base.Add(time.Duration(i) * time.Second)).
			WithField("step", i).
			WithError(errors.New("boom")).
			Warn("sync step failed")
	}
	logger.Debug("not persisted")

	if err := hook.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries := sink.snapshot()
	if len(entries) != 3 {
		t.Fatalf("expected 3 retained entries, got %d", len(entries))
	}
	if entries[0].Fields["step"] != "2" || entries[2].Fields["step"] != "4" {
		t.Fatalf("oldest entries should be evicted first: %+v", entries)
	}
	if entries[0].Fields[logrus.ErrorKey] != "boom" || entries[0].Level != "warning" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func TestStoreHook_SinkFailureDoesNotBlock(t *testing.T) {
	sink := &fakeLogSink{fail: true}
	var errOut bytes.Buffer
	hook := NewStoreHook(sink, WithErrorOutput(&errOut), WithFlushInterval(time.Hour))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(hook)
	logger.Info("hello")

	if err := hook.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if errOut.Len() == 0 {
		t.Fatalf("expected sink failure to be reported")
	}

	// entries fired after close are ignored
	logger.Info("after close")
	if len(sink.snapshot()) != 0 {
		t.Fatalf("nothing should have been stored")
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "warn"
	cfg.Log.Format = "text"
	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Fatalf("unexpected level %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter")
	}

	cfg.Log.Level = "loud"
	if _, err := NewLogger(cfg); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
