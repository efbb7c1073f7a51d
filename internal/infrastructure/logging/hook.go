package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/repository"
)

const (
	defaultRetain     = 500
	defaultBuffer     = 256
	defaultFlushBatch = 32
	defaultFlushEvery = 500 * time.Millisecond
	flushTimeout      = 5 * time.Second
)

// StoreHook copies log entries into the durable logs collection.
// Fire never blocks: entries are queued and written by a background goroutine,
// and dropped when the queue is full. Debug and trace entries are not persisted.
type StoreHook struct {
	sink       repository.LogRepository
	retain     int
	flushBatch int
	flushEvery time.Duration
	errOut     io.Writer
	clock      func() time.Time

	entries chan entity.LogEntry
	done    chan struct{}
	wg      sync.WaitGroup

	closeOnce sync.Once
	mu        sync.Mutex
	dropped   int
}

type HookOption func(*StoreHook)

// WithRetain caps how many entries the logs collection keeps.
func WithRetain(n int) HookOption {
	return func(h *StoreHook) {
		if n > 0 {
			h.retain = n
		}
	}
}

// WithFlushInterval changes how often queued entries are written.
func WithFlushInterval(d time.Duration) HookOption {
	return func(h *StoreHook) {
		if d > 0 {
			h.flushEvery = d
		}
	}
}

// WithErrorOutput redirects sink failures, which cannot go through the logger itself.
func WithErrorOutput(w io.Writer) HookOption {
	return func(h *StoreHook) {
		if w != nil {
			h.errOut = w
		}
	}
}

// NewStoreHook starts the background writer. Close flushes and stops it.
func NewStoreHook(sink repository.LogRepository, opts ...HookOption) *StoreHook {
	h := &StoreHook{
		sink:       sink,
		retain:     defaultRetain,
		flushBatch: defaultFlushBatch,
		flushEvery: defaultFlushEvery,
		errOut:     os.Stderr,
		clock:      time.Now,
		entries:    make(chan entity.LogEntry, defaultBuffer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *StoreHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

func (h *StoreHook) Fire(e *logrus.Entry) error {
	entry := entity.LogEntry{
		ID:        uuid.NewString(),
		Level:     e.Level.String(),
		Message:   e.Message,
		CreatedAt: e.Time,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = h.clock()
	}
	if len(e.Data) > 0 {
		entry.Fields = make(map[string]string, len(e.Data))
		for k, v := range e.Data {
			if err, ok := v.(error); ok {
				entry.Fields[k] = err.Error()
				continue
			}
			entry.Fields[k] = fmt.Sprint(v)
		}
	}

	select {
	case <-h.done:
		return nil
	default:
	}
	select {
	case h.entries <- entry:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
	return nil
}

// Dropped reports how many entries were discarded because the queue was full.
func (h *StoreHook) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Close flushes queued entries and stops the writer.
func (h *StoreHook) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		h.wg.Wait()
	})
	return nil
}

func (h *StoreHook) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.flushEvery)
	defer ticker.Stop()

	pending := make([]entity.LogEntry, 0, h.flushBatch)
	for {
		select {
		case entry := <-h.entries:
			pending = append(pending, entry)
			if len(pending) >= h.flushBatch {
				pending = h.flush(pending)
			}
		case <-ticker.C:
			pending = h.flush(pending)
		case <-h.done:
			for {
				select {
				case entry := <-h.entries:
					pending = append(pending, entry)
				default:
					h.flush(pending)
					return
				}
			}
		}
	}
}

func (h *StoreHook) flush(pending []entity.LogEntry) []entity.LogEntry {
	if len(pending) == 0 {
		return pending
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := h.sink.Append(ctx, pending); err != nil {
		fmt.Fprintf(h.errOut, "log sink: append %d entries: %v\n", len(pending), err)
		return pending[:0]
	}
	if _, err := h.sink.Trim(ctx, h.retain); err != nil {
		fmt.Fprintf(h.errOut, "log sink: trim to %d: %v\n", h.retain, err)
	}
	return pending[:0]
}
