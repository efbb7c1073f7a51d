package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/repository"
)

const defaultCycleInterval = 60 * time.Minute

// CycleReport describes one periodic sync cycle.
type CycleReport struct {
	Ran  bool
	Push PushReport
}

// SyncManager drives pull and push sync on a fixed cadence.
type SyncManager struct {
	syncer   SyncUsecase
	conn     repository.Connectivity
	gate     *Gate
	interval time.Duration
	logger   logrus.FieldLogger
	group    singleflight.Group
}

// NewSyncManager builds a manager running syncer every interval.
func NewSyncManager(syncer SyncUsecase, flags repository.FlagRepository, conn repository.Connectivity, interval time.Duration, logger *logrus.Logger) *SyncManager {
	if interval <= 0 {
		interval = defaultCycleInterval
	}
	return &SyncManager{
		syncer:   syncer,
		conn:     conn,
		gate:     NewGate(flags),
		interval: interval,
		logger:   logger,
	}
}

// Cycle runs a pull sync followed by a push sync when the cycle interval elapsed.
// Concurrent callers share the result of the cycle already in flight.
func (m *SyncManager) Cycle(ctx context.Context, force bool) (CycleReport, error) {
	key := "cycle"
	if force {
		key = "cycle:force"
	}
	v, err, shared := m.group.Do(key, func() (any, error) {
		return m.cycle(ctx, force)
	})
	if shared {
		m.logger.Debug("sync cycle joined in-flight run")
	}
	report, _ := v.(CycleReport)
	return report, err
}

func (m *SyncManager) cycle(ctx context.Context, force bool) (CycleReport, error) {
	var report CycleReport
	if !m.syncer.HasToken() {
		m.logger.Debug("sync cycle skipped: no token")
		return report, nil
	}
	if m.conn != nil && !m.conn.Online(ctx) {
		m.logger.Info("sync cycle skipped: offline")
		return report, nil
	}

	ran, err := m.gate.RunIfStale(ctx, KeyLastSyncCycle, m.interval, force, func(ctx context.Context, _ *time.Time) error {
		if err := m.syncer.Sync(ctx, force); err != nil {
			return err
		}
		push, err := m.syncer.SyncEncounterItems(ctx)
		report.Push = push
		return err
	})
	report.Ran = ran
	return report, err
}

// Run cycles immediately and then on every tick until ctx is done or the remote
// rejects the credentials. An auth failure is returned so the caller can log out.
func (m *SyncManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.Cycle(ctx, false); err != nil {
			if errors.Is(err, entity.ErrUnauthorized) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			m.logger.WithError(err).Warn("sync cycle failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
