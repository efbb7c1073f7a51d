package usecase

import (
	"context"
	"time"

	"github.com/eslsoft/kanaplay/internal/repository"
)

// Flag keys holding the last successful run of each gated operation.
const (
	KeyLastSyncUser           = "last_sync_user"
	KeyLastSyncSubjects       = "last_sync_subjects"
	KeyLastSyncAssignments    = "last_sync_assignments"
	KeyLastSyncMaterials      = "last_sync_materials"
	KeyLastMigrateSubjects    = "last_migrate_subjects"
	KeyLastMigrateAssignments = "last_migrate_assignments"
	KeyLastSyncCycle          = "last_sync_cycle"
)

// GateKeys lists every key written by the gate, in sync order.
var GateKeys = []string{
	KeyLastSyncUser,
	KeyLastMigrateSubjects,
	KeyLastSyncSubjects,
	KeyLastMigrateAssignments,
	KeyLastSyncAssignments,
	KeyLastSyncMaterials,
	KeyLastSyncCycle,
}

// Gate runs an operation only when its persisted last-run time is older than an interval.
type Gate struct {
	flags repository.FlagRepository
	clock func() time.Time
}

// NewGate builds a gate persisting timestamps in flags.
func NewGate(flags repository.FlagRepository) *Gate {
	return &Gate{flags: flags, clock: time.Now}
}

// RunIfStale invokes op unless key ran within interval; force skips the check.
// op receives the previous run time, nil when the key never ran or holds garbage.
// On success the time captured before op started is stored, so changes made
// remotely while op was running are picked up by the next delta.
func (g *Gate) RunIfStale(ctx context.Context, key string, interval time.Duration, force bool, op func(ctx context.Context, last *time.Time) error) (bool, error) {
	last, err := g.LastRun(ctx, key)
	if err != nil {
		return false, err
	}

	start := g.clock()
	if !force && last != nil && start.Before(last.Add(interval)) {
		return false, nil
	}

	if err := op(ctx, last); err != nil {
		return true, err
	}
	if err := g.flags.SetTime(ctx, key, start); err != nil {
		return true, err
	}
	return true, nil
}

// LastRun returns the stored run time of key. Unparseable values count as never run.
func (g *Gate) LastRun(ctx context.Context, key string) (*time.Time, error) {
	t, ok, err := g.flags.GetTime(ctx, key)
	if err != nil {
		if _, present, getErr := g.flags.Get(ctx, key); getErr == nil && present {
			return nil, nil
		}
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// Reset forgets the given keys, or every gate key when none are given.
func (g *Gate) Reset(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		keys = GateKeys
	}
	return g.flags.Delete(ctx, keys...)
}
