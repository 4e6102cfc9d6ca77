package ports

import (
	"context"
	"time"

	"safespend/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordStore persists the table of monthly snapshots.
	RecordStore interface {
		// Load returns the persisted snapshots. A missing backing file is an
		// empty store. On an unreadable file it returns an empty slice together
		// with a *core.StoreReadError so the caller can flag the degraded read.
		Load(ctx context.Context) ([]core.Snapshot, error)

		// Append adds s unless its month is already present. accepted is false
		// and the returned store equals the input when the month exists.
		Append(ctx context.Context, store []core.Snapshot, s core.Snapshot) (next []core.Snapshot, accepted bool, err error)

		// Reset removes the backing storage and returns an empty store.
		Reset(ctx context.Context) ([]core.Snapshot, error)
	}

	// Advisor produces a raw financial plan from the user's figures.
	Advisor interface {
		// GenerateAdvice fails with *core.ServiceError when the external call fails.
		GenerateAdvice(ctx context.Context, req core.AdviceRequest, asOf time.Time) (string, error)
	}

	// SnapshotNotifier announces store changes to interested consumers.
	SnapshotNotifier interface {
		NotifySaved(ctx context.Context, s core.Snapshot) error
		NotifyReset(ctx context.Context) error
	}

	// SnapshotMirror keeps a one-way copy of the store somewhere else.
	SnapshotMirror interface {
		AppendSnapshot(ctx context.Context, s core.Snapshot) error
		ClearSnapshots(ctx context.Context) error
	}
)
