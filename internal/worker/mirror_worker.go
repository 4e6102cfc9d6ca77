package worker

import (
	"context"
	"fmt"
	"log/slog"

	"safespend/internal/amqp"
	"safespend/internal/core"
	"safespend/internal/ports"
)

// MirrorWorker applies snapshot events to a one-way mirror.
type MirrorWorker struct {
	mirror ports.SnapshotMirror
	logger *slog.Logger
}

func NewMirrorWorker(mirror ports.SnapshotMirror, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{mirror: mirror, logger: logger}
}

// HandleEvent processes a single event from AMQP. A returned error makes the
// consumer requeue the message, so payloads that can never succeed are
// logged and dropped instead.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.SnapshotEvent) error {
	switch event.Type {
	case amqp.EventSnapshotSaved:
		snap, err := event.Snapshot()
		if err != nil {
			w.logger.ErrorContext(ctx, "Dropping malformed snapshot event", "month", event.Month, "error", err)
			return nil
		}
		if err := w.mirror.AppendSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("mirror snapshot %s: %w", snap.Month, err)
		}
		w.logger.InfoContext(ctx, "Snapshot mirrored", "month", snap.Month.String())

	case amqp.EventSnapshotsReset:
		if err := w.mirror.ClearSnapshots(ctx); err != nil {
			return fmt.Errorf("clear mirror: %w", err)
		}
		w.logger.InfoContext(ctx, "Mirror cleared")

	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event", "event_type", event.Type)
	}
	return nil
}

// Resync replaces the mirror content with snaps in month order. This is the
// recovery path for events lost while the worker was down.
func (w *MirrorWorker) Resync(ctx context.Context, snaps []core.Snapshot) error {
	if err := w.mirror.ClearSnapshots(ctx); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}
	for _, s := range core.SortedByMonth(snaps) {
		if err := w.mirror.AppendSnapshot(ctx, s); err != nil {
			return fmt.Errorf("mirror snapshot %s: %w", s.Month, err)
		}
	}
	w.logger.InfoContext(ctx, "Mirror resynced", "count", len(snaps))
	return nil
}
