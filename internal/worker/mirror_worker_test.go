package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"safespend/internal/amqp"
	"safespend/internal/core"
)

type fakeMirror struct {
	rows    []core.Snapshot
	clears  int
	failErr error
}

func (f *fakeMirror) AppendSnapshot(ctx context.Context, s core.Snapshot) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.rows = append(f.rows, s)
	return nil
}

func (f *fakeMirror) ClearSnapshots(ctx context.Context) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.clears++
	f.rows = nil
	return nil
}

func snap(year int, month time.Month, income int64) core.Snapshot {
	return core.Snapshot{
		Month:   core.Month{Year: year, Month: month},
		Amounts: core.Amounts{Income: decimal.NewFromInt(income)},
	}
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()
	m := &fakeMirror{}
	w := NewMirrorWorker(m, nil)

	if err := w.HandleEvent(ctx, amqp.NewSavedEvent(snap(2024, time.March, 5000), time.Now())); err != nil {
		t.Fatalf("saved event: %v", err)
	}
	if len(m.rows) != 1 || !m.rows[0].Income.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected mirror rows %+v", m.rows)
	}

	if err := w.HandleEvent(ctx, amqp.NewResetEvent(time.Now())); err != nil {
		t.Fatalf("reset event: %v", err)
	}
	if m.clears != 1 || len(m.rows) != 0 {
		t.Fatalf("mirror not cleared: clears=%d rows=%d", m.clears, len(m.rows))
	}
}

func TestHandleEventMalformedIsDropped(t *testing.T) {
	m := &fakeMirror{}
	w := NewMirrorWorker(m, nil)
	event := &amqp.SnapshotEvent{Type: amqp.EventSnapshotSaved, Month: "someday"}
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("malformed event should be dropped, got %v", err)
	}
	if len(m.rows) != 0 {
		t.Fatalf("malformed event reached the mirror")
	}
}

func TestHandleEventMirrorFailureRequeues(t *testing.T) {
	boom := errors.New("quota exceeded")
	w := NewMirrorWorker(&fakeMirror{failErr: boom}, nil)
	err := w.HandleEvent(context.Background(), amqp.NewSavedEvent(snap(2024, time.March, 1), time.Now()))
	if !errors.Is(err, boom) {
		t.Fatalf("expected mirror error, got %v", err)
	}
}

func TestResyncOrdersByMonth(t *testing.T) {
	m := &fakeMirror{rows: []core.Snapshot{snap(2020, time.January, 1)}}
	w := NewMirrorWorker(m, nil)

	err := w.Resync(context.Background(), []core.Snapshot{
		snap(2024, time.May, 3),
		snap(2023, time.December, 1),
		snap(2024, time.January, 2),
	})
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if m.clears != 1 || len(m.rows) != 3 {
		t.Fatalf("unexpected mirror state: clears=%d rows=%d", m.clears, len(m.rows))
	}
	for i, want := range []int64{1, 2, 3} {
		if !m.rows[i].Income.Equal(decimal.NewFromInt(want)) {
			t.Fatalf("row %d out of order: %+v", i, m.rows[i])
		}
	}
}
