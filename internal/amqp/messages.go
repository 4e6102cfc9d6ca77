package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"safespend/internal/core"
)

// Event types published on the exchange.
const (
	EventSnapshotSaved  = "snapshot.saved"
	EventSnapshotsReset = "snapshots.reset"
)

// SnapshotEvent announces a store change. Amounts are decimal strings so the
// payload never goes through a float.
type SnapshotEvent struct {
	Type          string    `json:"type"`
	Month         string    `json:"month,omitempty"`
	Income        string    `json:"income,omitempty"`
	Expenses      string    `json:"expenses,omitempty"`
	Savings       string    `json:"savings,omitempty"`
	DebtRepayment string    `json:"debt_repayment,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewSavedEvent creates a snapshot.saved event for s.
func NewSavedEvent(s core.Snapshot, at time.Time) *SnapshotEvent {
	return &SnapshotEvent{
		Type:          EventSnapshotSaved,
		Month:         s.Month.String(),
		Income:        s.Income.String(),
		Expenses:      s.Expenses.String(),
		Savings:       s.Savings.String(),
		DebtRepayment: s.DebtRepayment.String(),
		Timestamp:     at.UTC(),
	}
}

// NewResetEvent creates a snapshots.reset event.
func NewResetEvent(at time.Time) *SnapshotEvent {
	return &SnapshotEvent{Type: EventSnapshotsReset, Timestamp: at.UTC()}
}

// ToJSON converts the event to JSON bytes
func (e *SnapshotEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Snapshot decodes the snapshot carried by a snapshot.saved event.
func (e *SnapshotEvent) Snapshot() (core.Snapshot, error) {
	if e.Type != EventSnapshotSaved {
		return core.Snapshot{}, fmt.Errorf("event %q carries no snapshot", e.Type)
	}
	month, err := core.ParseMonth(e.Month)
	if err != nil {
		return core.Snapshot{}, err
	}
	var values [4]decimal.Decimal
	for i, raw := range []string{e.Income, e.Expenses, e.Savings, e.DebtRepayment} {
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("amount %q: %w", raw, core.ErrInvalidAmount)
		}
		values[i] = d
	}
	return core.Snapshot{
		Month: month,
		Amounts: core.Amounts{
			Income:        values[0],
			Expenses:      values[1],
			Savings:       values[2],
			DebtRepayment: values[3],
		},
	}, nil
}

// SnapshotEventFromJSON parses an event and rejects unknown types.
func SnapshotEventFromJSON(data []byte) (*SnapshotEvent, error) {
	var e SnapshotEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventSnapshotSaved, EventSnapshotsReset:
		return &e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}
