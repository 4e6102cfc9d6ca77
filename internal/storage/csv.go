package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"safespend/internal/core"
	"safespend/internal/ports"
)

// Header is the column layout of the data file.
var Header = []string{"Month", "Income", "Expenses", "Savings", "Debt Repayment"}

// CSVStore keeps the monthly snapshots in a single delimited file. Every
// successful append and every reset rewrites or removes the whole file.
// The file is owned by one process; concurrent writers are not supported.
type CSVStore struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.RecordStore = (*CSVStore)(nil)

// NewCSVStore returns a store backed by path. The file is created lazily.
func NewCSVStore(path string, logger *slog.Logger) *CSVStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVStore{path: path, logger: logger, now: time.Now}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Load implements ports.RecordStore. An unreadable file, including one with
// a negative amount or two rows for the same month, is moved aside so a
// later rewrite cannot destroy it.
func (s *CSVStore) Load(ctx context.Context) ([]core.Snapshot, error) {
	snaps, decoded, err := s.read(ctx)
	if err == nil || !decoded {
		return snaps, err
	}
	readErr := err.(*core.StoreReadError)
	if q, qerr := s.quarantine(); qerr != nil {
		s.logger.ErrorContext(ctx, "Failed to move unreadable data file aside", "path", s.path, "error", qerr)
	} else {
		readErr.Quarantine = q
	}
	return snaps, readErr
}

// LoadReadOnly reads the file like Load but never moves it. It is meant for
// processes that do not own the data file.
func (s *CSVStore) LoadReadOnly(ctx context.Context) ([]core.Snapshot, error) {
	snaps, _, err := s.read(ctx)
	return snaps, err
}

// read reports decoded=true when the file was opened but its content was
// rejected.
func (s *CSVStore) read(ctx context.Context) (snaps []core.Snapshot, decoded bool, err error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []core.Snapshot{}, false, nil
	}
	if err != nil {
		return []core.Snapshot{}, false, &core.StoreReadError{Path: s.path, Err: err}
	}
	snaps, err = decode(f)
	f.Close()
	if err != nil {
		return []core.Snapshot{}, true, &core.StoreReadError{Path: s.path, Err: err}
	}

	s.logger.DebugContext(ctx, "Loaded snapshots", "path", s.path, "count", len(snaps))
	return snaps, false, nil
}

// Save rewrites the whole file with snaps in the given order.
func (s *CSVStore) Save(ctx context.Context, snaps []core.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := encode(tmp, snaps); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshots: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}

	s.logger.DebugContext(ctx, "Saved snapshots", "path", s.path, "count", len(snaps))
	return nil
}

// Append implements ports.RecordStore.
func (s *CSVStore) Append(ctx context.Context, store []core.Snapshot, snap core.Snapshot) ([]core.Snapshot, bool, error) {
	if err := snap.Validate(); err != nil {
		return store, false, err
	}
	if core.ContainsMonth(store, snap.Month) {
		return store, false, nil
	}

	next := make([]core.Snapshot, 0, len(store)+1)
	next = append(next, store...)
	next = append(next, snap)
	if err := s.Save(ctx, next); err != nil {
		return store, false, err
	}

	s.logger.InfoContext(ctx, "Snapshot saved",
		"month", snap.Month.String(),
		"income", snap.Income.String(),
		"expenses", snap.Expenses.String(),
		"savings", snap.Savings.String(),
		"debt_repayment", snap.DebtRepayment.String())
	return next, true, nil
}

// Reset implements ports.RecordStore.
func (s *CSVStore) Reset(ctx context.Context) ([]core.Snapshot, error) {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove data file: %w", err)
	}
	s.logger.InfoContext(ctx, "Data file removed", "path", s.path)
	return []core.Snapshot{}, nil
}

func (s *CSVStore) quarantine() (string, error) {
	target := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
	if err := os.Rename(s.path, target); err != nil {
		return "", err
	}
	return target, nil
}

func encode(w io.Writer, snaps []core.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, snap := range snaps {
		rec := []string{
			snap.Month.String(),
			snap.Income.String(),
			snap.Expenses.String(),
			snap.Savings.String(),
			snap.DebtRepayment.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decode(r io.Reader) ([]core.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return []core.Snapshot{}, nil
	}
	if err := checkHeader(records[0]); err != nil {
		return nil, err
	}

	snaps := make([]core.Snapshot, 0, len(records)-1)
	seen := make(map[int]int, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		snap, err := decodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := snap.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if first, ok := seen[snap.Month.Key()]; ok {
			return nil, fmt.Errorf("line %d: %s also on line %d: %w", line, snap.Month, first, core.ErrDuplicateMonth)
		}
		seen[snap.Month.Key()] = line
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func checkHeader(rec []string) error {
	for i, want := range Header {
		if strings.TrimSpace(strings.TrimPrefix(rec[i], "\ufeff")) != want {
			return fmt.Errorf("unexpected header %q, want %q", strings.Join(rec, ","), strings.Join(Header, ","))
		}
	}
	return nil
}

func decodeRecord(rec []string) (core.Snapshot, error) {
	month, err := core.ParseMonth(rec[0])
	if err != nil {
		return core.Snapshot{}, err
	}
	values := make([]decimal.Decimal, 4)
	for i := range values {
		raw := strings.TrimSpace(rec[i+1])
		if raw == "" {
			values[i] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("%s: %w", Header[i+1], core.ErrInvalidAmount)
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
