package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"safespend/internal/core"
)

type recordedCall struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeSheets struct {
	mu     sync.Mutex
	calls  []recordedCall
	header [][]any
}

func (f *fakeSheets) handler(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Body: body})
	header := f.header
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "A1:E1", "values": header})
	case strings.HasSuffix(r.URL.Path, ":append"):
		_, _ = io.WriteString(w, `{"spreadsheetId":"sid","updates":{"updatedRows":1}}`)
	case strings.HasSuffix(r.URL.Path, ":clear"):
		_, _ = io.WriteString(w, `{"spreadsheetId":"sid","clearedRange":"SafeSpend!A2:E"}`)
	case r.Method == http.MethodPut:
		_, _ = io.WriteString(w, `{"spreadsheetId":"sid","updatedRows":1}`)
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Config{
		SpreadsheetID: "sid",
		Endpoint:      srv.URL + "/",
		HTTPClient:    srv.Client(),
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func march() core.Snapshot {
	return core.Snapshot{
		Month: core.Month{Year: 2024, Month: time.March},
		Amounts: core.Amounts{
			Income:        decimal.NewFromInt(5000),
			Expenses:      decimal.NewFromInt(3000),
			Savings:       decimal.NewFromInt(10000),
			DebtRepayment: decimal.NewFromInt(2000),
		},
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sid"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendSnapshotWritesHeaderOnce(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if err := c.AppendSnapshot(ctx, march()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := c.AppendSnapshot(ctx, march()); err != nil {
		t.Fatalf("second append: %v", err)
	}

	var gets, puts, appends int
	var row []any
	for _, call := range fake.calls {
		switch {
		case call.Method == http.MethodGet:
			gets++
		case call.Method == http.MethodPut:
			puts++
		case strings.HasSuffix(call.Path, ":append"):
			appends++
			values, _ := call.Body["values"].([]any)
			if len(values) == 1 {
				row, _ = values[0].([]any)
			}
			if !strings.Contains(call.Path, "SafeSpend!A:E") {
				t.Errorf("unexpected append range in %q", call.Path)
			}
		}
	}
	if gets != 1 || puts != 1 || appends != 2 {
		t.Fatalf("expected 1 get, 1 header write, 2 appends; got %d/%d/%d", gets, puts, appends)
	}
	want := []string{"2024-03-01", "5000", "3000", "10000", "2000"}
	if len(row) != len(want) {
		t.Fatalf("unexpected row %v", row)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("cell %d = %v, want %s", i, row[i], want[i])
		}
	}
}

func TestAppendSnapshotKeepsExistingHeader(t *testing.T) {
	fake := &fakeSheets{header: [][]any{{"Month", "Income", "Expenses", "Savings", "Debt Repayment"}}}
	c := newTestClient(t, fake)
	if err := c.AppendSnapshot(context.Background(), march()); err != nil {
		t.Fatalf("append: %v", err)
	}
	for _, call := range fake.calls {
		if call.Method == http.MethodPut {
			t.Fatalf("header should not be rewritten")
		}
	}
}

func TestAppendSnapshotRejectsInvalid(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	bad := march()
	bad.Savings = decimal.NewFromInt(-1)
	if err := c.AppendSnapshot(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
	if len(fake.calls) != 0 {
		t.Fatalf("no API call expected, got %d", len(fake.calls))
	}
}

func TestClearSnapshotsKeepsHeaderRow(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	if err := c.ClearSnapshots(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(fake.calls) != 1 || !strings.HasSuffix(fake.calls[0].Path, "SafeSpend!A2:E:clear") {
		t.Fatalf("unexpected calls %+v", fake.calls)
	}
}

func TestA1Range(t *testing.T) {
	tests := []struct {
		sheet, cells, want string
	}{
		{"SafeSpend", "A:E", "SafeSpend!A:E"},
		{"My Budget", "A1:E1", "'My Budget'!A1:E1"},
		{"Bob's", "A:E", "'Bob''s'!A:E"},
	}
	for _, tt := range tests {
		if got := a1Range(tt.sheet, tt.cells); got != tt.want {
			t.Errorf("a1Range(%q, %q) = %q, want %q", tt.sheet, tt.cells, got, tt.want)
		}
	}
}

func TestIsHeader(t *testing.T) {
	if !isHeader([]any{"month", " Income", "Expenses", "Savings", "Debt Repayment"}) {
		t.Error("expected header match")
	}
	if isHeader([]any{"2024-03-01", "1", "1", "1", "1"}) {
		t.Error("data row treated as header")
	}
	if isHeader([]any{"Month"}) {
		t.Error("short row treated as header")
	}
}
