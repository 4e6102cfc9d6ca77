package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"safespend/internal/advisor"
	"safespend/internal/core"
	"safespend/internal/ports"
)

// ErrAdvisorNotConfigured is wrapped in a ServiceError when advice is
// requested but no advisor was wired (for example, no API key).
var ErrAdvisorNotConfigured = errors.New("advisor not configured")

// DefaultAdviceTimeout bounds a single advice request.
const DefaultAdviceTimeout = 60 * time.Second

// Options configures optional collaborators of a SessionController.
type Options struct {
	Notifier      ports.SnapshotNotifier
	Logger        *slog.Logger
	Now           func() time.Time
	AdviceTimeout time.Duration
}

// SessionController orchestrates the record store, the advisor and the
// text cleaner for one user session.
type SessionController struct {
	store    ports.RecordStore
	advisor  ports.Advisor
	notifier ports.SnapshotNotifier
	logger   *slog.Logger
	now      func() time.Time
	timeout  time.Duration

	mu        sync.Mutex
	snapshots []core.Snapshot
	loadErr   error
}

// NewSessionController loads the store once. A degraded read is logged and
// kept available through LoadError; the session starts empty in that case.
func NewSessionController(ctx context.Context, store ports.RecordStore, adv ports.Advisor, opts Options) *SessionController {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AdviceTimeout <= 0 {
		opts.AdviceTimeout = DefaultAdviceTimeout
	}

	c := &SessionController{
		store:    store,
		advisor:  adv,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		now:      opts.Now,
		timeout:  opts.AdviceTimeout,
	}

	snaps, err := store.Load(ctx)
	if err != nil {
		var readErr *core.StoreReadError
		if errors.As(err, &readErr) {
			c.logger.WarnContext(ctx, "Data file unreadable, starting with an empty store",
				"path", readErr.Path, "quarantine", readErr.Quarantine, "error", readErr.Err)
		} else {
			c.logger.ErrorContext(ctx, "Failed to load snapshots", "error", err)
		}
		c.loadErr = err
	}
	if snaps == nil {
		snaps = []core.Snapshot{}
	}
	c.snapshots = snaps
	return c
}

// LoadError reports the error from the initial load, if any.
func (c *SessionController) LoadError() error {
	return c.loadErr
}

// Now returns the controller's clock reading.
func (c *SessionController) Now() time.Time {
	return c.now()
}

// SaveSnapshot stores amounts for month unless that month already has an
// entry. accepted is false for a duplicate; the store is left untouched.
func (c *SessionController) SaveSnapshot(ctx context.Context, month core.Month, amounts core.Amounts) (bool, error) {
	snap := core.Snapshot{Month: month, Amounts: amounts}
	if err := snap.Validate(); err != nil {
		return false, err
	}

	c.mu.Lock()
	next, accepted, err := c.store.Append(ctx, c.snapshots, snap)
	if err == nil {
		c.snapshots = next
	}
	c.mu.Unlock()

	if err != nil {
		return false, fmt.Errorf("save snapshot: %w", err)
	}
	if !accepted {
		c.logger.InfoContext(ctx, "Snapshot rejected, month already recorded", "month", month.String())
		return false, nil
	}

	if c.notifier != nil {
		if err := c.notifier.NotifySaved(ctx, snap); err != nil {
			c.logger.ErrorContext(ctx, "Failed to publish snapshot event", "month", month.String(), "error", err)
		}
	}
	return true, nil
}

// SaveCurrentMonth saves amounts under the month of the controller's clock.
func (c *SessionController) SaveCurrentMonth(ctx context.Context, amounts core.Amounts) (core.Month, bool, error) {
	month := core.MonthOf(c.now())
	accepted, err := c.SaveSnapshot(ctx, month, amounts)
	return month, accepted, err
}

// RequestAdvice asks the advisor for a plan and returns the cleaned text.
// A blank goal fails with core.ErrEmptyGoal before any external call.
func (c *SessionController) RequestAdvice(ctx context.Context, req core.AdviceRequest) (string, error) {
	if !req.HasGoal() {
		return "", core.ErrEmptyGoal
	}
	if err := req.Amounts.Validate(); err != nil {
		return "", err
	}
	if c.advisor == nil {
		return "", &core.ServiceError{Op: "generate advice", Err: ErrAdvisorNotConfigured}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.advisor.GenerateAdvice(ctx, req, c.now())
	if err != nil {
		var svcErr *core.ServiceError
		if !errors.As(err, &svcErr) {
			err = &core.ServiceError{Op: "generate advice", Err: err}
		}
		c.logger.ErrorContext(ctx, "Advice request failed",
			"duration_ms", time.Since(start).Milliseconds(), "error", err)
		return "", err
	}

	text := advisor.Clean(raw)
	c.logger.InfoContext(ctx, "Advice generated",
		"duration_ms", time.Since(start).Milliseconds(), "chars", len(text))
	return text, nil
}

// ResetAll deletes every stored snapshot.
func (c *SessionController) ResetAll(ctx context.Context) error {
	c.mu.Lock()
	empty, err := c.store.Reset(ctx)
	if err == nil {
		c.snapshots = empty
		c.loadErr = nil
	}
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("reset store: %w", err)
	}

	if c.notifier != nil {
		if err := c.notifier.NotifyReset(ctx); err != nil {
			c.logger.ErrorContext(ctx, "Failed to publish reset event", "error", err)
		}
	}
	return nil
}

// History returns a copy of the stored snapshots ordered by month.
func (c *SessionController) History() []core.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.SortedByMonth(c.snapshots)
}
