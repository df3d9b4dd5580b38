package payments

import (
	"context"
	"fmt"
)

// Ledger owns every mutation of a circle's spend counters. No other component
// writes them. ApplySpend must be invoked at most once per completed
// transaction; both the submission pipeline and the approval path rely on the
// pending -> completed status transition as the dedup gate.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// ApplySpend adds amount to both the daily and monthly counters.
// Failures wrap ErrLedgerUpdate and are retryable; the caller must not roll
// back the transaction that triggered the spend.
func (l *Ledger) ApplySpend(ctx context.Context, circleID string, amount float64) error {
	if err := l.store.UpdateCircleSpend(ctx, circleID, amount, amount); err != nil {
		return fmt.Errorf("%w: circle %s: %v", ErrLedgerUpdate, circleID, err)
	}
	return nil
}

// ResetDaily zeroes the daily counter. An external scheduler calls this at
// midnight; the ledger only exposes the hook.
func (l *Ledger) ResetDaily(ctx context.Context, circleID string) error {
	return l.store.ResetCircleSpend(ctx, circleID, true, false)
}

// ResetMonthly zeroes the monthly counter at the month boundary.
func (l *Ledger) ResetMonthly(ctx context.Context, circleID string) error {
	return l.store.ResetCircleSpend(ctx, circleID, false, true)
}

type Remaining struct {
	Daily   float64 `json:"daily_remaining"`
	Monthly float64 `json:"monthly_remaining"`
}

// Remaining computes limit minus spent for both windows. Limits are advisory:
// values go negative once spend exceeds them.
func (l *Ledger) Remaining(ctx context.Context, circleID string) (Remaining, error) {
	circle, err := l.store.Circle(ctx, circleID)
	if err != nil {
		return Remaining{}, err
	}
	return Remaining{
		Daily:   circle.DailyLimit - circle.CurrentDailySpent,
		Monthly: circle.MonthlyLimit - circle.CurrentMonthlySpent,
	}, nil
}
