package payments

import (
	"context"

	"circlepay-server/src/models"
)

// Store is the persistence contract the payment workflow depends on.
// The production implementation lives in src/db; tests use an in-memory fake.
type Store interface {
	// CreateTransaction assigns id and created_at and persists the record.
	// The write is atomic: it either fully succeeds or leaves nothing behind.
	CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)

	// TransactionsForUser returns the user's transactions in a stable order
	// (newest first, id as tiebreak).
	TransactionsForUser(ctx context.Context, userID int64) ([]models.Transaction, error)

	// UpdateTransactionStatus transitions a pending transaction to completed or
	// failed. Returns ErrInvalidTransition if the transaction is not pending.
	UpdateTransactionStatus(ctx context.Context, transactionID, status string) (*models.Transaction, error)

	// SubscribeTransactions registers a push callback for the user's transaction
	// list. The current snapshot is delivered immediately, then again on every
	// change. The returned function releases the subscription.
	SubscribeTransactions(userID int64, fn func([]models.Transaction)) (func(), error)

	// Circle reads a circle by id; returns ErrCircleNotFound when missing.
	Circle(ctx context.Context, circleID string) (*models.Circle, error)

	// UpdateCircleSpend atomically adds the deltas to the circle's spend
	// counters. Concurrent calls against the same circle must not lose updates.
	UpdateCircleSpend(ctx context.Context, circleID string, dailyDelta, monthlyDelta float64) error

	// ResetCircleSpend zeroes the selected spend counters.
	ResetCircleSpend(ctx context.Context, circleID string, daily, monthly bool) error
}
