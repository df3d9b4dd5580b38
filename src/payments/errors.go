package payments

import "errors"

var (
	// ErrInvalidAmount rejects a payment before authorization; it is never persisted.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrPersistence wraps a failed storage write. The pipeline does not retry;
	// retries are a caller decision.
	ErrPersistence = errors.New("persistence failure")

	// ErrLedgerUpdate marks a failed spend-counter update. The already-persisted
	// transaction is never rolled back; re-applying the spend is the recovery.
	ErrLedgerUpdate = errors.New("ledger update failure")

	ErrCircleNotFound      = errors.New("circle not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidTransition rejects a status change on a transaction that is not
	// pending. Only pending -> completed and pending -> failed are allowed.
	ErrInvalidTransition = errors.New("transaction is not pending")
)
