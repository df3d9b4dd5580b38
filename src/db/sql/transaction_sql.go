package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"circlepay-server/src/models"
	"circlepay-server/src/payments"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionChannel is the pg_notify channel carrying the user id of every
// transaction write. The feed listener in src/db subscribes to it.
const TransactionChannel = "circlepay_transactions"

func CreateTransaction(ctx context.Context, pool *pgxpool.Pool, tx *models.Transaction) (*models.Transaction, error) {
	if tx.FromUserID == 0 || tx.FromUserName == "" || tx.CircleID == "" {
		return nil, errors.New("missing requester fields")
	}
	if tx.Amount <= 0 {
		return nil, errors.New("missing or invalid amount")
	}
	if tx.Status != models.StatusPending && tx.Status != models.StatusCompleted {
		return nil, fmt.Errorf("invalid initial status %q", tx.Status)
	}

	query := `
		INSERT INTO transactions (from_user_id, from_user_name, circle_id, amount, description, method, upi_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	created := *tx
	err := pool.QueryRow(ctx, query,
		tx.FromUserID, tx.FromUserName, tx.CircleID, tx.Amount,
		tx.Description, tx.Method, tx.TargetAddress, tx.Status).
		Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, err
	}

	notifyTransactionChange(ctx, pool, created.FromUserID)
	return &created, nil
}

func GetTransactionsForUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Transaction, error) {
	query := `
		SELECT id, from_user_id, from_user_name, circle_id, amount, description, method, upi_id, status, created_at
		FROM transactions WHERE from_user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.FromUserID, &t.FromUserName, &t.CircleID, &t.Amount,
			&t.Description, &t.Method, &t.TargetAddress, &t.Status, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func GetPendingTransactions(ctx context.Context, pool *pgxpool.Pool, circleID string) ([]models.Transaction, error) {
	query := `
		SELECT id, from_user_id, from_user_name, circle_id, amount, description, method, upi_id, status, created_at
		FROM transactions WHERE circle_id = $1 AND status = 'pending'
		ORDER BY created_at DESC, id DESC
	`
	rows, err := pool.Query(ctx, query, circleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.FromUserID, &t.FromUserName, &t.CircleID, &t.Amount,
			&t.Description, &t.Method, &t.TargetAddress, &t.Status, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// UpdateTransactionStatus flips a pending transaction to completed or failed.
// The WHERE status = 'pending' clause is the atomic gate that makes
// approve/reject at-most-once under concurrent admins.
func UpdateTransactionStatus(ctx context.Context, pool *pgxpool.Pool, transactionID, status string) (*models.Transaction, error) {
	query := `
		UPDATE transactions SET status = $1
		WHERE id = $2 AND status = 'pending'
		RETURNING id, from_user_id, from_user_name, circle_id, amount, description, method, upi_id, status, created_at
	`
	var t models.Transaction
	err := pool.QueryRow(ctx, query, status, transactionID).
		Scan(&t.ID, &t.FromUserID, &t.FromUserName, &t.CircleID, &t.Amount,
			&t.Description, &t.Method, &t.TargetAddress, &t.Status, &t.CreatedAt)
	if err == nil {
		notifyTransactionChange(ctx, pool, t.FromUserID)
		return &t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No pending row matched: missing id or already settled.
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, transactionID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, payments.ErrInvalidTransition
	}
	return nil, payments.ErrTransactionNotFound
}

func notifyTransactionChange(ctx context.Context, pool *pgxpool.Pool, userID int64) {
	_, err := pool.Exec(ctx, `SELECT pg_notify($1, $2)`,
		TransactionChannel, strconv.FormatInt(userID, 10))
	if err != nil {
		// Subscribers fall back to the reconnect re-sync; the write itself stands.
		log.Printf("ERROR: pg_notify failed for user %d: %v", userID, err)
	}
}
