package db

import (
	"context"
	"fmt"

	sqldb "circlepay-server/src/db/sql"
	"circlepay-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements payments.Store over Postgres, with ristretto in front of
// circle and transaction-list reads. Every write invalidates the entity's
// cache entry before notifying the feed, so feed re-reads never serve a stale
// line.
type Store struct {
	pool *pgxpool.Pool
	feed *Feed
}

func NewStore(pool *pgxpool.Pool, feed *Feed) *Store {
	return &Store{pool: pool, feed: feed}
}

func transactionsCacheKey(userID int64) string {
	return fmt.Sprintf("transactions:%d", userID)
}

func circleCacheKey(circleID string) string {
	return "circle:" + circleID
}

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	DelTransactionCache(transactionsCacheKey(tx.FromUserID))
	return sqldb.CreateTransaction(ctx, s.pool, tx)
}

func (s *Store) TransactionsForUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	cacheKey := transactionsCacheKey(userID)
	if cached, found := Cache.Get(cacheKey); found {
		if txs, ok := cached.([]models.Transaction); ok {
			return txs, nil
		}
	}
	txs, err := sqldb.GetTransactionsForUser(ctx, s.pool, userID)
	if err != nil {
		return nil, err
	}
	SetTransactionCache(cacheKey, txs)
	return txs, nil
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, transactionID, status string) (*models.Transaction, error) {
	tx, err := sqldb.UpdateTransactionStatus(ctx, s.pool, transactionID, status)
	if err != nil {
		return nil, err
	}
	DelTransactionCache(transactionsCacheKey(tx.FromUserID))
	return tx, nil
}

func (s *Store) SubscribeTransactions(userID int64, fn func([]models.Transaction)) (func(), error) {
	return s.feed.Subscribe(userID, fn)
}

func (s *Store) Circle(ctx context.Context, circleID string) (*models.Circle, error) {
	cacheKey := circleCacheKey(circleID)
	if cached, found := Cache.Get(cacheKey); found {
		if circle, ok := cached.(*models.Circle); ok {
			return circle, nil
		}
	}
	circle, err := sqldb.GetCircleByID(ctx, s.pool, circleID)
	if err != nil {
		return nil, err
	}
	SetCircleCache(cacheKey, circle)
	return circle, nil
}

func (s *Store) UpdateCircleSpend(ctx context.Context, circleID string, dailyDelta, monthlyDelta float64) error {
	DelCircleCache(circleCacheKey(circleID))
	return sqldb.ApplyCircleSpend(ctx, s.pool, circleID, dailyDelta, monthlyDelta)
}

func (s *Store) ResetCircleSpend(ctx context.Context, circleID string, daily, monthly bool) error {
	DelCircleCache(circleCacheKey(circleID))
	if daily {
		if err := sqldb.ResetDailySpend(ctx, s.pool, circleID); err != nil {
			return err
		}
	}
	if monthly {
		if err := sqldb.ResetMonthlySpend(ctx, s.pool, circleID); err != nil {
			return err
		}
	}
	return nil
}

// PendingTransactions lists the circle's payments awaiting approval; used by
// the admin dashboard, not part of the payment workflow itself.
func (s *Store) PendingTransactions(ctx context.Context, circleID string) ([]models.Transaction, error) {
	return sqldb.GetPendingTransactions(ctx, s.pool, circleID)
}

// CreateCircle sets up a new circle with zeroed spend counters.
func (s *Store) CreateCircle(ctx context.Context, circle *models.Circle) (*models.Circle, error) {
	return sqldb.CreateCircle(ctx, s.pool, circle)
}
