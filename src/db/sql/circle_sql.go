package db

import (
	"context"
	"errors"

	"circlepay-server/src/models"
	"circlepay-server/src/payments"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateCircle(ctx context.Context, pool *pgxpool.Pool, circle *models.Circle) (*models.Circle, error) {
	query := `
		INSERT INTO circles (name, daily_limit, monthly_limit)
		VALUES ($1, $2, $3)
		RETURNING id, name, daily_limit, monthly_limit, current_daily_spent, current_monthly_spent, created_at, updated_at
	`
	var c models.Circle
	err := pool.QueryRow(ctx, query, circle.Name, circle.DailyLimit, circle.MonthlyLimit).
		Scan(&c.ID, &c.Name, &c.DailyLimit, &c.MonthlyLimit,
			&c.CurrentDailySpent, &c.CurrentMonthlySpent, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func GetCircleByID(ctx context.Context, pool *pgxpool.Pool, circleID string) (*models.Circle, error) {
	query := `
		SELECT id, name, daily_limit, monthly_limit, current_daily_spent, current_monthly_spent, created_at, updated_at
		FROM circles WHERE id = $1
	`
	var c models.Circle
	err := pool.QueryRow(ctx, query, circleID).
		Scan(&c.ID, &c.Name, &c.DailyLimit, &c.MonthlyLimit,
			&c.CurrentDailySpent, &c.CurrentMonthlySpent, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payments.ErrCircleNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ApplyCircleSpend increments both spend counters in a single server-side
// update, so concurrent spends against one circle never lose increments.
func ApplyCircleSpend(ctx context.Context, pool *pgxpool.Pool, circleID string, dailyDelta, monthlyDelta float64) error {
	query := `
		UPDATE circles
		SET current_daily_spent = current_daily_spent + $1,
		    current_monthly_spent = current_monthly_spent + $2,
		    updated_at = NOW()
		WHERE id = $3
	`
	cmd, err := pool.Exec(ctx, query, dailyDelta, monthlyDelta, circleID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return payments.ErrCircleNotFound
	}
	return nil
}

func ResetDailySpend(ctx context.Context, pool *pgxpool.Pool, circleID string) error {
	query := `UPDATE circles SET current_daily_spent = 0, updated_at = NOW() WHERE id = $1`
	cmd, err := pool.Exec(ctx, query, circleID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return payments.ErrCircleNotFound
	}
	return nil
}

func ResetMonthlySpend(ctx context.Context, pool *pgxpool.Pool, circleID string) error {
	query := `UPDATE circles SET current_monthly_spent = 0, updated_at = NOW() WHERE id = $1`
	cmd, err := pool.Exec(ctx, query, circleID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return payments.ErrCircleNotFound
	}
	return nil
}
