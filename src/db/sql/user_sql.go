package db

import (
	"context"
	"errors"
	"fmt"

	"circlepay-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateUser(req models.RegisterRequest, passwordHash string, pool *pgxpool.Pool) (*models.RegisterResponse, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role, circle_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, role, circle_id
	`
	var resp models.RegisterResponse
	err := pool.QueryRow(context.Background(), query,
		req.Name, req.Email, passwordHash, req.Role, req.CircleID).
		Scan(&resp.ID, &resp.Name, &resp.Email, &resp.Role, &resp.CircleID)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func GetUserByID(id int64, pool *pgxpool.Pool) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, name, email, password_hash, role, circle_id, created_at
		FROM users
		WHERE id = $1
	`
	err := pool.QueryRow(context.Background(), query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CircleID,
		&user.CreatedAt,
	)

	if err != nil {
		return nil, errors.New("user not found")
	}
	return &user, nil
}

func GetUserByEmail(email string, pool *pgxpool.Pool) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, name, email, password_hash, role, circle_id, created_at
		FROM users
		WHERE email = $1
	`
	err := pool.QueryRow(context.Background(), query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CircleID,
		&user.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("query error: %w", err)
	}
	return &user, nil
}
