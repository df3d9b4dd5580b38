package models

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	MethodCard = "card"
	MethodQR   = "qr"
	MethodUPI  = "upi"
)

type Transaction struct {
	ID            string    `json:"id"`
	FromUserID    int64     `json:"from_user_id"`
	FromUserName  string    `json:"from_user_name"`
	CircleID      string    `json:"circle_id"`
	Amount        float64   `json:"amount"`
	Description   string    `json:"description"`
	Method        string    `json:"method"`
	TargetAddress string    `json:"upi_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
