package models

import "time"

type Circle struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	DailyLimit          float64   `json:"daily_limit"`
	MonthlyLimit        float64   `json:"monthly_limit"`
	CurrentDailySpent   float64   `json:"current_daily_spent"`
	CurrentMonthlySpent float64   `json:"current_monthly_spent"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
