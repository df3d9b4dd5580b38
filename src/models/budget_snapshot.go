package models

// BudgetSnapshot is derived from a Circle for display; it is never persisted.
type BudgetSnapshot struct {
	DailyPercentage   float64 `json:"daily_percentage"`
	MonthlyPercentage float64 `json:"monthly_percentage"`
	DailyRemaining    float64 `json:"daily_remaining"`
	MonthlyRemaining  float64 `json:"monthly_remaining"`
}
