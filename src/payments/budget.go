package payments

import "circlepay-server/src/models"

// Summarize derives the display-ready budget snapshot from a circle.
// Total over all inputs: a nil circle yields zeros, a zero limit yields a zero
// percentage. Percentages cap at 100 for progress bars; remaining amounts are
// not clamped and go negative when spend exceeds the limit.
func Summarize(circle *models.Circle) models.BudgetSnapshot {
	if circle == nil {
		return models.BudgetSnapshot{}
	}
	return models.BudgetSnapshot{
		DailyPercentage:   percentage(circle.CurrentDailySpent, circle.DailyLimit),
		MonthlyPercentage: percentage(circle.CurrentMonthlySpent, circle.MonthlyLimit),
		DailyRemaining:    circle.DailyLimit - circle.CurrentDailySpent,
		MonthlyRemaining:  circle.MonthlyLimit - circle.CurrentMonthlySpent,
	}
}

func percentage(spent, limit float64) float64 {
	if limit == 0 {
		return 0
	}
	p := spent / limit * 100
	if p > 100 {
		return 100
	}
	return p
}
