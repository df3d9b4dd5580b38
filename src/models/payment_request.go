package models

type PaymentRequest struct {
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	Method        string  `json:"method"`
	TargetAddress string  `json:"upi_id"`
	FromUserID    int64   `json:"from_user_id"`
	FromUserName  string  `json:"from_user_name"`
	CircleID      string  `json:"circle_id"`
}
