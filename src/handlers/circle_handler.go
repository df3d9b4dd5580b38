package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"circlepay-server/src/db"
	"circlepay-server/src/models"
	"circlepay-server/src/payments"

	"github.com/go-chi/chi/v5"
)

func CreateCircle(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		var req struct {
			Name         string  `json:"name"`
			DailyLimit   float64 `json:"daily_limit"`
			MonthlyLimit float64 `json:"monthly_limit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode create circle request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.DailyLimit <= 0 || req.MonthlyLimit < req.DailyLimit {
			http.Error(w, "limits must be positive and monthly_limit must cover daily_limit", http.StatusBadRequest)
			return
		}

		circle, err := store.CreateCircle(r.Context(), &models.Circle{
			Name:         req.Name,
			DailyLimit:   req.DailyLimit,
			MonthlyLimit: req.MonthlyLimit,
		})
		if err != nil {
			log.Printf("ERROR: Failed to create circle for user %d: %v", userID, err)
			http.Error(w, "failed to create circle", http.StatusInternalServerError)
			return
		}
		log.Printf("INFO: Created circle %s (%s) by user %d", circle.ID, circle.Name, userID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(circle)
	}
}

func GetCircle(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		circleID := chi.URLParam(r, "circle_id")
		circle, err := store.Circle(r.Context(), circleID)
		if err != nil {
			if errors.Is(err, payments.ErrCircleNotFound) {
				http.Error(w, "circle not found", http.StatusNotFound)
				return
			}
			log.Printf("ERROR: Failed to get circle %s: %v", circleID, err)
			http.Error(w, "failed to get circle", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(circle)
	}
}

// GetBudgetSnapshot returns the display-ready percentages and remaining
// amounts for a circle.
func GetBudgetSnapshot(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		circleID := chi.URLParam(r, "circle_id")
		circle, err := store.Circle(r.Context(), circleID)
		if err != nil && !errors.Is(err, payments.ErrCircleNotFound) {
			log.Printf("ERROR: Failed to get circle %s for budget snapshot: %v", circleID, err)
			http.Error(w, "failed to get circle", http.StatusInternalServerError)
			return
		}
		// A missing circle yields the zero snapshot rather than an error.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payments.Summarize(circle))
	}
}

func ResetDailySpend(ledger *payments.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID := r.Context().Value("user_id").(int64)
		circleID := chi.URLParam(r, "circle_id")
		if err := ledger.ResetDaily(r.Context(), circleID); err != nil {
			if errors.Is(err, payments.ErrCircleNotFound) {
				http.Error(w, "circle not found", http.StatusNotFound)
				return
			}
			log.Printf("ERROR: Failed to reset daily spend for circle %s: %v", circleID, err)
			http.Error(w, "failed to reset daily spend", http.StatusInternalServerError)
			return
		}
		log.Printf("INFO: Daily spend reset for circle %s by admin %d", circleID, adminID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "daily spend reset"})
	}
}

func ResetMonthlySpend(ledger *payments.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID := r.Context().Value("user_id").(int64)
		circleID := chi.URLParam(r, "circle_id")
		if err := ledger.ResetMonthly(r.Context(), circleID); err != nil {
			if errors.Is(err, payments.ErrCircleNotFound) {
				http.Error(w, "circle not found", http.StatusNotFound)
				return
			}
			log.Printf("ERROR: Failed to reset monthly spend for circle %s: %v", circleID, err)
			http.Error(w, "failed to reset monthly spend", http.StatusInternalServerError)
			return
		}
		log.Printf("INFO: Monthly spend reset for circle %s by admin %d", circleID, adminID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "monthly spend reset"})
	}
}
