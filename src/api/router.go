package api

import (
	"net/http"

	"circlepay-server/src/db"
	"circlepay-server/src/handlers"
	"circlepay-server/src/middleware"
	"circlepay-server/src/payments"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRouter(pool *pgxpool.Pool, store *db.Store, pipeline *payments.Pipeline, ledger *payments.Ledger, syncChannel *payments.SyncChannel, isDemo bool) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.DemoModeMiddleware(isDemo))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handlers.Login(pool))
		r.Post("/register", handlers.Register(pool))

		// Protected routes
		r.With(middleware.JWTAuthMiddleware).Group(func(r chi.Router) {
			// Payments
			r.Post("/payments", handlers.SubmitPayment(pipeline))
			r.Get("/transactions", handlers.GetTransactions(store))
			r.Get("/transactions/stream", handlers.StreamTransactions(syncChannel))

			// Circle
			r.Get("/circles/{circle_id}", handlers.GetCircle(store))
			r.Get("/circles/{circle_id}/budget", handlers.GetBudgetSnapshot(store))
		})

		// Admin Routes
		r.With(middleware.JWTAuthMiddleware, middleware.AdminMiddleware(pool)).Group(func(r chi.Router) {
			r.Post("/circles", handlers.CreateCircle(store))
			r.Get("/transactions/pending", handlers.GetPendingTransactions(store))
			r.Post("/transactions/{transaction_id}/approve", handlers.ApproveTransaction(pipeline))
			r.Post("/transactions/{transaction_id}/reject", handlers.RejectTransaction(pipeline))

			// External-scheduler hooks for the spend counter rollovers
			r.Post("/circles/{circle_id}/reset-daily", handlers.ResetDailySpend(ledger))
			r.Post("/circles/{circle_id}/reset-monthly", handlers.ResetMonthlySpend(ledger))

			// Cache
			r.Post("/admin/cache/clear/{cache_name}", handlers.ClearCache())
		})
	})

	return r
}
