package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"circlepay-server/src/db"

	"github.com/go-chi/chi/v5"
)

// ClearCache drops every cached entry of one entity type. Used by admins
// after out-of-band data fixes, when waiting for invalidation is not enough.
func ClearCache() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID := r.Context().Value("user_id").(int64)
		cacheName := chi.URLParam(r, "cache_name")

		switch cacheName {
		case "circles":
			db.ClearAllCircleCaches()
		case "transactions":
			db.ClearAllTransactionCaches()
		case "all":
			db.ClearAllCircleCaches()
			db.ClearAllTransactionCaches()
		default:
			log.Printf("ERROR: Unknown cache name %q requested by admin %d", cacheName, adminID)
			http.Error(w, "unknown cache name", http.StatusBadRequest)
			return
		}

		log.Printf("INFO: Cache %q cleared by admin %d", cacheName, adminID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "cache cleared"})
	}
}
