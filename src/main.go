package main

import (
	"log"
	"net/http"

	"circlepay-server/src/api"
	"circlepay-server/src/config"
	"circlepay-server/src/db"
	"circlepay-server/src/payments"
)

func main() {
	cfg := config.Load()

	// Connect to database
	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer pool.Close()

	db.InitCache()

	// Transaction change feed
	feed := db.NewFeed(pool)
	feed.Start()
	defer feed.Close()

	// Payment workflow
	store := db.NewStore(pool, feed)
	authorizer := payments.NewAuthorizer(cfg.AutoApproveLimit)
	ledger := payments.NewLedger(store)
	pipeline := payments.NewPipeline(store, authorizer, ledger, cfg.HandleDomain)
	syncChannel := payments.NewSyncChannel(store)

	// Router
	router := api.NewRouter(pool, store, pipeline, ledger, syncChannel, cfg.IsDemo)

	log.Println("API server running on port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
