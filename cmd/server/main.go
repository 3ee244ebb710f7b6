/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Play'd coin engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env / environment)
  2. Open the SQLite store (":memory:" by default, like the original)
  3. Build the catalog, engine, and auth service
  4. Optionally seed the demo player
  5. Start the HTTP server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database
  4. Exit

ENVIRONMENT:
  PORT             HTTP port (default 8080)
  DB_PATH          SQLite path (default ":memory:")
  JWT_SECRET       Session token secret
  SIGNUP_BONUS     Coins credited to new accounts (default 500)
  STREAK_BONUS     Coins per streak claim (default 120)
  SEED_DEMO_PLAYER Create the demo account at startup (default true)

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/playd/coin-engine/api"
	"github.com/playd/coin-engine/auth"
	"github.com/playd/coin-engine/catalog"
	"github.com/playd/coin-engine/config"
	"github.com/playd/coin-engine/ledger"
	"github.com/playd/coin-engine/store/sqlite"
)

func main() {
	cfg := config.Load()

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Engine and auth over the shared store
	engine := ledger.NewEngine(store, catalog.Seed())
	engine.StreakBonus = cfg.StreakBonus
	authSvc := auth.New(cfg.JWTSecret, store, cfg.SignupBonus)

	if cfg.SeedDemoPlayer {
		if err := seedDemoPlayer(context.Background(), store); err != nil {
			log.Printf("Warning: failed to seed demo player: %v", err)
		}
	}

	handler := api.NewHandler(engine, authSvc)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Play'd coin engine listening on http://localhost:%s", cfg.Port)
		log.Printf("API available at http://localhost:%s/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// seedDemoPlayer creates the demo account the original backend ships with:
// 10000 coins and a 7-day streak.
func seedDemoPlayer(ctx context.Context, store ledger.AccountStore) error {
	acct, err := store.GetOrCreate(ctx, ledger.Account{
		UserID:       ledger.UserID(uuid.NewString()),
		TeamPlayerID: auth.DemoTeamPlayerID,
		Username:     "DemoPlayer",
	}, 10000)
	if err != nil {
		return err
	}

	// Fresh account only: bump the streak to the demo value
	for acct.StreakDays < 7 {
		acct, err = store.IncrementStreak(ctx, acct.UserID)
		if err != nil {
			return err
		}
	}
	return nil
}
