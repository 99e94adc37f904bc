package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pjhalloran/questkeep/internal/database"
	"github.com/pjhalloran/questkeep/internal/logging"
	"github.com/pjhalloran/questkeep/internal/push"
	"github.com/pjhalloran/questkeep/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("QUESTKEEP_LOG_LEVEL"), os.Getenv("QUESTKEEP_LOG_FORMAT"))

	port := os.Getenv("QUESTKEEP_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("QUESTKEEP_DB_PATH")
	if dbPath == "" {
		dbPath = "questkeep.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("QUESTKEEP_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("QUESTKEEP_VAPID_PRIVATE_KEY"),
	}
	if pushCfg.VAPIDPublicKey == "" {
		logger.Info("push notifications disabled, set QUESTKEEP_VAPID_PUBLIC_KEY and QUESTKEEP_VAPID_PRIVATE_KEY to enable")
	}

	srv := server.New(db, pushCfg, logger)

	if capVal := os.Getenv("QUESTKEEP_DAILY_XP_CAP"); capVal != "" {
		if err := srv.Engine().Settings().Set("daily_xp_cap", capVal); err != nil {
			logger.Error("set daily XP cap", "error", err)
		}
	}

	// Catch up any missed daily resets on startup
	if err := srv.Engine().ResetAll(); err != nil {
		logger.Error("startup daily reset", "error", err)
	}

	// Hourly housekeeping: expired sessions, stale rate-limit entries,
	// lapsed limited-time rewards, and the daily task reset for whichever
	// accounts cross midnight.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup", "error", err)
			} else if n > 0 {
				logger.Info("session cleanup", "deleted", n)
			}
			srv.RateLimiter().Cleanup()
			if _, err := srv.Engine().PruneExpiredRewards(); err != nil {
				logger.Error("reward cleanup", "error", err)
			}
			if err := srv.Engine().ResetAll(); err != nil {
				logger.Error("daily reset", "error", err)
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("QuestKeep running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
