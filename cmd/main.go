package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"

	"deluxxe/internal/config"
	"deluxxe/internal/database"
	"deluxxe/internal/handlers"
	"deluxxe/internal/repository"
	"deluxxe/internal/services"
)

func main() {
	ctx := context.Background()

	// 1. Load configuration from environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize logging
	logOut := io.Discard
	if cfg.App.LogFile != "" {
		f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
		if err != nil {
			logger.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	defer logger.Init("deluxxe", cfg.App.Verbose, false, logOut).Close()

	logger.Infof("Starting deluxxe raffle service in %s mode", cfg.App.Environment)
	if !cfg.App.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 3. Connect to the season history database when enabled
	var history handlers.SeasonHistory
	if cfg.Database.Enabled {
		db, err := database.NewDB(ctx, cfg)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Errorf("Error closing database connections: %v", err)
			}
		}()
		history = repository.NewSeasonHistory(db.Postgres)
	}

	// 4. Initialize the result store and HTTP handler
	store := services.NewResultStore()
	defaults := services.RaffleOptions{
		MaxRounds:                        cfg.Raffle.MaxRounds,
		ClearHistoryIfNoCandidates:       cfg.Raffle.ClearHistoryIfNoCandidates,
		AllowRentersToWin:                cfg.Raffle.AllowRentersToWin,
		FilterDriversWithWinningHistory:  cfg.Raffle.FilterDriversWithWinningHistory,
		LimitOnePrizePerDriverPerWeekend: cfg.Raffle.LimitOnePrizePerDriverPerWeekend,
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.Rate.RPS), cfg.Rate.Burst)
	httpHandler := handlers.NewHTTPHandler(store, history, defaults, limiter)

	// 5. Set up the Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	httpHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 6. Start the background janitor to expire unread results
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-janitorCtx.Done():
				return
			case <-ticker.C:
				removed := store.CleanUpInactiveResults(cfg.ResultsTTL)
				logger.Infof("Performed cleanup of inactive results, %d removed", removed)
			}
		}
	}()

	// 7. Run the server
	server := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		// Use h2c so we can serve HTTP/2 without TLS
		Handler: h2c.NewHandler(r, &http2.Server{}),
	}

	go func() {
		logger.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to run server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return
	}

	logger.Infof("Server exited gracefully")
}
