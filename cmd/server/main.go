// Package main runs the risk engine as an HTTP service: scenario
// calculation, sensitivity analysis, portfolio aggregation, and input
// validation over JSON, plus health/status/metrics endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fair-risk-engine/internal/api"
	"fair-risk-engine/internal/domain"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	seed := flag.Uint64("seed", api.DefaultSeed, "Default random seed for requests that carry none")
	nSimulations := flag.Int("n-simulations", domain.DefaultNSimulations, "Default Monte Carlo iteration count")
	shutdownTimeout := flag.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	logger := log.New(os.Stderr, "[server] ", log.LstdFlags)

	if *nSimulations < 1 {
		logger.Fatal("--n-simulations must be >= 1")
	}

	server := api.NewServer(api.Options{
		Seed:         *seed,
		NSimulations: *nSimulations,
		Logger:       logger,
	})

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server.Routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Listening on %s (seed=%d, n_simulations=%d)", *addr, *seed, *nSimulations)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Fatalf("Shutdown error: %v", err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server error: %v", err)
		}
	}

	logger.Println("Shutdown complete")
}
