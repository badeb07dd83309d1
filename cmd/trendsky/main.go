package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/deusflow/trendsky/internal/app"
	"github.com/deusflow/trendsky/internal/bluesky"
	"github.com/deusflow/trendsky/internal/config"
	"github.com/deusflow/trendsky/internal/images"
	"github.com/deusflow/trendsky/internal/ledger"
	"github.com/deusflow/trendsky/internal/logger"
	"github.com/deusflow/trendsky/internal/metrics"
)

func main() {
	// .env is optional; real deployments set env vars via cron/systemd.
	_ = godotenv.Load()

	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	l, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		log.Fatalf("ledger error: %v", err)
	}
	defer l.Close()

	// Check if we should start HTTP server for monitoring
	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer(l)
	}

	if err := run(cfg, l); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, l *ledger.Ledger) error {
	ctx := context.Background()

	// One authenticated session per run, torn down with the process.
	client, err := bluesky.Login(ctx, cfg.BlueskyHost, cfg.BlueskyIdentifier, cfg.BlueskyPassword, cfg.RequestTimeout)
	if err != nil {
		return err
	}

	resolver := images.NewResolver(cfg.RequestTimeout)

	return app.New(cfg, l, client, resolver).Run(ctx)
}

func startMonitoringServer(l *ledger.Ledger) {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler(l))
	http.HandleFunc("/recent", recentHandler(l))

	log.Printf("Starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// metricsHandler merges the run counters with the ledger's totals.
func metricsHandler(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := metrics.Global.GetStats()

		ledgerStats, err := l.Stats()
		if err != nil {
			log.Printf("Ledger stats unavailable: %v", err)
		} else {
			for k, v := range ledgerStats {
				stats[k] = v
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}

// recentHandler lists the most recently announced trends.
func recentHandler(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := l.Recent(10)
		if err != nil {
			http.Error(w, "ledger unavailable", http.StatusInternalServerError)
			return
		}

		type entry struct {
			Title    string `json:"title"`
			PostedAt string `json:"posted_at"`
		}
		response := make([]entry, 0, len(records))
		for _, rec := range records {
			response = append(response, entry{Title: rec.Title, PostedAt: rec.PostedAt.UTC().Format(time.RFC3339)})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
