// Command alert-check runs the detection rules once against the database
// and prints the resulting alerts to stdout, one JSON object per line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mr1hm/go-maintenance-alerts/internal/alerts"
	"github.com/mr1hm/go-maintenance-alerts/internal/config"
	"github.com/mr1hm/go-maintenance-alerts/internal/logging"
	"github.com/mr1hm/go-maintenance-alerts/internal/repository"
)

func main() {
	at := flag.String("at", "", "evaluate as of this RFC3339 time instead of now")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	// stdout carries the alerts, so logs go to stderr.
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level))

	now := time.Now()
	if *at != "" {
		now, err = time.Parse(time.RFC3339, *at)
		if err != nil {
			logging.Fatalf("Invalid -at time: %v", err)
		}
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	settings, _, err := config.ResolveAlertSettings(ctx, cfg.Alerts.SettingsFile, db, now)
	if err != nil {
		logging.Fatalf("Failed to load alert settings: %v", err)
	}

	checklists, err := db.ListChecklists(ctx)
	if err != nil {
		logging.Fatalf("Failed to load checklists: %v", err)
	}
	requests, err := db.ListRequests(ctx)
	if err != nil {
		logging.Fatalf("Failed to load requests: %v", err)
	}

	engine := alerts.NewEngine(settings)
	detected := engine.RunAutomaticChecks(checklists, requests, now)

	enc := json.NewEncoder(os.Stdout)
	for _, a := range detected {
		if err := enc.Encode(a); err != nil {
			logging.Fatalf("Failed to write alert: %v", err)
		}
	}

	slog.Info("alert check complete",
		"checklists", len(checklists),
		"requests", len(requests),
		"alerts", len(detected))
}
