// Command backfill reconciles legacy agent records into the canonical config
// shape. It is idempotent: rerunning against a repaired database scans but
// rewrites nothing.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/avernlabs/agent-store/internal/agents"
	"github.com/avernlabs/agent-store/internal/config"
	"github.com/avernlabs/agent-store/internal/database"
	"github.com/avernlabs/agent-store/internal/logger"
)

func main() {
	batch := flag.Int("batch", 100, "candidate rows fetched per query")
	dryRun := flag.Bool("dry-run", false, "report repairs without writing")
	skipVersions := flag.Bool("skip-versions", false, "reconcile agent records only")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := cfg.Finalize(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(&cfg.Logging)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	sweeper := agents.NewSweeper(db, log, *batch, *dryRun)

	stats, err := sweeper.SweepAgents(ctx)
	log.Info("agent sweep complete",
		"scanned", stats.Scanned, "repaired", stats.Repaired,
		"skipped", stats.Skipped, "failed", stats.Failed, "dry_run", *dryRun)
	if err != nil {
		log.Error("agent sweep aborted", "error", err)
		os.Exit(1)
	}

	if !*skipVersions {
		stats, err = sweeper.SweepVersions(ctx)
		log.Info("version sweep complete",
			"scanned", stats.Scanned, "repaired", stats.Repaired,
			"skipped", stats.Skipped, "failed", stats.Failed, "dry_run", *dryRun)
		if err != nil {
			log.Error("version sweep aborted", "error", err)
			os.Exit(1)
		}
	}
}
