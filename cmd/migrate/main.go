// Command migrate manages the embedded database schema migrations.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/avernlabs/agent-store/internal/config"
	"github.com/avernlabs/agent-store/internal/database"
	"github.com/avernlabs/agent-store/internal/logger"
)

func main() {
	up := flag.Bool("up", false, "apply all pending migrations")
	down := flag.Bool("down", false, "roll back the most recent migration")
	version := flag.Bool("version", false, "print the current migration version")
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

	switch {
	case *up:
		if err := database.Migrate(db); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	case *down:
		if err := database.MigrateDown(db); err != nil {
			log.Error("rollback failed", "error", err)
			os.Exit(1)
		}
		log.Info("migration rolled back")
	case *version:
		v, dirty, err := database.Version(db)
		if err != nil {
			log.Error("version lookup failed", "error", err)
			os.Exit(1)
		}
		log.Info("migration status", "version", v, "dirty", dirty)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
