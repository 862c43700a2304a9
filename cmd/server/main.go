package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/avernlabs/agent-store/internal/agents"
	"github.com/avernlabs/agent-store/internal/config"
	"github.com/avernlabs/agent-store/internal/database"
	"github.com/avernlabs/agent-store/internal/logger"
	"github.com/avernlabs/agent-store/internal/routes"
)

type Application struct {
	config *config.Config
	db     *sql.DB
	logger *slog.Logger
}

func main() {
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

	if err := database.Migrate(db); err != nil {
		log.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	app := &Application{
		config: cfg,
		db:     db,
		logger: log,
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.routes(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		IdleTimeout:  cfg.Server.IdleTimeoutDuration(),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
		defer cancel()

		shutdownError <- srv.Shutdown(ctx)
	}()

	log.Info("starting server", "addr", srv.Addr)

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	if err := <-shutdownError; err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func (app *Application) routes() http.Handler {
	system := agents.New(app.db, app.logger, agents.Options{
		Pagination:     app.config.Pagination,
		MaxConfigSize:  app.config.Agents.MaxConfigSizeBytes(),
		DefaultRetries: app.config.Agents.DefaultRetries,
	})

	handler := agents.NewHandler(system, app.logger, app.config.Pagination)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("/api/", http.StripPrefix("/api", routes.Build(
		app.logger,
		handler.Routes(),
		handler.AccountRoutes(),
	)))

	return app.enableCORS(mux)
}

func (app *Application) enableCORS(next http.Handler) http.Handler {
	if !app.config.CORS.Enabled {
		return next
	}

	cors := app.config.CORS

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(cors.Origins) > 0 {
			origin := r.Header.Get("Origin")
			if slices.Contains(cors.Origins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
		}

		if len(cors.AllowedMethods) > 0 {
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(cors.AllowedMethods, ", "))
		}

		if len(cors.AllowedHeaders) > 0 {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(cors.AllowedHeaders, ", "))
		}

		if cors.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
