package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)
	jwtSecret = []byte(cfg.JWTSecret)
	if cfg.JWTSecret == devJWTSecret {
		log.Warn().Msg("JWT_SECRET not set, using development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(db, cfg, newMatchHub(cfg.AlertThreshold)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("starting UniHaven backend")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newRouter(db *sql.DB, cfg Config, hub *matchHub) http.Handler {
	mux := http.NewServeMux()

	// Accounts
	mux.Handle("/register", registerHandler(db))
	mux.Handle("/login", loginHandler(db))
	mux.Handle("/me/ping", mePingHandler(db)) // POST

	// Own roommate profile: GET/PUT/DELETE, POST .../activate|deactivate
	mux.Handle("/me/roommate-profile", meRoommateProfileHandler(db, hub))
	mux.Handle("/me/roommate-profile/", meRoommateProfileHandler(db, hub))

	// Matching: /roommates/matches, /roommates/compatibility?ids=,
	// /roommates/{id}/(profile|compatibility|dismiss)
	mux.Handle("/roommates/", DataLoaderMiddleware(db)(roommatesDispatcher(db, cfg.MatchLimit)))

	// Live match alerts
	mux.Handle("/ws/matches", wsMatchesHandler(db, hub))

	// GraphQL: the same profile and matching operations plus a matchAlerts
	// subscription over graphql-ws
	mux.Handle("/graphql", graphqlHandler(db, hub, cfg.MatchLimit))

	mux.Handle("/metrics", matchStats.handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return withRequestLogging(withCORS(cfg.AllowedOrigins, mux))
}
