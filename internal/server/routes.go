package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/monkichi27/number-guessing-game/internal/config"
	"github.com/monkichi27/number-guessing-game/internal/db"
)

const archiveBuffer = 1000

func Run() error {
	appCfg := config.Load()
	setupLogging(appCfg)

	srv := New(appCfg.Rooms(), appCfg.PublicURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var workers sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	// Optional database connection
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Error().Err(err).Msg("database unavailable, running without match archive")
		} else {
			defer database.Close()
			if err := database.Migrate(); err != nil {
				log.Error().Err(err).Msg("migration failed")
			}
			srv.DB = database
			archive := NewArchive(database, archiveBuffer)
			srv.Rooms.SetRecorder(archive)
			workers.Add(1)
			go func() {
				defer workers.Done()
				archive.Run(workerCtx)
			}()
			log.Info().Msg("database connected and migrations applied")
		}
	} else {
		log.Info().Msg("DATABASE_URL not set, running without match archive")
	}

	workers.Add(1)
	go func() {
		defer workers.Done()
		srv.Rooms.Run(workerCtx)
	}()

	httpSrv := &http.Server{
		Addr:              "0.0.0.0:" + appCfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", appCfg.Port).Msg("server listening")
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	srv.Rooms.Close()
	cancelWorkers()
	workers.Wait()
	return nil
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// Router installs middleware and registers every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// long-lived streams stay outside the request timeout
	r.Get("/ws", s.handleWS)
	r.Get("/rooms/events", s.handleRoomEvents)
	r.Get("/rooms/{code}/qr", s.handleRoomQR)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)
		r.Get("/health", s.handleHealth)
		r.Get("/rooms", s.handleRooms)
		r.Get("/stats/leaderboard", s.handleLeaderboard)
		r.Get("/stats/recent", s.handleRecentMatches)
		r.Get("/stats/players/{name}", s.handlePlayerStats)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	return r
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}
