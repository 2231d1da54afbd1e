package server

import (
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/monkichi27/number-guessing-game/internal/analytics"
)

const (
	defaultStatsLimit = 10
	maxStatsLimit     = 100
)

func statsLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultStatsLimit
	}
	return min(n, maxStatsLimit)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "Stats require a database connection")
		return
	}
	category := r.URL.Query().Get("cat")
	if category == "" {
		category = "wins"
	}
	if !slices.Contains(analytics.LeaderboardCategories, category) {
		writeError(w, http.StatusBadRequest, "unknown leaderboard category")
		return
	}

	q := analytics.NewQueries(s.DB)
	entries, err := q.GetLeaderboard(category, statsLimit(r))
	if err != nil {
		log.Error().Err(err).Str("category", category).Msg("leaderboard query")
		writeError(w, http.StatusInternalServerError, "Error loading leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRecentMatches(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "Stats require a database connection")
		return
	}

	q := analytics.NewQueries(s.DB)
	matches, err := q.GetRecentMatches(statsLimit(r))
	if err != nil {
		log.Error().Err(err).Msg("recent matches query")
		writeError(w, http.StatusInternalServerError, "Error loading matches")
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "Stats require a database connection")
		return
	}

	name := chi.URLParam(r, "name")
	q := analytics.NewQueries(s.DB)
	stats, err := q.GetPlayerLifetimeStats(name)
	if err != nil {
		status, msg := playerStatsError(err)
		if status == http.StatusNotFound {
			log.Debug().Err(err).Str("player", name).Msg("player stats")
		} else {
			log.Error().Err(err).Str("player", name).Msg("player stats query")
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func playerStatsError(err error) (int, string) {
	if errors.Is(err, analytics.ErrPlayerNotFound) {
		return http.StatusNotFound, "Player not found"
	}
	return http.StatusInternalServerError, "Error loading player stats"
}
