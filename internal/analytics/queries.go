package analytics

import (
	"errors"
	"fmt"

	"github.com/monkichi27/number-guessing-game/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

// ErrPlayerNotFound means the archive holds no match for the player.
var ErrPlayerNotFound = errors.New("player not found")

// LeaderboardCategories lists the categories GetLeaderboard accepts.
var LeaderboardCategories = []string{"wins", "played", "fastest"}

func (q *Queries) GetLeaderboard(category string, limit int) ([]LeaderboardEntry, error) {
	var query string
	switch category {
	case "wins":
		query = `
			SELECT winner_name, COUNT(*) AS value
			FROM matches
			GROUP BY winner_name
			ORDER BY value DESC, winner_name
			LIMIT $1`
	case "played":
		query = `
			SELECT name, COUNT(*) AS value
			FROM (
				SELECT winner_name AS name FROM matches
				UNION ALL
				SELECT loser_name FROM matches WHERE loser_name <> ''
			) p
			GROUP BY name
			ORDER BY value DESC, name
			LIMIT $1`
	case "fastest":
		query = `
			SELECT m.winner_name, MIN(g.cnt) AS value
			FROM matches m
			JOIN (
				SELECT match_id, seat, COUNT(*) AS cnt FROM match_guesses GROUP BY match_id, seat
			) g ON g.match_id = m.id AND g.seat = m.winner_seat
			WHERE m.end_reason = 'solved'
			GROUP BY m.winner_name
			ORDER BY value ASC, m.winner_name
			LIMIT $1`
	default:
		return nil, fmt.Errorf("unknown leaderboard category: %s", category)
	}

	rows, err := q.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerName, &e.Value); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (q *Queries) GetRecentMatches(limit int) ([]MatchSummary, error) {
	rows, err := q.DB.Query(`
		SELECT id, room_code, winner_name, loser_name, winning_guess, end_reason, guess_count, started_at, ended_at
		FROM matches
		ORDER BY ended_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("getting recent matches: %w", err)
	}
	defer rows.Close()

	out := []MatchSummary{}
	for rows.Next() {
		var m MatchSummary
		if err := rows.Scan(&m.ID, &m.RoomCode, &m.WinnerName, &m.LoserName, &m.WinningGuess, &m.EndReason, &m.GuessCount, &m.StartedAt, &m.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (q *Queries) GetPlayerLifetimeStats(name string) (*PlayerLifetimeStats, error) {
	stats := &PlayerLifetimeStats{PlayerName: name}

	err := q.DB.QueryRow(`
		SELECT
			COUNT(*) FILTER (WHERE winner_name = $1) AS wins,
			COUNT(*) FILTER (WHERE loser_name = $1) AS losses
		FROM matches
		WHERE winner_name = $1 OR loser_name = $1
	`, name).Scan(&stats.Wins, &stats.Losses)
	if err != nil {
		return nil, fmt.Errorf("getting lifetime stats: %w", err)
	}
	stats.MatchesPlayed = stats.Wins + stats.Losses
	if stats.MatchesPlayed == 0 {
		return nil, fmt.Errorf("%w: %q", ErrPlayerNotFound, name)
	}

	err = q.DB.QueryRow(`
		SELECT COALESCE(MIN(g.cnt), 0)
		FROM matches m
		JOIN (
			SELECT match_id, seat, COUNT(*) AS cnt FROM match_guesses GROUP BY match_id, seat
		) g ON g.match_id = m.id AND g.seat = m.winner_seat
		WHERE m.winner_name = $1 AND m.end_reason = 'solved'
	`, name).Scan(&stats.BestSolve)
	if err != nil {
		return nil, fmt.Errorf("getting best solve: %w", err)
	}

	// Calculate win streak (most recent consecutive wins)
	rows, err := q.DB.Query(`
		SELECT winner_name = $1
		FROM matches
		WHERE winner_name = $1 OR loser_name = $1
		ORDER BY ended_at DESC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("getting win streak: %w", err)
	}
	defer rows.Close()

	streak := 0
	for rows.Next() {
		var won bool
		if err := rows.Scan(&won); err != nil {
			return nil, err
		}
		if !won {
			break
		}
		streak++
	}
	stats.WinStreak = streak

	stats.Badges = EvaluateLifetimeBadges(*stats)
	stored, err := q.DB.GetPlayerBadges(name)
	if err != nil {
		return nil, err
	}
	for _, id := range stored {
		if b, ok := AllBadges[BadgeID(id)]; ok && !hasBadge(stats.Badges, b.ID) {
			stats.Badges = append(stats.Badges, b)
		}
	}

	return stats, nil
}

func hasBadge(badges []Badge, id BadgeID) bool {
	for _, b := range badges {
		if b.ID == id {
			return true
		}
	}
	return false
}
