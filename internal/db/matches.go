package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MatchRecord struct {
	ID           string
	RoomCode     string
	WinnerSeat   int
	WinnerName   string
	LoserName    string
	WinningGuess string
	EndReason    string
	StartedAt    *time.Time
	EndedAt      time.Time
	Guesses      []GuessRow
}

type GuessRow struct {
	Turn            int
	Seat            int
	PlayerName      string
	Guess           string
	CorrectPosition int
	CorrectNumber   int
	GuessedAt       time.Time
}

// BatchRecordMatches stores finished matches and their guesses in one
// transaction. Records without an ID are given a fresh UUID in place.
func (d *DB) BatchRecordMatches(matches []MatchRecord) error {
	if len(matches) == 0 {
		return nil
	}
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	matchStmt, err := tx.Prepare(`
		INSERT INTO matches (id, room_code, winner_seat, winner_name, loser_name, winning_guess, end_reason, guess_count, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("preparing match statement: %w", err)
	}
	defer matchStmt.Close()

	guessStmt, err := tx.Prepare(`
		INSERT INTO match_guesses (match_id, turn, seat, player_name, guess, correct_position, correct_number, guessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return fmt.Errorf("preparing guess statement: %w", err)
	}
	defer guessStmt.Close()

	for i := range matches {
		m := &matches[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if _, err := matchStmt.Exec(m.ID, m.RoomCode, m.WinnerSeat, m.WinnerName, m.LoserName, m.WinningGuess, m.EndReason, len(m.Guesses), m.StartedAt, m.EndedAt); err != nil {
			return fmt.Errorf("recording match %s: %w", m.ID, err)
		}
		for _, g := range m.Guesses {
			if _, err := guessStmt.Exec(m.ID, g.Turn, g.Seat, g.PlayerName, g.Guess, g.CorrectPosition, g.CorrectNumber, g.GuessedAt); err != nil {
				return fmt.Errorf("recording guess %d of match %s: %w", g.Turn, m.ID, err)
			}
		}
	}

	return tx.Commit()
}

func (d *DB) GetMatch(id string) (*MatchRecord, error) {
	m := MatchRecord{ID: id}
	err := d.conn.QueryRow(`
		SELECT room_code, winner_seat, winner_name, loser_name, winning_guess, end_reason, started_at, ended_at
		FROM matches WHERE id = $1
	`, id).Scan(&m.RoomCode, &m.WinnerSeat, &m.WinnerName, &m.LoserName, &m.WinningGuess, &m.EndReason, &m.StartedAt, &m.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("getting match: %w", err)
	}

	rows, err := d.conn.Query(`
		SELECT turn, seat, player_name, guess, correct_position, correct_number, guessed_at
		FROM match_guesses WHERE match_id = $1 ORDER BY turn
	`, id)
	if err != nil {
		return nil, fmt.Errorf("getting match guesses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g GuessRow
		if err := rows.Scan(&g.Turn, &g.Seat, &g.PlayerName, &g.Guess, &g.CorrectPosition, &g.CorrectNumber, &g.GuessedAt); err != nil {
			return nil, err
		}
		m.Guesses = append(m.Guesses, g)
	}
	return &m, rows.Err()
}
