package server

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/monkichi27/number-guessing-game/internal/analytics"
	"github.com/monkichi27/number-guessing-game/internal/db"
	"github.com/monkichi27/number-guessing-game/internal/rooms"
)

const (
	archiveBatchSize     = 50
	archiveFlushInterval = 500 * time.Millisecond
)

type matchStore interface {
	BatchRecordMatches([]db.MatchRecord) error
	AwardBadge(playerName, badgeID string, matchID *string) error
}

// Archive persists finished matches off the room lock. Rooms hand results
// to RecordMatch; Run drains them in batches.
type Archive struct {
	store  matchStore
	buffer chan rooms.MatchResult
}

func NewArchive(store matchStore, size int) *Archive {
	return &Archive{store: store, buffer: make(chan rooms.MatchResult, size)}
}

// RecordMatch never blocks. A full buffer drops the result.
func (a *Archive) RecordMatch(res rooms.MatchResult) {
	select {
	case a.buffer <- res:
	default:
		log.Warn().Str("room", res.RoomCode).Msg("match archive full, dropping result")
	}
}

func (a *Archive) Run(ctx context.Context) {
	ticker := time.NewTicker(archiveFlushInterval)
	defer ticker.Stop()

	batch := make([]db.MatchRecord, 0, archiveBatchSize)

	for {
		select {
		case res := <-a.buffer:
			batch = append(batch, matchRecord(res))
			if len(batch) >= archiveBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ctx.Done():
			for {
				select {
				case res := <-a.buffer:
					batch = append(batch, matchRecord(res))
				default:
					if len(batch) > 0 {
						a.flush(batch)
					}
					return
				}
			}
		}
	}
}

func (a *Archive) flush(batch []db.MatchRecord) {
	if err := a.store.BatchRecordMatches(batch); err != nil {
		log.Error().Err(err).Int("matches", len(batch)).Msg("recording matches")
		return
	}
	for _, m := range batch {
		matchID := m.ID
		for _, stats := range analytics.MatchStats(m) {
			for _, b := range analytics.EvaluateMatchBadges(stats) {
				if err := a.store.AwardBadge(stats.PlayerName, string(b.ID), &matchID); err != nil {
					log.Error().Err(err).Str("player", stats.PlayerName).Str("badge", string(b.ID)).Msg("awarding badge")
				}
			}
		}
	}
	log.Debug().Int("matches", len(batch)).Msg("archived matches")
}

func matchRecord(res rooms.MatchResult) db.MatchRecord {
	m := db.MatchRecord{
		RoomCode:     res.RoomCode,
		WinnerSeat:   res.Winner,
		WinnerName:   res.WinnerName,
		LoserName:    res.LoserName,
		WinningGuess: res.WinningGuess,
		EndReason:    res.Reason,
		EndedAt:      res.EndedAt,
	}
	if !res.StartedAt.IsZero() {
		started := res.StartedAt
		m.StartedAt = &started
	}
	for i, g := range res.History {
		m.Guesses = append(m.Guesses, db.GuessRow{
			Turn:            i + 1,
			Seat:            g.Seat,
			PlayerName:      g.PlayerName,
			Guess:           g.Guess,
			CorrectPosition: g.Result.CorrectPosition,
			CorrectNumber:   g.Result.CorrectNumber,
			GuessedAt:       g.Timestamp,
		})
	}
	return m
}
