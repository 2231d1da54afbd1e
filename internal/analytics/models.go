package analytics

import "time"

// PlayerMatchStats is one seat's view of a finished match.
type PlayerMatchStats struct {
	PlayerName   string
	Seat         int
	Guesses      int
	Won          bool
	EndReason    string
	BestPosition int // most bulls in a single guess
}

type PlayerLifetimeStats struct {
	PlayerName    string  `json:"playerName"`
	MatchesPlayed int     `json:"matchesPlayed"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinStreak     int     `json:"winStreak"`
	BestSolve     int     `json:"bestSolve,omitempty"` // fewest own guesses in a solved win
	Badges        []Badge `json:"badges"`
}

type LeaderboardEntry struct {
	PlayerName string `json:"playerName"`
	Value      int    `json:"value"`
	Rank       int    `json:"rank"`
}

type MatchSummary struct {
	ID           string     `json:"id"`
	RoomCode     string     `json:"roomCode"`
	WinnerName   string     `json:"winnerName"`
	LoserName    string     `json:"loserName,omitempty"`
	WinningGuess string     `json:"winningGuess,omitempty"`
	EndReason    string     `json:"endReason"`
	GuessCount   int        `json:"guessCount"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	EndedAt      time.Time  `json:"endedAt"`
}
