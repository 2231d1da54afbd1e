package gamedata

import (
	"time"

	"github.com/monkichi27/number-guessing-game/internal/guess"
)

type Phase string

const (
	PhaseLobby      = Phase("lobby")
	PhaseInProgress = Phase("in_progress")
	PhaseFinished   = Phase("finished")
)

const (
	ReasonSolved          = "solved"
	ReasonOpponentTimeout = "opponent_timeout"
)

type GuessRecord struct {
	Seat       int          `json:"seat"`
	PlayerName string       `json:"playerName"`
	Guess      string       `json:"guess"`
	Result     guess.Result `json:"result"`
	IsWin      bool         `json:"isWin"`
	Timestamp  time.Time    `json:"timestamp"`
}

// State is one match. Secrets are keyed by seat and never serialised.
type State struct {
	Started       bool           `json:"started"`
	CurrentPlayer int            `json:"currentPlayer"`
	Secrets       map[int]string `json:"-"`
	History       []GuessRecord  `json:"history"`
	Winner        int            `json:"winner,omitempty"`
	WinningGuess  string         `json:"winningGuess,omitempty"`
	StartedAt     *time.Time     `json:"startedAt,omitempty"`
	EndedAt       *time.Time     `json:"endedAt,omitempty"`
	EndReason     string         `json:"endReason,omitempty"`
}

func New() *State {
	g := &State{}
	g.Reset()
	return g
}

// Reset returns the match to its initial lobby snapshot.
func (g *State) Reset() {
	g.Started = false
	g.CurrentPlayer = 1
	g.Secrets = make(map[int]string)
	g.History = []GuessRecord{}
	g.Winner = 0
	g.WinningGuess = ""
	g.StartedAt = nil
	g.EndedAt = nil
	g.EndReason = ""
}

func (g *State) Phase() Phase {
	switch {
	case g.Winner != 0:
		return PhaseFinished
	case g.Started:
		return PhaseInProgress
	default:
		return PhaseLobby
	}
}

func (g *State) Start(at time.Time) {
	g.Started = true
	g.CurrentPlayer = 1
	g.History = []GuessRecord{}
	g.StartedAt = &at
}

// Opponent returns the other seat.
func Opponent(seat int) int {
	if seat == 1 {
		return 2
	}
	return 1
}

// Record appends a guess by seat and advances the turn unless it won.
func (g *State) Record(rec GuessRecord) {
	g.History = append(g.History, rec)
	if rec.IsWin {
		g.finish(rec.Seat, rec.Guess, ReasonSolved, rec.Timestamp)
		return
	}
	g.CurrentPlayer = Opponent(g.CurrentPlayer)
}

// Forfeit ends the match in favour of seat.
func (g *State) Forfeit(seat int, reason string, at time.Time) {
	g.finish(seat, "", reason, at)
}

func (g *State) finish(seat int, winningGuess, reason string, at time.Time) {
	g.Winner = seat
	g.WinningGuess = winningGuess
	g.EndReason = reason
	g.EndedAt = &at
}

// Snapshot copies the state for broadcasting outside the room lock.
func (g *State) Snapshot() State {
	out := *g
	out.Secrets = nil
	out.History = append([]GuessRecord{}, g.History...)
	return out
}
