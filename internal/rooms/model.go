package rooms

import (
	"context"
	"sync"
	"time"

	"github.com/monkichi27/number-guessing-game/internal/events"
	"github.com/monkichi27/number-guessing-game/internal/gamedata"
	"github.com/monkichi27/number-guessing-game/internal/guess"
	"github.com/monkichi27/number-guessing-game/internal/players"
)

// Room is one two-seat match. All fields below mu are guarded by it, and
// every timer callback takes mu and re-checks its handle before acting.
type Room struct {
	Code      string
	CreatedAt time.Time

	mu               sync.Mutex
	cfg              Config
	players          *players.Store
	game             *gamedata.State
	notify           events.Notifier
	recorder         MatchRecorder
	disconnectTimers map[int]*graceTimer
	startTimer       *time.Timer
	startGen         uint64
	closed           bool
	onEmpty          func(*Room)
}

// graceTimer is one seat's reconnect window: a countdown ticker and an
// expiry deadline driven by the same context.
type graceTimer struct {
	ctx      context.Context
	cancel   context.CancelFunc
	deadline time.Time
}

// MatchResult is handed to the recorder when a match reaches a winner.
type MatchResult struct {
	RoomCode     string
	Winner       int
	WinnerName   string
	LoserName    string
	WinningGuess string
	Reason       string
	StartedAt    time.Time
	EndedAt      time.Time
	History      []gamedata.GuessRecord
}

// MatchRecorder receives finished matches. It is called with the room
// lock held, so it must not block or call back into the room.
type MatchRecorder interface {
	RecordMatch(MatchResult)
}

type GuessOutcome struct {
	Result guess.Result `json:"result"`
	IsWin  bool         `json:"isWin"`
}

// ReconnectState is returned to a player who reclaimed a seat. MySecret is
// the caller's own secret; the opponent's is never included.
type ReconnectState struct {
	RoomCode       string                 `json:"roomCode"`
	Seat           int                    `json:"seat"`
	GameState      gamedata.State         `json:"gameState"`
	Players        []players.PublicPlayer `json:"players"`
	MySecret       string                 `json:"mySecret,omitempty"`
	PreviousConnID string                 `json:"-"`
}

// Summary is the listing view served over HTTP.
type Summary struct {
	Code      string         `json:"code"`
	Players   int            `json:"players"`
	Connected int            `json:"connected"`
	Phase     gamedata.Phase `json:"phase"`
	CreatedAt time.Time      `json:"createdAt"`
}

type nopNotifier struct{}

func (nopNotifier) ToRoom(string, string, any)               {}
func (nopNotifier) ToRoomExcept(string, string, string, any) {}

func newRoom(code string, cfg Config, notify events.Notifier) *Room {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &Room{
		Code:             code,
		CreatedAt:        time.Now(),
		cfg:              cfg,
		players:          players.NewStore(),
		game:             gamedata.New(),
		notify:           notify,
		disconnectTimers: make(map[int]*graceTimer),
	}
}
