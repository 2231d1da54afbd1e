package events

import (
	"time"

	"github.com/monkichi27/number-guessing-game/internal/gamedata"
	"github.com/monkichi27/number-guessing-game/internal/players"
)

// Event names pushed to every connection joined to a room.
const (
	RoomState          = "roomState"
	GameStart          = "gameStart"
	TurnChange         = "turnChange"
	GameEnd            = "gameEnd"
	GameReset          = "gameReset"
	PlayerLeft         = "playerLeft"
	PlayerDisconnected = "playerDisconnected"
	ReconnectCountdown = "reconnectCountdown"
	PlayerReconnected  = "playerReconnected"
	StopCountdown      = "stopCountdown"
)

// Notifier fans room events out to connections. Delivery is best effort.
type Notifier interface {
	ToRoom(roomCode, event string, data any)
	ToRoomExcept(roomCode, exceptConnID, event string, data any)
}

type RoomStateData struct {
	RoomCode  string                 `json:"roomCode"`
	Players   []players.PublicPlayer `json:"players"`
	GameState gamedata.State         `json:"gameState"`
}

type GameStartData struct {
	CurrentPlayer int       `json:"currentPlayer"`
	StartedAt     time.Time `json:"startedAt"`
}

type TurnChangeData struct {
	CurrentPlayer int                    `json:"currentPlayer"`
	LastGuess     gamedata.GuessRecord   `json:"lastGuess"`
	History       []gamedata.GuessRecord `json:"history"`
}

type GameEndData struct {
	Winner       int                    `json:"winner"`
	WinnerName   string                 `json:"winnerName"`
	WinningGuess string                 `json:"winningGuess,omitempty"`
	History      []gamedata.GuessRecord `json:"history"`
	Reason       string                 `json:"reason,omitempty"`
}

type GameResetData struct {
	Players   []players.PublicPlayer `json:"players"`
	GameState gamedata.State         `json:"gameState"`
}

type SeatData struct {
	Seat       int    `json:"seat"`
	PlayerName string `json:"playerName,omitempty"`
}

type PlayerDisconnectedData struct {
	Seat              int    `json:"seat"`
	PlayerName        string `json:"playerName"`
	ReconnectTimeLeft int    `json:"reconnectTimeLeft"`
}

type ReconnectCountdownData struct {
	Seat     int `json:"seat"`
	TimeLeft int `json:"timeLeft"`
}
