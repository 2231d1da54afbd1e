// Package session binds transient connection IDs to the room they are
// playing in and forwards player actions to that room.
package session

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/monkichi27/number-guessing-game/internal/rooms"
)

// Groups is the transport side of a binding: which connections receive a
// room's events.
type Groups interface {
	JoinRoom(connID, roomCode string)
	LeaveRoom(connID, roomCode string)
}

type Manager struct {
	rooms  *rooms.Store
	groups Groups

	mu       sync.Mutex
	bindings map[string]string
}

func NewManager(store *rooms.Store, groups Groups) *Manager {
	return &Manager{
		rooms:    store,
		groups:   groups,
		bindings: make(map[string]string),
	}
}

type JoinResult struct {
	RoomCode string `json:"roomCode"`
	Seat     int    `json:"seat"`
}

// RoomOf returns the code connID is bound to, or "".
func (m *Manager) RoomOf(connID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindings[connID]
}

func (m *Manager) bind(connID, code string) {
	m.mu.Lock()
	m.bindings[connID] = code
	m.mu.Unlock()
	m.groups.JoinRoom(connID, code)
}

// unbind drops connID's binding only if it still points at code.
func (m *Manager) unbind(connID, code string) {
	m.mu.Lock()
	if m.bindings[connID] == code {
		delete(m.bindings, connID)
	}
	m.mu.Unlock()
	m.groups.LeaveRoom(connID, code)
}

func (m *Manager) current(connID string) (*rooms.Room, error) {
	code := m.RoomOf(connID)
	if code == "" {
		return nil, rooms.ErrNotInRoom
	}
	room := m.rooms.Get(code)
	if room == nil {
		m.unbind(connID, code)
		return nil, rooms.ErrNotInRoom
	}
	return room, nil
}

// leaveCurrent releases whatever seat connID holds before it moves to
// another room.
func (m *Manager) leaveCurrent(connID string) {
	code := m.RoomOf(connID)
	if code == "" {
		return
	}
	if room := m.rooms.Get(code); room != nil {
		if err := room.Leave(connID); err == nil {
			log.Debug().Str("conn", connID).Str("room", code).Msg("left previous room")
		}
	}
	m.unbind(connID, code)
}

func (m *Manager) CreateRoom(connID, nickname string) (JoinResult, error) {
	m.leaveCurrent(connID)

	room, seat, err := m.rooms.Create(connID, nickname)
	if err != nil {
		return JoinResult{}, fmt.Errorf("creating room: %w", err)
	}
	m.bind(connID, room.Code)
	room.Announce()
	return JoinResult{RoomCode: room.Code, Seat: seat}, nil
}

func (m *Manager) JoinRoom(connID, code, nickname string) (JoinResult, error) {
	code = rooms.NormalizeCode(code)
	room := m.rooms.Get(code)
	if room == nil {
		return JoinResult{}, rooms.ErrRoomNotFound
	}
	if m.RoomOf(connID) == code {
		if seat := room.SeatOf(connID); seat != 0 {
			return JoinResult{RoomCode: code, Seat: seat}, nil
		}
	} else {
		m.leaveCurrent(connID)
	}

	seat, err := room.Join(connID, nickname)
	if err != nil {
		return JoinResult{}, err
	}
	m.bind(connID, code)
	room.Announce()
	return JoinResult{RoomCode: code, Seat: seat}, nil
}

// Reconnect reclaims a seat that is inside its reconnect window. The lost
// connection that held it loses any binding it still has.
func (m *Manager) Reconnect(connID, code string, seat int) (rooms.ReconnectState, error) {
	code = rooms.NormalizeCode(code)
	room := m.rooms.Get(code)
	if room == nil {
		return rooms.ReconnectState{}, rooms.ErrRoomNotFound
	}
	if m.RoomOf(connID) == code {
		if held := room.SeatOf(connID); held != 0 && held != seat {
			return rooms.ReconnectState{}, rooms.ErrAlreadySeated
		}
	}

	state, err := room.Reconnect(seat, connID)
	if err != nil {
		return rooms.ReconnectState{}, err
	}
	if current := m.RoomOf(connID); current != "" && current != code {
		m.leaveCurrent(connID)
	}
	m.bind(connID, code)
	if state.PreviousConnID != "" {
		m.unbind(state.PreviousConnID, code)
	}
	return state, nil
}

func (m *Manager) SubmitSecret(connID, secret string) (string, error) {
	room, err := m.current(connID)
	if err != nil {
		return "", err
	}
	return room.SubmitSecret(connID, secret)
}

func (m *Manager) MakeGuess(connID, guess string) (rooms.GuessOutcome, error) {
	room, err := m.current(connID)
	if err != nil {
		return rooms.GuessOutcome{}, err
	}
	return room.MakeGuess(connID, guess)
}

func (m *Manager) Reset(connID string) error {
	room, err := m.current(connID)
	if err != nil {
		return err
	}
	if room.SeatOf(connID) == 0 {
		return rooms.ErrNotInRoom
	}
	room.Reset()
	return nil
}

func (m *Manager) Leave(connID string) error {
	room, err := m.current(connID)
	if err != nil {
		return err
	}
	err = room.Leave(connID)
	m.unbind(connID, room.Code)
	return err
}

func (m *Manager) Ping(connID string) {
	if room, err := m.current(connID); err == nil {
		room.Ping(connID)
	}
}

// Disconnect is called once the transport has lost connID. The seat, if
// any, enters its reconnect window.
func (m *Manager) Disconnect(connID string) {
	code := m.RoomOf(connID)
	if code == "" {
		return
	}
	if room := m.rooms.Get(code); room != nil {
		room.Disconnect(connID)
	}
	m.unbind(connID, code)
}
