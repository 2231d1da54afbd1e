package players

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

const MaxSeats = 2

type Store struct {
	mu      sync.Mutex
	players map[int]*Player
}

func NewStore() *Store {
	return &Store{
		players: make(map[int]*Player),
	}
}

// Add seats connID in the lowest free seat. It returns nil when both seats are taken.
func (s *Store) Add(connID, nickname string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	nickname = CleanNickname(nickname)
	for seat := 1; seat <= MaxSeats; seat++ {
		if _, taken := s.players[seat]; taken {
			continue
		}
		if nickname == "" {
			nickname = fmt.Sprintf("Player %d", seat)
		}
		now := time.Now()
		p := &Player{
			ConnID:    connID,
			Seat:      seat,
			Nickname:  nickname,
			Connected: true,
			JoinedAt:  now,
			LastSeen:  now,
		}
		s.players[seat] = p
		return p
	}
	return nil
}

func (s *Store) Get(seat int) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[seat]
}

// ByConn finds the seat currently bound to connID.
func (s *Store) ByConn(connID string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

// GetList returns players ordered by seat.
func (s *Store) GetList() []*Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	playerList := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		playerList = append(playerList, p)
	}
	sort.Slice(playerList, func(i, j int) bool { return playerList[i].Seat < playerList[j].Seat })
	return playerList
}

func (s *Store) PublicList() []PublicPlayer {
	list := s.GetList()
	out := make([]PublicPlayer, 0, len(list))
	for _, p := range list {
		out = append(out, p.Public())
	}
	return out
}

func (s *Store) SetReady(seat int, isReady bool) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[seat]; e {
		p.Ready = isReady
		return p
	}
	return nil
}

// AllReady is true only when both seats are occupied and ready.
func (s *Store) AllReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.players) < MaxSeats {
		return false
	}
	for _, player := range s.players {
		if !player.Ready {
			return false
		}
	}
	return true
}

func (s *Store) Remove(seat int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[seat]; !ok {
		return false
	}
	delete(s.players, seat)
	return true
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

func (s *Store) ConnectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// Touch refreshes LastSeen for a seat.
func (s *Store) Touch(seat int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[seat]; ok {
		p.LastSeen = at
	}
}

// MarkDisconnected puts a seat into its grace period.
func (s *Store) MarkDisconnected(seat int, at time.Time) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[seat]
	if !ok {
		return nil
	}
	p.Connected = false
	p.TempDisconnected = true
	p.LastSeen = at
	return p
}

// Rebind attaches a new connection to an existing seat.
func (s *Store) Rebind(seat int, connID string, at time.Time) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[seat]
	if !ok {
		return nil
	}
	p.ConnID = connID
	p.Connected = true
	p.TempDisconnected = false
	p.LastSeen = at
	reconnected := at
	p.ReconnectedAt = &reconnected
	return p
}

func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		p.Ready = false
	}
}
