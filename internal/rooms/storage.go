package rooms

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/monkichi27/number-guessing-game/internal/events"
	"github.com/monkichi27/number-guessing-game/internal/metrics"
)

const codeAttempts = 10

// Store is the process-wide room table. It never holds its own lock while
// taking the lock of a registered room.
type Store struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	cfg      Config
	notify   events.Notifier
	recorder MatchRecorder
	onChange func()
}

func NewStore(cfg Config, notify events.Notifier) *Store {
	return &Store{
		rooms:  make(map[string]*Room),
		cfg:    cfg,
		notify: notify,
	}
}

// SetRecorder attaches the archive that receives finished matches. Rooms
// created afterwards use it.
func (s *Store) SetRecorder(rec MatchRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = rec
}

// OnChange registers fn to run whenever a room is added or removed.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Create registers a new room. When hostConnID is set the host is seated
// before the room becomes visible, so a sweep can never see it empty.
func (s *Store) Create(hostConnID, nickname string) (*Room, int, error) {
	s.mu.Lock()
	var room *Room
	for range codeAttempts {
		code, err := GenerateCode()
		if err != nil {
			s.mu.Unlock()
			return nil, 0, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}
		room = newRoom(code, s.cfg, s.notify)
		room.recorder = s.recorder
		room.onEmpty = s.release
		break
	}
	if room == nil {
		s.mu.Unlock()
		return nil, 0, fmt.Errorf("failed to generate unique room code after %d attempts", codeAttempts)
	}

	seat := 0
	if hostConnID != "" {
		var err error
		if seat, err = room.Join(hostConnID, nickname); err != nil {
			s.mu.Unlock()
			return nil, 0, fmt.Errorf("seating host: %w", err)
		}
	}
	s.rooms[room.Code] = room
	n := len(s.rooms)
	onChange := s.onChange
	s.mu.Unlock()

	metrics.RoomsActive.Set(float64(n))
	log.Info().Str("room", room.Code).Str("host", hostConnID).Msg("room created")
	if onChange != nil {
		onChange()
	}
	return room, seat, nil
}

// Get looks a room up by code. Codes are matched case-insensitively.
func (s *Store) Get(code string) *Room {
	code = NormalizeCode(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[code]
}

// Delete closes the room and drops it from the table.
func (s *Store) Delete(code string) {
	code = NormalizeCode(code)
	s.mu.Lock()
	room, ok := s.rooms[code]
	s.mu.Unlock()
	if !ok {
		return
	}
	room.Close()
	s.release(room)
}

// List returns every room ordered by creation time.
func (s *Store) List() []*Room {
	s.mu.Lock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

func (s *Store) Summaries() []Summary {
	list := s.List()
	out := make([]Summary, 0, len(list))
	for _, r := range list {
		out = append(out, r.Summary())
	}
	return out
}

// release is every room's onEmpty hook. It only removes the exact room it
// was handed, so a stale callback cannot evict a newer room with the same code.
func (s *Store) release(room *Room) {
	s.mu.Lock()
	if s.rooms[room.Code] != room {
		s.mu.Unlock()
		return
	}
	delete(s.rooms, room.Code)
	n := len(s.rooms)
	onChange := s.onChange
	s.mu.Unlock()

	metrics.RoomsActive.Set(float64(n))
	log.Info().Str("room", room.Code).Msg("room removed")
	if onChange != nil {
		onChange()
	}
}

// Sweep removes idle and abandoned rooms and reports how many it removed.
func (s *Store) Sweep(now time.Time) int {
	removed := 0
	for _, room := range s.List() {
		if !room.closeIfReclaimable(now) {
			continue
		}
		s.release(room)
		removed++
	}
	if removed > 0 {
		metrics.RoomsSwept.Add(float64(removed))
		log.Info().Int("removed", removed).Msg("swept stale rooms")
	}
	return removed
}

// Run sweeps every cfg.SweepInterval until ctx is done.
func (s *Store) Run(ctx context.Context) {
	if s.cfg.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// Close shuts every room down. Used at process exit.
func (s *Store) Close() {
	for _, room := range s.List() {
		room.Close()
		s.release(room)
	}
}

// closeIfReclaimable closes the room when it is empty, or when it is past
// MaxRoomAge with nobody connected.
func (r *Room) closeIfReclaimable(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	age := now.Sub(r.CreatedAt)
	seated := r.players.Count()
	connected := r.players.ConnectedCount()

	reclaim := (age > r.cfg.EmptyRoomTTL && seated == 0) ||
		(connected == 0 && seated == 0) ||
		(age > r.cfg.MaxRoomAge && connected == 0)
	if reclaim {
		r.closeLocked()
	}
	return reclaim
}
