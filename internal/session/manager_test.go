package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/monkichi27/number-guessing-game/internal/gamedata"
	"github.com/monkichi27/number-guessing-game/internal/rooms"
)

type fakeGroups struct {
	mu      sync.Mutex
	members map[string]string
}

func (g *fakeGroups) JoinRoom(connID, roomCode string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[connID] = roomCode
}

func (g *fakeGroups) LeaveRoom(connID, roomCode string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.members[connID] == roomCode {
		delete(g.members, connID)
	}
}

func (g *fakeGroups) of(connID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.members[connID]
}

func newTestManager() (*Manager, *rooms.Store, *fakeGroups) {
	cfg := rooms.DefaultConfig()
	cfg.StartDelay = 5 * time.Millisecond
	cfg.GracePeriod = 80 * time.Millisecond
	cfg.CountdownInterval = 20 * time.Millisecond
	store := rooms.NewStore(cfg, nil)
	groups := &fakeGroups{members: make(map[string]string)}
	return NewManager(store, groups), store, groups
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestCreateAndJoin(t *testing.T) {
	m, _, groups := newTestManager()

	created, err := m.CreateRoom("a", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if created.Seat != 1 || created.RoomCode == "" {
		t.Errorf("created = %+v", created)
	}
	joined, err := m.JoinRoom("b", created.RoomCode, "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if joined.Seat != 2 || joined.RoomCode != created.RoomCode {
		t.Errorf("joined = %+v", joined)
	}
	if groups.of("a") != created.RoomCode || groups.of("b") != created.RoomCode {
		t.Error("both connections should be in the room group")
	}
	if m.RoomOf("b") != created.RoomCode {
		t.Errorf("RoomOf(b) = %q", m.RoomOf("b"))
	}

	again, err := m.JoinRoom("b", created.RoomCode, "Bob")
	if err != nil || again.Seat != 2 {
		t.Errorf("repeat join = (%+v, %v), want seat 2", again, err)
	}
	if _, err := m.JoinRoom("c", created.RoomCode, ""); !errors.Is(err, rooms.ErrRoomFull) {
		t.Errorf("third join: err = %v, want ErrRoomFull", err)
	}
	if _, err := m.JoinRoom("c", "NOPE22", ""); !errors.Is(err, rooms.ErrRoomNotFound) {
		t.Errorf("unknown room: err = %v, want ErrRoomNotFound", err)
	}
}

func TestJoinElsewhereLeavesOldRoom(t *testing.T) {
	m, store, groups := newTestManager()
	first, _ := m.CreateRoom("a", "")
	host, _ := m.CreateRoom("h", "")

	if _, err := m.JoinRoom("a", host.RoomCode, ""); err != nil {
		t.Fatal(err)
	}
	if store.Get(first.RoomCode) != nil {
		t.Error("abandoned room should be destroyed")
	}
	if groups.of("a") != host.RoomCode {
		t.Errorf("group = %q, want %q", groups.of("a"), host.RoomCode)
	}
}

func TestActionsWithoutRoom(t *testing.T) {
	m, _, _ := newTestManager()

	if _, err := m.SubmitSecret("x", "1234"); !errors.Is(err, rooms.ErrNotInRoom) {
		t.Errorf("SubmitSecret: err = %v, want ErrNotInRoom", err)
	}
	if _, err := m.MakeGuess("x", "1234"); !errors.Is(err, rooms.ErrNotInRoom) {
		t.Errorf("MakeGuess: err = %v, want ErrNotInRoom", err)
	}
	if err := m.Reset("x"); !errors.Is(err, rooms.ErrNotInRoom) {
		t.Errorf("Reset: err = %v, want ErrNotInRoom", err)
	}
	if err := m.Leave("x"); !errors.Is(err, rooms.ErrNotInRoom) {
		t.Errorf("Leave: err = %v, want ErrNotInRoom", err)
	}
	m.Ping("x")
	m.Disconnect("x")
}

func TestFullMatchThroughManager(t *testing.T) {
	m, store, _ := newTestManager()
	created, _ := m.CreateRoom("a", "Alice")
	m.JoinRoom("b", created.RoomCode, "Bob")
	m.SubmitSecret("a", "1234")
	m.SubmitSecret("b", "5678")

	room := store.Get(created.RoomCode)
	waitFor(t, "match start", func() bool { return room.Summary().Phase == gamedata.PhaseInProgress })

	out, err := m.MakeGuess("a", "5678")
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsWin {
		t.Error("exact guess should win")
	}
	if err := m.Reset("b"); err != nil {
		t.Fatal(err)
	}
	if room.Summary().Phase != gamedata.PhaseLobby {
		t.Error("reset should return the room to the lobby")
	}
}

func TestDisconnectAndReconnect(t *testing.T) {
	m, store, groups := newTestManager()
	created, _ := m.CreateRoom("a", "Alice")
	m.JoinRoom("b", created.RoomCode, "Bob")
	m.SubmitSecret("b", "5678")

	m.Disconnect("b")
	if m.RoomOf("b") != "" {
		t.Error("lost connection should be unbound")
	}

	state, err := m.Reconnect("b2", created.RoomCode, 2)
	if err != nil {
		t.Fatal(err)
	}
	if state.MySecret != "5678" || state.Seat != 2 {
		t.Errorf("state = %+v", state)
	}
	if m.RoomOf("b2") != created.RoomCode || groups.of("b2") != created.RoomCode {
		t.Error("new connection should be bound to the room")
	}

	time.Sleep(120 * time.Millisecond)
	if store.Get(created.RoomCode).Summary().Players != 2 {
		t.Error("reconnected seat must not expire")
	}
}

func TestReconnectCannotTakeLiveSeat(t *testing.T) {
	m, store, groups := newTestManager()
	created, _ := m.CreateRoom("a", "Alice")
	m.JoinRoom("b", created.RoomCode, "Bob")
	m.SubmitSecret("a", "1234")
	m.SubmitSecret("b", "5678")
	room := store.Get(created.RoomCode)
	waitFor(t, "match start", func() bool { return room.Summary().Phase == gamedata.PhaseInProgress })

	state, err := m.Reconnect("b-spare", created.RoomCode, 1)
	if !errors.Is(err, rooms.ErrSeatConnected) {
		t.Fatalf("err = %v, want ErrSeatConnected", err)
	}
	if state.MySecret != "" {
		t.Errorf("opponent secret leaked: %q", state.MySecret)
	}
	if room.SeatOf("a") != 1 || m.RoomOf("a") != created.RoomCode {
		t.Error("seat 1 must stay with its live connection")
	}
	if m.RoomOf("b-spare") != "" || groups.of("b-spare") != "" {
		t.Error("refused connection must not be bound to the room")
	}
	if _, err := m.MakeGuess("a", "5670"); err != nil {
		t.Errorf("seat 1 should still play: %v", err)
	}
}

func TestReconnectErrors(t *testing.T) {
	m, _, _ := newTestManager()
	created, _ := m.CreateRoom("a", "Alice")
	m.JoinRoom("b", created.RoomCode, "Bob")

	if _, err := m.Reconnect("z", "ZZZZZZ", 1); !errors.Is(err, rooms.ErrRoomNotFound) {
		t.Errorf("unknown room: err = %v, want ErrRoomNotFound", err)
	}
	if _, err := m.Reconnect("a", created.RoomCode, 2); !errors.Is(err, rooms.ErrAlreadySeated) {
		t.Errorf("other seat: err = %v, want ErrAlreadySeated", err)
	}
	if _, err := m.Reconnect("z", created.RoomCode, 0); !errors.Is(err, rooms.ErrSeatNotFound) {
		t.Errorf("seat 0: err = %v, want ErrSeatNotFound", err)
	}
	if _, err := m.Reconnect("z", created.RoomCode, 1); !errors.Is(err, rooms.ErrSeatConnected) {
		t.Errorf("live seat: err = %v, want ErrSeatConnected", err)
	}
}

func TestExpiredSeatForfeits(t *testing.T) {
	m, store, _ := newTestManager()
	created, _ := m.CreateRoom("a", "Alice")
	m.JoinRoom("b", created.RoomCode, "Bob")
	m.SubmitSecret("a", "1234")
	m.SubmitSecret("b", "5678")
	room := store.Get(created.RoomCode)
	waitFor(t, "match start", func() bool { return room.Summary().Phase == gamedata.PhaseInProgress })

	m.Disconnect("b")
	waitFor(t, "forfeit", func() bool { return room.Summary().Phase == gamedata.PhaseFinished })

	if winner := room.State().GameState.Winner; winner != 1 {
		t.Errorf("winner = %d, want 1", winner)
	}
	if _, err := m.Reconnect("b2", created.RoomCode, 2); !errors.Is(err, rooms.ErrSeatNotFound) {
		t.Errorf("late reconnect: err = %v, want ErrSeatNotFound", err)
	}
}
