package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/monkichi27/number-guessing-game/internal/db"
	"github.com/monkichi27/number-guessing-game/internal/gamedata"
	"github.com/monkichi27/number-guessing-game/internal/guess"
	"github.com/monkichi27/number-guessing-game/internal/rooms"
)

type award struct {
	player, badge, matchID string
}

type fakeMatchStore struct {
	mu      sync.Mutex
	matches []db.MatchRecord
	awards  []award
	failing bool
}

func (f *fakeMatchStore) BatchRecordMatches(ms []db.MatchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("db down")
	}
	for i := range ms {
		ms[i].ID = "m-" + ms[i].RoomCode
		f.matches = append(f.matches, ms[i])
	}
	return nil
}

func (f *fakeMatchStore) AwardBadge(player, badge string, matchID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awards = append(f.awards, award{player, badge, *matchID})
	return nil
}

func (f *fakeMatchStore) snapshot() ([]db.MatchRecord, []award) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]db.MatchRecord(nil), f.matches...), append([]award(nil), f.awards...)
}

func solvedResult(code string) rooms.MatchResult {
	now := time.Now()
	return rooms.MatchResult{
		RoomCode:     code,
		Winner:       2,
		WinnerName:   "Bob",
		LoserName:    "Alice",
		WinningGuess: "1234",
		Reason:       gamedata.ReasonSolved,
		StartedAt:    now.Add(-time.Minute),
		EndedAt:      now,
		History: []gamedata.GuessRecord{
			{Seat: 1, PlayerName: "Alice", Guess: "5670", Result: guess.Result{CorrectPosition: 3, CorrectNumber: 3}, Timestamp: now},
			{Seat: 2, PlayerName: "Bob", Guess: "1234", Result: guess.Result{CorrectPosition: 4, CorrectNumber: 4}, IsWin: true, Timestamp: now},
		},
	}
}

func TestMatchRecord(t *testing.T) {
	m := matchRecord(solvedResult("ABC123"))

	if m.RoomCode != "ABC123" || m.WinnerSeat != 2 || m.EndReason != gamedata.ReasonSolved {
		t.Errorf("record = %+v", m)
	}
	if m.StartedAt == nil {
		t.Error("StartedAt should be set")
	}
	if len(m.Guesses) != 2 {
		t.Fatalf("got %d guesses, want 2", len(m.Guesses))
	}
	if m.Guesses[0].Turn != 1 || m.Guesses[1].Turn != 2 {
		t.Errorf("turns = %d,%d, want 1,2", m.Guesses[0].Turn, m.Guesses[1].Turn)
	}
	if m.Guesses[1].CorrectPosition != 4 {
		t.Errorf("winning guess bulls = %d, want 4", m.Guesses[1].CorrectPosition)
	}
}

func TestArchive_FlushesOnTick(t *testing.T) {
	store := &fakeMatchStore{}
	a := NewArchive(store, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	a.RecordMatch(solvedResult("ABC123"))

	deadline := time.Now().Add(2 * time.Second)
	for {
		matches, awards := store.snapshot()
		if len(matches) == 1 && len(awards) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("match not archived: %d matches, %d awards", len(matches), len(awards))
		}
		time.Sleep(10 * time.Millisecond)
	}

	_, awards := store.snapshot()
	var bobFirstTry, aliceSoClose bool
	for _, aw := range awards {
		if aw.matchID != "m-ABC123" {
			t.Errorf("award %+v linked to wrong match", aw)
		}
		if aw.player == "Bob" && aw.badge == "first_try" {
			bobFirstTry = true
		}
		if aw.player == "Alice" && aw.badge == "so_close" {
			aliceSoClose = true
		}
	}
	if !bobFirstTry || !aliceSoClose {
		t.Errorf("awards = %+v", awards)
	}
}

func TestArchive_FlushesOnShutdown(t *testing.T) {
	store := &fakeMatchStore{}
	a := NewArchive(store, 10)
	a.RecordMatch(solvedResult("AAA111"))
	a.RecordMatch(solvedResult("BBB222"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if matches, _ := store.snapshot(); len(matches) != 2 {
		t.Errorf("got %d archived matches, want 2", len(matches))
	}
}

func TestArchive_RecordMatchDropsWhenFull(t *testing.T) {
	a := NewArchive(&fakeMatchStore{}, 1)

	done := make(chan struct{})
	go func() {
		a.RecordMatch(solvedResult("AAA111"))
		a.RecordMatch(solvedResult("BBB222"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RecordMatch blocked on a full buffer")
	}
	if len(a.buffer) != 1 {
		t.Errorf("buffer holds %d, want 1", len(a.buffer))
	}
}

func TestArchive_StoreErrorSkipsBadges(t *testing.T) {
	store := &fakeMatchStore{failing: true}
	a := NewArchive(store, 1)

	a.flush([]db.MatchRecord{matchRecord(solvedResult("ABC123"))})

	if _, awards := store.snapshot(); len(awards) != 0 {
		t.Errorf("got %d awards after a failed write, want 0", len(awards))
	}
}
