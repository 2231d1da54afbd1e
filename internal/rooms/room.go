package rooms

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/monkichi27/number-guessing-game/internal/events"
	"github.com/monkichi27/number-guessing-game/internal/gamedata"
	"github.com/monkichi27/number-guessing-game/internal/guess"
	"github.com/monkichi27/number-guessing-game/internal/metrics"
	"github.com/monkichi27/number-guessing-game/internal/players"
)

// Join seats connID in the lowest free seat. Joining twice returns the
// seat already held.
func (r *Room) Join(connID, nickname string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrRoomNotFound
	}
	if p := r.players.ByConn(connID); p != nil {
		return p.Seat, nil
	}
	if r.players.Count() >= players.MaxSeats {
		return 0, ErrRoomFull
	}
	if r.game.Started {
		return 0, ErrGameAlreadyStarted
	}
	p := r.players.Add(connID, nickname)
	if p == nil {
		return 0, ErrRoomFull
	}
	log.Info().Str("room", r.Code).Int("seat", p.Seat).Str("conn", connID).Msg("player joined")
	return p.Seat, nil
}

// Announce sends the current room snapshot to everyone in the room.
func (r *Room) Announce() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.emitStateLocked()
}

// SubmitSecret records the caller's secret and marks them ready. When both
// seats are ready the match starts after cfg.StartDelay.
func (r *Room) SubmitSecret(connID, secret string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.players.ByConn(connID)
	if r.closed || p == nil {
		return "", ErrNotInRoom
	}
	if !guess.Valid(secret) {
		return "", ErrInvalidSecret
	}
	if p.Ready {
		return "Secret already submitted", nil
	}
	if r.game.Started {
		return "", ErrGameAlreadyStarted
	}

	r.game.Secrets[p.Seat] = secret
	r.players.SetReady(p.Seat, true)
	r.emitStateLocked()
	log.Info().Str("room", r.Code).Int("seat", p.Seat).Msg("secret submitted")

	if r.players.AllReady() {
		r.scheduleStartLocked()
		return "Both players ready! Starting game...", nil
	}
	return "Secret accepted. Waiting for opponent...", nil
}

func (r *Room) scheduleStartLocked() {
	r.cancelStartLocked()
	r.startGen++
	gen := r.startGen
	r.startTimer = time.AfterFunc(r.cfg.StartDelay, func() { r.startMatch(gen) })
}

func (r *Room) cancelStartLocked() {
	if r.startTimer != nil {
		r.startTimer.Stop()
		r.startTimer = nil
	}
	r.startGen++
}

func (r *Room) startMatch(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || gen != r.startGen || r.game.Started || !r.players.AllReady() {
		return
	}
	r.startTimer = nil
	now := time.Now()
	r.game.Start(now)
	log.Info().Str("room", r.Code).Msg("match started")
	r.notify.ToRoom(r.Code, events.GameStart, events.GameStartData{
		CurrentPlayer: r.game.CurrentPlayer,
		StartedAt:     now,
	})
}

// MakeGuess scores the caller's guess against the opponent's secret.
func (r *Room) MakeGuess(connID, code string) (GuessOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.players.ByConn(connID)
	if r.closed || p == nil {
		return GuessOutcome{}, ErrNotInRoom
	}
	switch r.game.Phase() {
	case gamedata.PhaseLobby:
		return GuessOutcome{}, ErrGameNotStarted
	case gamedata.PhaseFinished:
		return GuessOutcome{}, ErrGameOver
	}
	if p.Seat != r.game.CurrentPlayer {
		return GuessOutcome{}, ErrNotYourTurn
	}
	if !guess.Valid(code) {
		return GuessOutcome{}, ErrInvalidGuess
	}
	secret, ok := r.game.Secrets[gamedata.Opponent(p.Seat)]
	if !ok {
		return GuessOutcome{}, ErrNoOpponentSecret
	}

	res := guess.Check(code, secret)
	rec := gamedata.GuessRecord{
		Seat:       p.Seat,
		PlayerName: p.Nickname,
		Guess:      code,
		Result:     res,
		IsWin:      res.IsWin(),
		Timestamp:  time.Now(),
	}
	r.game.Record(rec)
	r.players.Touch(p.Seat, rec.Timestamp)
	metrics.Guesses.Inc()

	history := r.game.Snapshot().History
	if rec.IsWin {
		log.Info().Str("room", r.Code).Int("winner", p.Seat).Int("guesses", len(history)).Msg("match solved")
		r.notify.ToRoom(r.Code, events.GameEnd, events.GameEndData{
			Winner:       p.Seat,
			WinnerName:   p.Nickname,
			WinningGuess: code,
			History:      history,
		})
		r.recordFinishLocked()
	} else {
		r.notify.ToRoom(r.Code, events.TurnChange, events.TurnChangeData{
			CurrentPlayer: r.game.CurrentPlayer,
			LastGuess:     rec,
			History:       history,
		})
	}
	return GuessOutcome{Result: res, IsWin: rec.IsWin}, nil
}

// Reset returns the room to the lobby. Seats that are still inside their
// reconnect window get a fresh one, so a reset never pins a dead seat.
func (r *Room) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	r.cancelStartLocked()
	var pending []int
	for seat := range r.disconnectTimers {
		r.cancelGraceLocked(seat)
		pending = append(pending, seat)
	}
	r.game.Reset()
	r.players.ResetAll()
	log.Info().Str("room", r.Code).Msg("game reset")

	r.notify.ToRoom(r.Code, events.GameReset, events.GameResetData{
		Players:   r.players.PublicList(),
		GameState: r.game.Snapshot(),
	})
	for _, seat := range pending {
		if p := r.players.Get(seat); p != nil && p.TempDisconnected {
			r.startGraceLocked(p)
		}
	}
}

// Leave frees the caller's seat. An empty room is destroyed; a lobby is
// reset. Leaving mid-match does not hand the opponent a win.
func (r *Room) Leave(connID string) error {
	r.mu.Lock()
	p := r.players.ByConn(connID)
	if r.closed || p == nil {
		r.mu.Unlock()
		return ErrNotInRoom
	}
	seat := p.Seat
	r.removeSeatLocked(seat)
	log.Info().Str("room", r.Code).Int("seat", seat).Msg("player left")

	empty := r.players.Count() == 0
	if empty {
		r.closeLocked()
	} else {
		r.afterSeatRemovedLocked(seat)
	}
	r.mu.Unlock()

	if empty {
		r.destroy()
	}
	return nil
}

// Ping refreshes the caller's lastSeen.
func (r *Room) Ping(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.players.ByConn(connID); p != nil {
		r.players.Touch(p.Seat, time.Now())
	}
}

// SeatOf returns the seat bound to connID, or 0.
func (r *Room) SeatOf(connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.players.ByConn(connID); p != nil {
		return p.Seat
	}
	return 0
}

// State is the public room snapshot.
func (r *Room) State() events.RoomStateData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		Code:      r.Code,
		Players:   r.players.Count(),
		Connected: r.players.ConnectedCount(),
		Phase:     r.game.Phase(),
		CreatedAt: r.CreatedAt,
	}
}

// Close cancels every timer the room owns. Late callbacks become no-ops.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *Room) closeLocked() {
	r.closed = true
	r.cancelStartLocked()
	for seat := range r.disconnectTimers {
		r.cancelGraceLocked(seat)
	}
}

// destroy must be called without r.mu held.
func (r *Room) destroy() {
	log.Info().Str("room", r.Code).Msg("room empty, destroying")
	if r.onEmpty != nil {
		r.onEmpty(r)
	}
}

func (r *Room) removeSeatLocked(seat int) {
	r.cancelGraceLocked(seat)
	r.players.Remove(seat)
	delete(r.game.Secrets, seat)
}

// afterSeatRemovedLocked settles the room once a seat is gone and at least
// one seat remains.
func (r *Room) afterSeatRemovedLocked(seat int) {
	if r.game.Phase() == gamedata.PhaseLobby {
		r.cancelStartLocked()
		r.game.Reset()
		r.players.ResetAll()
	}
	r.notify.ToRoom(r.Code, events.PlayerLeft, events.SeatData{Seat: seat})
	r.emitStateLocked()
}

func (r *Room) stateLocked() events.RoomStateData {
	return events.RoomStateData{
		RoomCode:  r.Code,
		Players:   r.players.PublicList(),
		GameState: r.game.Snapshot(),
	}
}

func (r *Room) emitStateLocked() {
	r.notify.ToRoom(r.Code, events.RoomState, r.stateLocked())
}

func (r *Room) recordFinishLocked() {
	reason := r.game.EndReason
	metrics.MatchesFinished.WithLabelValues(reason).Inc()
	if r.recorder == nil {
		return
	}
	res := MatchResult{
		RoomCode:     r.Code,
		Winner:       r.game.Winner,
		WinningGuess: r.game.WinningGuess,
		Reason:       reason,
		History:      r.game.Snapshot().History,
	}
	if w := r.players.Get(r.game.Winner); w != nil {
		res.WinnerName = w.Nickname
	}
	if l := r.players.Get(gamedata.Opponent(r.game.Winner)); l != nil {
		res.LoserName = l.Nickname
	} else {
		for i := len(res.History) - 1; i >= 0; i-- {
			if res.History[i].Seat != r.game.Winner {
				res.LoserName = res.History[i].PlayerName
				break
			}
		}
	}
	if r.game.StartedAt != nil {
		res.StartedAt = *r.game.StartedAt
	}
	if r.game.EndedAt != nil {
		res.EndedAt = *r.game.EndedAt
	}
	r.recorder.RecordMatch(res)
}
