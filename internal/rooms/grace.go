package rooms

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/monkichi27/number-guessing-game/internal/events"
	"github.com/monkichi27/number-guessing-game/internal/gamedata"
	"github.com/monkichi27/number-guessing-game/internal/metrics"
	"github.com/monkichi27/number-guessing-game/internal/players"
)

// Disconnect starts the reconnect window for the seat bound to connID. It
// reports false when connID no longer owns a seat here, which happens when
// a newer connection already reclaimed it.
func (r *Room) Disconnect(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.players.ByConn(connID)
	if r.closed || p == nil || p.TempDisconnected {
		return false
	}
	r.players.MarkDisconnected(p.Seat, time.Now())
	log.Info().Str("room", r.Code).Int("seat", p.Seat).Str("conn", connID).Msg("player disconnected, holding seat")
	r.startGraceLocked(p)
	return true
}

func (r *Room) startGraceLocked(p *players.Player) {
	r.cancelGraceLocked(p.Seat)

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.GracePeriod)
	deadline, _ := ctx.Deadline()
	gt := &graceTimer{ctx: ctx, cancel: cancel, deadline: deadline}
	r.disconnectTimers[p.Seat] = gt

	r.notify.ToRoom(r.Code, events.PlayerDisconnected, events.PlayerDisconnectedData{
		Seat:              p.Seat,
		PlayerName:        p.Nickname,
		ReconnectTimeLeft: r.cfg.graceTicks(),
	})
	go r.runGrace(p.Seat, gt)
}

// cancelGraceLocked is the only way a grace timer is stopped.
func (r *Room) cancelGraceLocked(seat int) {
	if gt, ok := r.disconnectTimers[seat]; ok {
		gt.cancel()
		delete(r.disconnectTimers, seat)
	}
}

func (r *Room) runGrace(seat int, gt *graceTimer) {
	var tick <-chan time.Time
	if r.cfg.CountdownInterval > 0 {
		ticker := time.NewTicker(r.cfg.CountdownInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-tick:
			if !r.countdown(seat, gt) {
				return
			}
		case <-gt.ctx.Done():
			if errors.Is(gt.ctx.Err(), context.DeadlineExceeded) {
				r.expire(seat, gt)
			}
			return
		}
	}
}

// countdown broadcasts the remaining window. It reports false once gt is
// no longer the seat's live timer.
func (r *Room) countdown(seat int, gt *graceTimer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.disconnectTimers[seat] != gt {
		return false
	}
	interval := r.cfg.CountdownInterval
	left := int((time.Until(gt.deadline) + interval/2) / interval)
	if left <= 0 {
		return true
	}
	r.notify.ToRoom(r.Code, events.ReconnectCountdown, events.ReconnectCountdownData{
		Seat:     seat,
		TimeLeft: left,
	})
	return true
}

// expire releases a seat whose window ran out. A reconnect that won the
// lock first has already removed gt from the table, so this is a no-op.
func (r *Room) expire(seat int, gt *graceTimer) {
	r.mu.Lock()
	if r.closed || r.disconnectTimers[seat] != gt {
		r.mu.Unlock()
		return
	}
	delete(r.disconnectTimers, seat)
	p := r.players.Get(seat)
	if p == nil || !p.TempDisconnected {
		r.mu.Unlock()
		return
	}

	r.removeSeatLocked(seat)
	metrics.GraceExpiries.Inc()
	log.Info().Str("room", r.Code).Int("seat", seat).Msg("reconnect window expired, seat released")

	empty := r.players.Count() == 0
	switch {
	case empty:
		r.closeLocked()
	case r.game.Phase() == gamedata.PhaseInProgress && r.players.ConnectedCount() == 1:
		r.forfeitLocked(gamedata.Opponent(seat))
	default:
		r.afterSeatRemovedLocked(seat)
	}
	r.mu.Unlock()

	if empty {
		r.destroy()
	}
}

func (r *Room) forfeitLocked(winner int) {
	w := r.players.Get(winner)
	if w == nil {
		return
	}
	r.game.Forfeit(winner, gamedata.ReasonOpponentTimeout, time.Now())
	log.Info().Str("room", r.Code).Int("winner", winner).Msg("match won by forfeit")
	r.notify.ToRoom(r.Code, events.GameEnd, events.GameEndData{
		Winner:     winner,
		WinnerName: w.Nickname,
		History:    r.game.Snapshot().History,
		Reason:     gamedata.ReasonOpponentTimeout,
	})
	r.emitStateLocked()
	r.recordFinishLocked()
}

// Reconnect binds connID to a seat inside its reconnect window, stops the
// window and returns the state the player needs to resume. A seat whose
// connection is still live cannot be claimed.
func (r *Room) Reconnect(seat int, connID string) (ReconnectState, error) {
	if seat < 1 || seat > players.MaxSeats {
		return ReconnectState{}, ErrSeatNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ReconnectState{}, ErrRoomNotFound
	}
	p := r.players.Get(seat)
	if p == nil {
		return ReconnectState{}, ErrSeatNotFound
	}
	if !p.TempDisconnected {
		log.Warn().Str("room", r.Code).Int("seat", seat).Str("conn", connID).Msg("reconnect refused, seat still connected")
		return ReconnectState{}, ErrSeatConnected
	}
	previous := p.ConnID

	r.cancelGraceLocked(seat)
	r.players.Rebind(seat, connID, time.Now())
	metrics.Reconnects.Inc()
	log.Info().Str("room", r.Code).Int("seat", seat).Str("conn", connID).Msg("seat reconnected")

	r.notify.ToRoomExcept(r.Code, connID, events.PlayerReconnected, events.SeatData{Seat: seat, PlayerName: p.Nickname})
	r.notify.ToRoomExcept(r.Code, connID, events.StopCountdown, events.SeatData{Seat: seat})
	r.notify.ToRoomExcept(r.Code, connID, events.RoomState, r.stateLocked())

	state := ReconnectState{
		RoomCode:  r.Code,
		Seat:      seat,
		GameState: r.game.Snapshot(),
		Players:   r.players.PublicList(),
		MySecret:  r.game.Secrets[seat],
	}
	if previous != connID {
		state.PreviousConnID = previous
	}
	return state, nil
}
