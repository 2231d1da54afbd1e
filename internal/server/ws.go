package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/monkichi27/number-guessing-game/internal/rooms"
	"github.com/monkichi27/number-guessing-game/internal/session"
	"github.com/monkichi27/number-guessing-game/internal/wshub"
)

const sendBuffer = 64

var (
	errMalformed     = &rooms.Error{Kind: rooms.KindValidation, Message: "Malformed request"}
	errUnknownAction = &rooms.Error{Kind: rooms.KindValidation, Message: "Unknown action"}
	errPanic         = errors.New("action panicked")
)

type ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type joinAck struct {
	Success bool `json:"success"`
	session.JoinResult
}

type reconnectAck struct {
	Success bool `json:"success"`
	rooms.ReconnectState
}

type guessAck struct {
	Success bool `json:"success"`
	rooms.GuessOutcome
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}

	connID := uuid.NewString()
	client := &wshub.Client{ConnID: connID, Conn: conn, Send: make(chan []byte, sendBuffer)}
	s.Hub.Register(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go client.WritePump(ctx)
	log.Info().Str("conn", connID).Str("remote", r.RemoteAddr).Msg("connection opened")

	defer func() {
		s.Sessions.Disconnect(connID)
		s.Hub.Unregister(connID)
		s.publishRooms()
		conn.Close(websocket.StatusNormalClosure, "")
		log.Info().Str("conn", connID).Msg("connection closed")
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug().Err(err).Str("conn", connID).Msg("read failed")
			}
			return
		}
		var msg wshub.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Hub.Send(connID, wshub.ServerMessage{Type: "error", Data: s.fail(connID, "", errMalformed)})
			continue
		}
		s.Hub.Send(connID, wshub.ServerMessage{Type: "ack", ID: msg.ID, Data: s.dispatch(connID, msg)})
	}
}

// dispatch runs one player action. Every error, including a panic, becomes
// a failed ack; the connection stays open.
func (s *Server) dispatch(connID string, msg wshub.ClientMessage) (resp any) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("conn", connID).Str("type", msg.Type).
				Bytes("stack", debug.Stack()).Msg("action panicked")
			resp = s.fail(connID, msg.Type, errPanic)
		}
	}()

	switch msg.Type {
	case "createRoom":
		var in struct {
			Nickname string `json:"nickname"`
		}
		if err := decode(msg.Data, &in); err != nil {
			return s.fail(connID, msg.Type, err)
		}
		res, err := s.Sessions.CreateRoom(connID, in.Nickname)
		if err != nil {
			return s.fail(connID, msg.Type, err)
		}
		s.publishRooms()
		return joinAck{Success: true, JoinResult: res}

	case "joinRoom":
		var in struct {
			RoomCode string `json:"roomCode"`
			Nickname string `json:"nickname"`
		}
		if err := decode(msg.Data, &in); err != nil {
			return s.fail(connID, msg.Type, err)
		}
		res, err := s.Sessions.JoinRoom(connID, in.RoomCode, in.Nickname)
		if err != nil {
			return s.fail(connID, msg.Type, err)
		}
		s.publishRooms()
		return joinAck{Success: true, JoinResult: res}

	case "attemptReconnect":
		var in struct {
			RoomCode string `json:"roomCode"`
			Seat     int    `json:"seat"`
		}
		if err := decode(msg.Data, &in); err != nil {
			return s.fail(connID, msg.Type, err)
		}
		state, err := s.Sessions.Reconnect(connID, in.RoomCode, in.Seat)
		if err != nil {
			return s.fail(connID, msg.Type, err)
		}
		s.publishRooms()
		return reconnectAck{Success: true, ReconnectState: state}

	case "submitSecret":
		var in struct {
			Secret string `json:"secret"`
		}
		if err := decode(msg.Data, &in); err != nil {
			return s.fail(connID, msg.Type, err)
		}
		text, err := s.Sessions.SubmitSecret(connID, in.Secret)
		if err != nil {
			return s.fail(connID, msg.Type, err)
		}
		return ack{Success: true, Message: text}

	case "makeGuess":
		var in struct {
			Guess string `json:"guess"`
		}
		if err := decode(msg.Data, &in); err != nil {
			return s.fail(connID, msg.Type, err)
		}
		out, err := s.Sessions.MakeGuess(connID, in.Guess)
		if err != nil {
			return s.fail(connID, msg.Type, err)
		}
		return guessAck{Success: true, GuessOutcome: out}

	case "resetGame":
		if err := s.Sessions.Reset(connID); err != nil {
			return s.fail(connID, msg.Type, err)
		}
		return ack{Success: true}

	case "leaveRoom":
		if err := s.Sessions.Leave(connID); err != nil {
			return s.fail(connID, msg.Type, err)
		}
		s.publishRooms()
		return ack{Success: true}

	case "ping":
		s.Sessions.Ping(connID)
		return "pong"

	default:
		return s.fail(connID, msg.Type, errUnknownAction)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errMalformed
	}
	return nil
}

func (s *Server) fail(connID, action string, err error) ack {
	kind := rooms.KindOf(err)
	ev := log.Debug()
	if kind == rooms.KindInternal {
		ev = log.Error()
	}
	ev.Err(err).Str("conn", connID).Str("action", action).Str("kind", kind.String()).Msg("action failed")
	return ack{Success: false, Message: rooms.PublicMessage(err)}
}
