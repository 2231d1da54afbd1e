package rooms

import "errors"

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindState
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	default:
		return "internal"
	}
}

// Error is a client-facing failure. Message is safe to send back to the player.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInvalidSecret = &Error{KindValidation, "Secret must be exactly 4 distinct digits"}
	ErrInvalidGuess  = &Error{KindValidation, "Guess must be exactly 4 distinct digits"}

	ErrRoomNotFound     = &Error{KindNotFound, "Room not found"}
	ErrSeatNotFound     = &Error{KindNotFound, "Seat not found"}
	ErrNotInRoom        = &Error{KindNotFound, "You are not in a room"}
	ErrNoOpponentSecret = &Error{KindNotFound, "Opponent has not set a secret"}

	ErrRoomFull           = &Error{KindState, "Room is full"}
	ErrGameAlreadyStarted = &Error{KindState, "Game already started"}
	ErrGameNotStarted     = &Error{KindState, "Game has not started"}
	ErrGameOver           = &Error{KindState, "Game is already over"}
	ErrNotYourTurn        = &Error{KindState, "Not your turn"}
	ErrAlreadySeated      = &Error{KindState, "You already hold another seat in this room"}
	ErrSeatConnected      = &Error{KindState, "Seat is still connected"}
)

// KindOf classifies err. Anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the text sent to the client for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
