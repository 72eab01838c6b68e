package apperror

import "errors"

var (
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrMalformedMove    = errors.New("malformed move")

	ErrRosterFull    = errors.New("roster already holds two players")
	ErrDuplicateMark = errors.New("mark is already registered")

	ErrDeliveryFailure = errors.New("delivery failed")
	ErrNotConnected    = errors.New("player is not connected")
)
