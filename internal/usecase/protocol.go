package usecase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/gridgame-coordinator/internal/apperror"
)

// Wire literals shared with the clients.
const (
	MovePrefix = "MOVE:"

	TextOutOfTurn     = "ERR: Out of turn!"
	TextSpaceOccupied = "ERR: Space occupied"
	TextMalformedMove = "ERR: Malformed move"
	TextNotStarted    = "ERR: Game not started"
	TextUpdate        = "UPDATE"
	TextWinPrefix     = "WIN: "
	TextDraw          = "DRAW"
	TextNewGame       = "New game"
)

// ParseMove decodes "MOVE:<row>:<col>". isMove is false for any text without the prefix,
// which is then treated as chat.
func ParseMove(raw string) (row, col int, isMove bool, err error) {
	body, ok := strings.CutPrefix(raw, MovePrefix)
	if !ok {
		return 0, 0, false, nil
	}

	parts := strings.Split(strings.TrimSpace(body), ":")
	if len(parts) != 2 {
		return 0, 0, true, fmt.Errorf("%w: %q", apperror.ErrMalformedMove, raw)
	}

	row, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, true, fmt.Errorf("%w: row %q", apperror.ErrMalformedMove, parts[0])
	}

	col, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, true, fmt.Errorf("%w: col %q", apperror.ErrMalformedMove, parts[1])
	}

	return row, col, true, nil
}

// FormatMove is the inverse of ParseMove.
func FormatMove(row, col int) string {
	return fmt.Sprintf("%s%d:%d", MovePrefix, row, col)
}

// rejectionText maps an engine rejection to the text sent back to the mover.
func rejectionText(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNotYourTurn):
		return TextOutOfTurn
	case errors.Is(err, apperror.ErrCellOccupied):
		return TextSpaceOccupied
	case errors.Is(err, apperror.ErrGameIsNotStarted):
		return TextNotStarted
	default:
		return TextMalformedMove
	}
}
