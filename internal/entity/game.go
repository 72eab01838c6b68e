package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gridgame-coordinator/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""

	BoardSize  = 3
	MaxPlayers = 2
)

type Board [BoardSize][BoardSize]string

// IsFull reports whether no empty cell is left.
func (that *Board) IsFull() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell == EmptyCell {
				return false
			}
		}
	}

	return true
}

type Game struct {
	ID      string    `json:"id"`
	Board   Board     `json:"board"`
	Winner  string    `json:"winner"`
	Status  string    `json:"status"`
	Turn    string    `json:"player_turn"`
	Players []*Player `json:"-"`

	turnIndex int
}

func NewGame(id string) *Game {
	return &Game{
		ID:     id,
		Status: StatusWaiting,
	}
}

// AddPlayer puts the player on the roster. The caller restarts the game once the roster is full.
func (that *Game) AddPlayer(player *Player) error {
	if len(that.Players) >= MaxPlayers {
		return fmt.Errorf("%w: %d players", apperror.ErrRosterFull, len(that.Players))
	}

	for _, existing := range that.Players {
		if existing.Mark == player.Mark {
			return fmt.Errorf("%w: %s", apperror.ErrDuplicateMark, player.Mark)
		}
	}

	that.Players = append(that.Players, player)

	return nil
}

func (that *Game) IsFull() bool {
	return len(that.Players) == MaxPlayers
}

// Restart clears the board and hands the turn back to the first registered player.
func (that *Game) Restart(id string) {
	that.ID = id
	that.Board = Board{}
	that.Winner = ""
	that.Status = StatusOngoing
	that.turnIndex = 0
	that.Turn = that.Players[0].Mark
}

// CurrentPlayer returns the turn-holder, or nil while the game is waiting for players.
func (that *Game) CurrentPlayer() *Player {
	if that.IsWaiting() || len(that.Players) == 0 {
		return nil
	}

	return that.Players[that.turnIndex]
}

// MakeTurn places the mark at (row, col). A non-empty result means the game is concluded:
// the winning mark or PlayerTie.
func (that *Game) MakeTurn(playerMark string, row, col int) (string, error) {
	if !that.IsOngoing() {
		return "", apperror.ErrGameIsNotStarted
	}

	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return "", fmt.Errorf("%w: row %d col %d", apperror.ErrInvalidCell, row, col)
	}

	if that.Turn != playerMark {
		return "", apperror.ErrNotYourTurn
	}

	if that.Board[row][col] != EmptyCell {
		return "", apperror.ErrCellOccupied
	}

	that.Board[row][col] = playerMark

	result := that.DetermineGameResult(row, col)
	switch result {
	case PlayerTie:
		that.Winner = PlayerTie
		that.Status = StatusFinished
		that.Turn = ""
	case "":
		that.turnIndex = (that.turnIndex + 1) % len(that.Players)
		that.Turn = that.Players[that.turnIndex].Mark
	default:
		that.Winner = result
		that.Status = StatusFinished
		that.Turn = ""
	}

	return result, nil
}

// DetermineGameResult checks the lines through the last played cell only;
// a move cannot complete any other line.
func (that *Game) DetermineGameResult(row, col int) string {
	mark := that.Board[row][col]
	if mark == EmptyCell {
		return ""
	}

	rowWin, colWin := true, true
	diagWin, antiWin := row == col, row+col == BoardSize-1

	for i := range BoardSize {
		rowWin = rowWin && that.Board[row][i] == mark
		colWin = colWin && that.Board[i][col] == mark
		diagWin = diagWin && that.Board[i][i] == mark
		antiWin = antiWin && that.Board[i][BoardSize-1-i] == mark
	}

	if rowWin || colWin || diagWin || antiWin {
		return mark
	}

	// the game will continue until all the squares are full
	if !that.Board.IsFull() {
		return ""
	}

	return PlayerTie
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}
