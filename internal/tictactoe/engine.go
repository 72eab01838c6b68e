package tictactoe

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/gridgame-coordinator/internal/entity"
)

// Outcome describes an accepted move.
type Outcome struct {
	GameID string
	Mark   string
	Row    int
	Col    int

	// Result is the winning mark, entity.PlayerTie, or empty while the game continues.
	Result string
	// NextGameID is set when the move concluded the game and a new one was started.
	NextGameID string
}

func (that Outcome) IsWin() bool {
	return that.Result != "" && that.Result != entity.PlayerTie
}

func (that Outcome) IsDraw() bool {
	return that.Result == entity.PlayerTie
}

func (that Outcome) IsConcluded() bool {
	return that.Result != ""
}

// Engine owns the authoritative game state. Register and ApplyMove are serialized by one mutex.
type Engine struct {
	logger *slog.Logger

	mu    sync.Mutex
	game  *entity.Game
	newID func() string
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger: logger.With("component", "engine"),
		game:   entity.NewGame(uuid.NewString()),
		newID:  uuid.NewString,
	}
}

// Register adds a player to the roster and starts the first game once it is full.
func (that *Engine) Register(player *entity.Player) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.game.AddPlayer(player); err != nil {
		return fmt.Errorf("failed to register player %s: %w", player.Mark, err)
	}

	that.logger.Info("player registered", "mark", player.Mark, "players", len(that.game.Players))

	if that.game.IsFull() {
		that.game.Restart(that.newID())
		that.logger.Info("game started", "gameID", that.game.ID, "turn", that.game.Turn)
	}

	return nil
}

// ApplyMove validates and applies a move. Rejections leave the state untouched.
func (that *Engine) ApplyMove(player *entity.Player, row, col int) (Outcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "ApplyMove", "gameID", that.game.ID, "mark", player.Mark)

	result, err := that.game.MakeTurn(player.Mark, row, col)
	if err != nil {
		log.Debug("move rejected", "row", row, "col", col, "error", err)
		return Outcome{}, fmt.Errorf("invalid turn: %w", err)
	}

	outcome := Outcome{
		GameID: that.game.ID,
		Mark:   player.Mark,
		Row:    row,
		Col:    col,
		Result: result,
	}

	if outcome.IsConcluded() {
		that.game.Restart(that.newID())
		outcome.NextGameID = that.game.ID

		log.Info("game concluded", "result", result, "nextGameID", outcome.NextGameID)
	}

	return outcome, nil
}

// Players returns the roster in turn order.
func (that *Engine) Players() []*entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]*entity.Player(nil), that.game.Players...)
}

// Snapshot returns a copy of the current game without the roster.
func (that *Engine) Snapshot() entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	return entity.Game{
		ID:     that.game.ID,
		Board:  that.game.Board,
		Winner: that.game.Winner,
		Status: that.game.Status,
		Turn:   that.game.Turn,
	}
}

// GameID returns the id of the game in progress.
func (that *Engine) GameID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.game.ID
}
