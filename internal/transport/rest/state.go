package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/gridgame-coordinator/internal/entity"
)

type snapshotter interface {
	Snapshot() entity.Game
}

type StateHandler interface {
	StateHandler(w http.ResponseWriter, _ *http.Request)
}

type stateHandler struct {
	logger *slog.Logger
	engine snapshotter
}

func NewStateHandler(logger *slog.Logger, engine snapshotter) StateHandler {
	return &stateHandler{
		logger: logger.With("component", "rest"),
		engine: engine,
	}
}

// StateHandler - writes the current game as JSON.
func (that *stateHandler) StateHandler(w http.ResponseWriter, _ *http.Request) {
	log := that.logger.With("method", "StateHandler")

	game := that.engine.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(game); err != nil {
		log.Error("failed to encode game", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
