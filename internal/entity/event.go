package entity

import "time"

const (
	EventMove     = "move"
	EventChat     = "chat"
	EventRejected = "rejected"
	EventWin      = "win"
	EventDraw     = "draw"
	EventNewGame  = "new_game"
)

// Event is a routed game event as seen by outside observers.
type Event struct {
	GameID string    `json:"game_id"`
	Kind   string    `json:"kind"`
	Mark   string    `json:"mark,omitempty"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

func NewEvent(gameID, kind, mark, text string) Event {
	return Event{
		GameID: gameID,
		Kind:   kind,
		Mark:   mark,
		Text:   text,
		At:     time.Now().UTC(),
	}
}
