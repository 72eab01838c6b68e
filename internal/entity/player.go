package entity

import "context"

// Sink is the outbound side of a player's connection, owned by the transport.
type Sink interface {
	Send(ctx context.Context, text string) error
}

type Player struct {
	Mark string `json:"mark"`
	Sink Sink   `json:"-"`
}

func NewPlayer(mark string, sink Sink) *Player {
	return &Player{
		Mark: mark,
		Sink: sink,
	}
}
