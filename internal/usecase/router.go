package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gridgame-coordinator/internal/apperror"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/entity"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/tictactoe"
)

type gameEngine interface {
	ApplyMove(player *entity.Player, row, col int) (tictactoe.Outcome, error)
	Players() []*entity.Player
	GameID() string
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
}

// Delivery is one outbound text for one recipient.
type Delivery struct {
	Recipient *entity.Player
	Text      string
}

// Report describes how an inbound message was routed.
type Report struct {
	Outcome    *tictactoe.Outcome
	Rejection  error
	Deliveries []Delivery
}

// Router turns inbound texts into engine calls and per-player notifications.
type Router struct {
	logger    *slog.Logger
	engine    gameEngine
	publisher EventPublisher
}

func NewRouter(logger *slog.Logger, engine gameEngine, publisher EventPublisher) *Router {
	return &Router{
		logger:    logger.With("component", "router"),
		engine:    engine,
		publisher: publisher,
	}
}

// HandleInbound routes one message from sender. The returned error joins every failed delivery;
// the game state never depends on it.
func (that *Router) HandleInbound(ctx context.Context, sender *entity.Player, raw string) (Report, error) {
	report, events := that.route(sender, raw)

	err := that.deliver(ctx, report.Deliveries)

	that.publish(ctx, events)

	return report, err
}

func (that *Router) route(sender *entity.Player, raw string) (Report, []entity.Event) {
	log := that.logger.With("method", "route", "mark", sender.Mark)

	row, col, isMove, err := ParseMove(raw)
	if !isMove {
		return Report{Deliveries: that.differentiated(sender, raw)},
			[]entity.Event{entity.NewEvent(that.engine.GameID(), entity.EventChat, sender.Mark, raw)}
	}

	if err != nil {
		log.Info("malformed move", "raw", raw, "error", err)
		return that.rejected(sender, err)
	}

	outcome, err := that.engine.ApplyMove(sender, row, col)
	if err != nil {
		log.Info("move rejected", "row", row, "col", col, "error", err)
		return that.rejected(sender, err)
	}

	report := Report{Outcome: &outcome}
	events := []entity.Event{entity.NewEvent(outcome.GameID, entity.EventMove, sender.Mark, raw)}

	if !outcome.IsConcluded() {
		report.Deliveries = that.differentiated(sender, raw)
		return report, events
	}

	announcement, kind := TextDraw, entity.EventDraw
	if outcome.IsWin() {
		announcement, kind = TextWinPrefix+outcome.Result, entity.EventWin
	}

	report.Deliveries = append(that.everyone(announcement), that.everyone(TextNewGame)...)
	events = append(events,
		entity.NewEvent(outcome.GameID, kind, outcome.Result, announcement),
		entity.NewEvent(outcome.NextGameID, entity.EventNewGame, "", TextNewGame),
	)

	log.Info("game concluded", "gameID", outcome.GameID, "result", outcome.Result)

	return report, events
}

func (that *Router) rejected(sender *entity.Player, err error) (Report, []entity.Event) {
	text := rejectionText(err)

	return Report{
			Rejection:  err,
			Deliveries: []Delivery{{Recipient: sender, Text: text}},
		},
		[]entity.Event{entity.NewEvent(that.engine.GameID(), entity.EventRejected, sender.Mark, text)}
}

// differentiated sends raw to everyone but the sender, and an acknowledgment to the sender.
func (that *Router) differentiated(sender *entity.Player, raw string) []Delivery {
	var deliveries []Delivery

	for _, player := range that.engine.Players() {
		if player == sender {
			continue
		}
		deliveries = append(deliveries, Delivery{Recipient: player, Text: raw})
	}

	return append(deliveries, Delivery{Recipient: sender, Text: TextUpdate})
}

func (that *Router) everyone(text string) []Delivery {
	players := that.engine.Players()
	deliveries := make([]Delivery, 0, len(players))

	for _, player := range players {
		deliveries = append(deliveries, Delivery{Recipient: player, Text: text})
	}

	return deliveries
}

// deliver attempts every delivery in order, regardless of earlier failures.
func (that *Router) deliver(ctx context.Context, deliveries []Delivery) error {
	log := that.logger.With("method", "deliver")

	var errs []error

	for _, delivery := range deliveries {
		if err := send(ctx, delivery); err != nil {
			log.Error("failed to deliver message", "mark", delivery.Recipient.Mark, "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func send(ctx context.Context, delivery Delivery) error {
	if delivery.Recipient.Sink == nil {
		return fmt.Errorf("%w to %s: %w", apperror.ErrDeliveryFailure, delivery.Recipient.Mark, apperror.ErrNotConnected)
	}

	if err := delivery.Recipient.Sink.Send(ctx, delivery.Text); err != nil {
		return fmt.Errorf("%w to %s: %w", apperror.ErrDeliveryFailure, delivery.Recipient.Mark, err)
	}

	return nil
}

func (that *Router) publish(ctx context.Context, events []entity.Event) {
	if that.publisher == nil {
		return
	}

	for _, event := range events {
		if err := that.publisher.Publish(ctx, event); err != nil {
			that.logger.Warn("failed to publish event", "kind", event.Kind, "error", err)
		}
	}
}
