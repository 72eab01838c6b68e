package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/rocketscienceinc/gridgame-coordinator/internal/apperror"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/entity"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/tictactoe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

type recordingSink struct {
	mu       sync.Mutex
	messages []string
	fail     bool
}

func (that *recordingSink) Send(_ context.Context, text string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.fail {
		return errBrokenPipe
	}

	that.messages = append(that.messages, text)

	return nil
}

func (that *recordingSink) drain() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	messages := that.messages
	that.messages = nil

	return messages
}

type recordingPublisher struct {
	events []entity.Event
}

func (that *recordingPublisher) Publish(_ context.Context, event entity.Event) error {
	that.events = append(that.events, event)
	return nil
}

type fixture struct {
	router    *Router
	engine    *tictactoe.Engine
	publisher *recordingPublisher

	playerX, playerO *entity.Player
	sinkX, sinkO     *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		engine:    tictactoe.NewEngine(logger),
		publisher: &recordingPublisher{},
		sinkX:     &recordingSink{},
		sinkO:     &recordingSink{},
	}
	f.playerX = entity.NewPlayer(entity.PlayerX, f.sinkX)
	f.playerO = entity.NewPlayer(entity.PlayerO, f.sinkO)

	require.NoError(t, f.engine.Register(f.playerX))
	require.NoError(t, f.engine.Register(f.playerO))

	f.router = NewRouter(logger, f.engine, f.publisher)

	return f
}

func (that *fixture) send(t *testing.T, sender *entity.Player, raw string) Report {
	t.Helper()

	report, err := that.router.HandleInbound(context.Background(), sender, raw)
	require.NoError(t, err)

	return report
}

func TestRouter_AcceptedMove(t *testing.T) {
	// Given: a fresh game
	f := newFixture(t)

	// When: X plays (0,0)
	report := f.send(t, f.playerX, "MOVE:0:0")

	// Then: O receives the move verbatim and X receives the acknowledgment
	require.NotNil(t, report.Outcome)
	assert.Equal(t, []string{"MOVE:0:0"}, f.sinkO.drain())
	assert.Equal(t, []string{TextUpdate}, f.sinkX.drain())
	assert.Equal(t, entity.PlayerO, f.engine.Snapshot().Turn)
}

func TestRouter_ChatPassThrough(t *testing.T) {
	// Given: a fresh game
	f := newFixture(t)

	// When: O sends a chat line out of turn
	report := f.send(t, f.playerO, "good luck")

	// Then: the text is passed through unchecked and the game is untouched
	assert.Nil(t, report.Outcome)
	assert.Equal(t, []string{"good luck"}, f.sinkX.drain())
	assert.Equal(t, []string{TextUpdate}, f.sinkO.drain())
	assert.Equal(t, entity.PlayerX, f.engine.Snapshot().Turn)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, entity.EventChat, f.publisher.events[0].Kind)
}

func TestRouter_Rejections(t *testing.T) {
	t.Run("Out of turn goes to the mover only", func(t *testing.T) {
		// Given: a fresh game
		f := newFixture(t)

		// When: O moves first
		report := f.send(t, f.playerO, "MOVE:0:0")

		// Then: only O hears about it
		require.ErrorIs(t, report.Rejection, apperror.ErrNotYourTurn)
		assert.Equal(t, []string{TextOutOfTurn}, f.sinkO.drain())
		assert.Empty(t, f.sinkX.drain())
		assert.Equal(t, entity.Board{}, f.engine.Snapshot().Board)
	})

	t.Run("Occupied cell goes to the mover only", func(t *testing.T) {
		// Given: O has just filled (0,0)
		f := newFixture(t)
		f.send(t, f.playerX, "MOVE:1:1")
		f.send(t, f.playerO, "MOVE:0:0")
		f.sinkX.drain()
		f.sinkO.drain()
		before := f.engine.Snapshot()

		// When: X attempts (0,0)
		report := f.send(t, f.playerX, "MOVE:0:0")

		// Then: only X is told and nothing changes
		require.ErrorIs(t, report.Rejection, apperror.ErrCellOccupied)
		assert.Equal(t, []string{TextSpaceOccupied}, f.sinkX.drain())
		assert.Empty(t, f.sinkO.drain())
		assert.Equal(t, before, f.engine.Snapshot())
	})

	t.Run("Malformed and out of range moves", func(t *testing.T) {
		// Given: a fresh game
		f := newFixture(t)

		for _, raw := range []string{"MOVE:x:1", "MOVE:3:0", "MOVE:-1:2"} {
			// When: X sends a bad move
			report := f.send(t, f.playerX, raw)

			// Then: X is told the move is malformed
			require.Error(t, report.Rejection, raw)
			assert.Equal(t, []string{TextMalformedMove}, f.sinkX.drain(), raw)
			assert.Empty(t, f.sinkO.drain(), raw)
		}

		assert.Equal(t, entity.PlayerX, f.engine.Snapshot().Turn)
	})
}

func TestRouter_WinAnnouncement(t *testing.T) {
	// Given: Scenario C up to X's winning move
	f := newFixture(t)
	for _, move := range []struct {
		player *entity.Player
		raw    string
	}{
		{f.playerX, "MOVE:0:0"},
		{f.playerO, "MOVE:1:0"},
		{f.playerX, "MOVE:0:1"},
		{f.playerO, "MOVE:1:1"},
	} {
		f.send(t, move.player, move.raw)
	}
	f.sinkX.drain()
	f.sinkO.drain()

	// When: X completes the top row
	report := f.send(t, f.playerX, "MOVE:0:2")

	// Then: both players get the win followed by the new game notice, with no move echo
	require.NotNil(t, report.Outcome)
	assert.True(t, report.Outcome.IsWin())
	assert.Equal(t, []string{"WIN: X", TextNewGame}, f.sinkX.drain())
	assert.Equal(t, []string{"WIN: X", TextNewGame}, f.sinkO.drain())

	// Then: the grid is cleared and X moves first
	snapshot := f.engine.Snapshot()
	assert.Equal(t, entity.Board{}, snapshot.Board)
	assert.Equal(t, entity.PlayerX, snapshot.Turn)

	kinds := make([]string, 0, 3)
	for _, event := range f.publisher.events[len(f.publisher.events)-3:] {
		kinds = append(kinds, event.Kind)
	}
	assert.Equal(t, []string{entity.EventMove, entity.EventWin, entity.EventNewGame}, kinds)
}

func TestRouter_DrawAnnouncement(t *testing.T) {
	// Given: a game one move away from a full board
	f := newFixture(t)
	players := []*entity.Player{f.playerX, f.playerO}
	cells := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 1}, {1, 0}, {1, 2}, {2, 1}, {2, 0}}
	for n, cell := range cells {
		f.send(t, players[n%2], FormatMove(cell[0], cell[1]))
	}
	f.sinkX.drain()
	f.sinkO.drain()

	// When: X fills the last cell
	report := f.send(t, f.playerX, "MOVE:2:2")

	// Then: both players get DRAW and the new game notice
	assert.True(t, report.Outcome.IsDraw())
	assert.Equal(t, []string{TextDraw, TextNewGame}, f.sinkX.drain())
	assert.Equal(t, []string{TextDraw, TextNewGame}, f.sinkO.drain())
}

func TestRouter_DeliveryFailure(t *testing.T) {
	// Given: O's sink is broken
	f := newFixture(t)
	f.sinkO.fail = true

	// When: X wins a game so that every player is addressed twice
	moves := []struct {
		player *entity.Player
		raw    string
	}{
		{f.playerX, "MOVE:0:0"},
		{f.playerO, "MOVE:1:0"},
		{f.playerX, "MOVE:0:1"},
		{f.playerO, "MOVE:1:1"},
	}
	for _, move := range moves {
		_, _ = f.router.HandleInbound(context.Background(), move.player, move.raw)
	}
	f.sinkX.drain()

	_, err := f.router.HandleInbound(context.Background(), f.playerX, "MOVE:0:2")

	// Then: X still gets every message and the failures are reported
	require.ErrorIs(t, err, apperror.ErrDeliveryFailure)
	require.ErrorIs(t, err, errBrokenPipe)
	assert.Equal(t, []string{"WIN: X", TextNewGame}, f.sinkX.drain())
	assert.Equal(t, entity.Board{}, f.engine.Snapshot().Board)
}

func TestRouter_DisconnectedPlayer(t *testing.T) {
	// Given: O has no sink attached
	f := newFixture(t)
	f.playerO.Sink = nil

	// When: X moves
	_, err := f.router.HandleInbound(context.Background(), f.playerX, "MOVE:0:0")

	// Then: the move is applied and the failed delivery is reported
	require.ErrorIs(t, err, apperror.ErrNotConnected)
	assert.Equal(t, []string{TextUpdate}, f.sinkX.drain())
	assert.Equal(t, entity.PlayerO, f.engine.Snapshot().Turn)
}
