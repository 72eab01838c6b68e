package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gridgame-coordinator/internal/apperror"
)

const writeWait = 10 * time.Second

// Socket is a player's sink. It writes to whichever connection is currently attached;
// gorilla connections allow one concurrent writer, so writes are serialized here.
type Socket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewSocket() *Socket {
	return &Socket{}
}

func (that *Socket) Send(ctx context.Context, text string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn == nil {
		return apperror.ErrNotConnected
	}

	deadline := time.Now().Add(writeWait)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := that.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *Socket) IsAttached() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.conn != nil
}

// attach binds conn to the socket. It fails if another connection is already attached.
func (that *Socket) attach(conn *websocket.Conn) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn != nil {
		return false
	}

	that.conn = conn

	return true
}

func (that *Socket) detach(conn *websocket.Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn == conn {
		that.conn = nil
	}
}

func (that *Socket) ping() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn == nil {
		return apperror.ErrNotConnected
	}

	return that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// close sends a close frame and drops the attached connection.
func (that *Socket) close(reason string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn == nil {
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	_ = that.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = that.conn.Close()
	that.conn = nil
}
