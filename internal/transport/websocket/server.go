package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gridgame-coordinator/internal/entity"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/usecase"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 512
)

type router interface {
	HandleInbound(ctx context.Context, sender *entity.Player, raw string) (usecase.Report, error)
}

// Seat pairs a registered player with the socket backing its sink.
type Seat struct {
	Player *entity.Player
	Socket *Socket
}

type Server struct {
	logger   *slog.Logger
	router   router
	upgrader websocket.Upgrader
	seats    []Seat
}

func New(logger *slog.Logger, router router, seats ...Seat) *Server {
	return &Server{
		logger: logger.With("component", "websocket"),
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		seats: seats,
	}
}

// RegisterRoutes exposes one live channel per player at /<mark>/ws.
func (that *Server) RegisterRoutes(mux *http.ServeMux) {
	for _, seat := range that.seats {
		mux.HandleFunc("GET /"+seat.Player.Mark+"/ws", func(w http.ResponseWriter, r *http.Request) {
			that.handleConnection(w, r, seat)
		})
	}
}

// Close drops every attached connection.
func (that *Server) Close() {
	for _, seat := range that.seats {
		seat.Socket.close("server shutting down")
	}
}

// handleConnection - upgrades the connection and pumps inbound messages to the router.
func (that *Server) handleConnection(writer http.ResponseWriter, req *http.Request, seat Seat) {
	log := that.logger.With("method", "handleConnection", "mark", seat.Player.Mark, "connID", uuid.NewString())

	if seat.Socket.IsAttached() {
		log.Warn("player is already connected")
		http.Error(writer, "player is already connected", http.StatusConflict)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	if !seat.Socket.attach(conn) {
		log.Warn("lost the race for the player seat")
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "player is already connected")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	defer func() {
		seat.Socket.detach(conn)
		_ = conn.Close()
		log.Info("WebSocket connection closed")
	}()

	log.Info("WebSocket connection established")

	done := make(chan struct{})
	defer close(done)

	go that.keepAlive(seat.Socket, done, log)

	that.handleMessages(req.Context(), conn, seat.Player, log)
}

// handleMessages - reads text frames until the connection fails.
func (that *Server) handleMessages(ctx context.Context, conn *websocket.Conn, player *entity.Player, log *slog.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		if msgType != websocket.TextMessage {
			log.Debug("ignoring non-text message", "type", msgType)
			continue
		}

		if _, err = that.router.HandleInbound(ctx, player, string(data)); err != nil {
			log.Warn("message routed with delivery failures", "error", err)
		}
	}
}

func (that *Server) keepAlive(socket *Socket, done <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := socket.ping(); err != nil {
				log.Debug("failed to ping", "error", err)
				return
			}
		}
	}
}
