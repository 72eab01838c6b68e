package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/gridgame-coordinator/internal/config"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/entity"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/repository"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/repository/storage"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/tictactoe"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/transport/rest"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/transport/websocket"
	"github.com/rocketscienceinc/gridgame-coordinator/internal/usecase"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := tictactoe.NewEngine(logger)

	seats := make([]websocket.Seat, 0, entity.MaxPlayers)
	for _, mark := range []string{entity.PlayerX, entity.PlayerO} {
		socket := websocket.NewSocket()
		player := entity.NewPlayer(mark, socket)

		if err := engine.Register(player); err != nil {
			return fmt.Errorf("failed to register player %s: %w", mark, err)
		}

		seats = append(seats, websocket.Seat{Player: player, Socket: socket})
	}

	group, ctx := errgroup.WithContext(ctx)

	var events repository.EventRepository
	publisher := usecase.EventPublisher(repository.NopEventRepository{})

	if conf.Redis.Enabled {
		if conf.Redis.Host == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		events = repository.NewEventRepository(redisStorage.Connection, conf.Redis.Channel)
		publisher = events
	}

	router := usecase.NewRouter(logger, engine, publisher)
	wsServer := websocket.New(logger, router, seats...)

	pages, err := rest.NewPageHandler(logger, entity.PlayerX, entity.PlayerO)
	if err != nil {
		return fmt.Errorf("failed to create pages: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", rest.NewPingHandler().PingHandler)
	mux.HandleFunc("GET /state", rest.NewStateHandler(logger, engine).StateHandler)
	pages.RegisterRoutes(mux)
	wsServer.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              ":" + conf.HTTPPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort, "gameID", engine.GameID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("Application context canceled, shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
		defer cancel()

		// hijacked websocket connections are not closed by Shutdown
		wsServer.Close()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}

		return nil
	})

	if events != nil {
		group.Go(func() error {
			return tapEvents(ctx, logger, events)
		})
	}

	return group.Wait()
}

// tapEvents logs every event seen on the pub/sub channel until ctx is done.
func tapEvents(ctx context.Context, logger *slog.Logger, events repository.EventRepository) error {
	log := logger.With("component", "events")

	stream, closeStream, err := events.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to tap events: %w", err)
	}

	defer func() {
		if err = closeStream(); err != nil {
			log.Error("failed to close event stream", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-stream:
			if !ok {
				return nil
			}
			log.Debug("event", "gameID", event.GameID, "kind", event.Kind, "mark", event.Mark, "text", event.Text)
		}
	}
}
