package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/config"
	"github.com/parley-chat/parley-server/internal/core"
	transporthttp "github.com/parley-chat/parley-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	queue           *core.CommandQueue
	resolver        *core.Resolver
	bcast           *core.Broadcaster
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	queue := core.NewCommandQueue(cfg.QueueSize)
	clients := core.NewClientRegistry()
	rooms := core.NewRoomRegistry()
	friends := core.NewFriendStore()

	bcast := core.NewBroadcaster(clients, rooms, cfg.WriteTimeout, logger)
	resolver := core.NewResolver(queue, clients, rooms, friends, bcast, logger)

	server := transporthttp.NewServer(queue, clients, rooms, cfg, logger)

	return &App{
		server:          server,
		queue:           queue,
		resolver:        resolver,
		bcast:           bcast,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
}

// Run starts the resolver and the HTTP server and blocks until context
// cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	go a.resolver.Run()

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup stops the command queue, waits for the resolver to drain, then
// drains the broadcast pool.
func (a *App) cleanup() {
	a.queue.Shutdown()
	<-a.resolver.Done()
	a.bcast.Shutdown()
	a.log.Info().Msg("core stopped")
}
