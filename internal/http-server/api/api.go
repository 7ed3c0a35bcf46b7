package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"StaffBot/internal/config"
	"StaffBot/internal/http-server/handlers/errors"
	"StaffBot/internal/http-server/handlers/scenarios"
	"StaffBot/internal/http-server/handlers/webhooks"
	"StaffBot/internal/http-server/middleware/authenticate"
	"StaffBot/internal/http-server/middleware/timeout"
	"StaffBot/internal/lib/sl"
	"StaffBot/internal/ws"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Handler is everything the HTTP surface needs from the rest of the
// system.
type Handler interface {
	webhooks.Core
	webhooks.Lifecycle
	scenarios.Core
}

// New builds the router and serves until ctx is cancelled, then drains
// in-flight requests.
func New(ctx context.Context, conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	// Platform-facing webhook ingestion; platforms don't send bearer
	// keys, the handler verifies each platform's own marker (for
	// Telegram, the registered secret token header).
	router.Post("/webhooks/{platform}/{bot_id}", webhooks.Inbound(log, handler))

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(authenticate.New(log, conf.Listen.ApiKey))

		v1.Route("/webhooks", func(r chi.Router) {
			r.Get("/{platform}/{bot_id}", webhooks.Status(log, handler))
			r.Post("/{platform}/{bot_id}/refresh", webhooks.Refresh(log, handler))
		})
		v1.Route("/scenarios", func(r chi.Router) {
			r.Post("/publish", scenarios.Publish(log, handler))
		})
		if hub != nil {
			v1.Get("/events/ws", hub.ServeWS)
		}
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		server.log.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.httpServer.Shutdown(shutdownCtx)
	}
}
