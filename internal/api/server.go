// Package api serves the monitor's read interface over HTTP, with a
// websocket that pushes change notifications.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexanderramin/vigil/internal/monitor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Server exposes a monitor.Reader. It never touches the tick loop's
// in-memory state; every read goes through the store.
type Server struct {
	reader   monitor.Reader
	now      func() time.Time
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the clock used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(reader monitor.Reader, opts ...Option) *Server {
	s := &Server{
		reader: reader,
		now:    time.Now,
		upgrader: websocket.Upgrader{
			// The API binds to a local address for local collaborators.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/config", s.handleConfig)
	r.Route("/api/activity", func(r chi.Router) {
		r.Get("/today", s.handleToday)
		r.Get("/date/{date}", s.handleDate)
		r.Get("/range", s.handleRange)
		r.Get("/{period:week|month|year}", s.handlePeriod)
	})
	r.Get("/ws", s.handleWebSocket)
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("event", "api_listening").Str("addr", addr).Msg("read interface listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
