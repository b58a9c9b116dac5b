package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

// CommandQueue receives Host commands posted over HTTP. Push is
// all-or-nothing and fails with domain.ErrQueueFull when the batch does not fit.
type CommandQueue interface {
	Push(cmds ...string) error
}

type Server struct {
	echo *echo.Echo
	addr string

	queue        CommandQueue
	healthChecks []HealthCheck
	clock        clockwork.Clock
	startTime    time.Time
}

type Option func(*Server)

// WithCommandQueue enables POST /commands, feeding the given queue.
func WithCommandQueue(q CommandQueue) Option {
	return func(s *Server) { s.queue = q }
}

func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) { s.healthChecks = append(s.healthChecks, checks...) }
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

func NewServer(addr string, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:  e,
		addr:  addr,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.startTime = srv.clock.Now()

	srv.registerRoutes()

	return srv
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.addr, "command_intake", s.queue != nil)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
