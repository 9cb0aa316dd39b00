package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/theblitlabs/starknet-env/pkg/logger"
)

type Config struct {
	Addr string
	// WriteTimeout must outlast a wallet connect, which waits on the user.
	WriteTimeout time.Duration
}

type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

func NewServer(cfg Config, handler http.Handler) *Server {
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Listen binds the configured address without serving.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr is the bound address once Listen has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Serve blocks until the server stops. A graceful Stop is not an error.
func (s *Server) Serve() error {
	log := logger.WithComponent("server")

	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	log.Info().Str("addr", s.Addr()).Msg("Starting HTTP server")

	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	log := logger.WithComponent("server")
	log.Info().Msg("Shutting down HTTP server...")

	err := s.httpServer.Shutdown(ctx)
	if s.listener != nil {
		// Shutdown only closes listeners that reached Serve.
		s.listener.Close()
	}
	return err
}
