package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teranos/joulebench/errors"
	"github.com/teranos/joulebench/logger"
)

// ServerState is where the server is in its lifecycle
type ServerState int32

const (
	ServerStateRunning ServerState = iota
	ServerStateDraining
	ServerStateStopped
)

// ShutdownTimeout bounds how long in-flight requests get to finish
const ShutdownTimeout = 10 * time.Second

// getState returns the current server state
func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

// setState atomically updates the server state
func (s *Server) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", stateString(newState))
}

// stateString returns human-readable state name
func stateString(state ServerState) string {
	switch state {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Start serves on port until ctx is cancelled, then drains in-flight
// requests and returns. A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context, port int) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return errors.WithHintf(errors.Wrapf(err, "failed to listen on port %d", port),
			"set server.port in am.toml or JOULEBENCH_SERVER_PORT")
	}
	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setState(ServerStateRunning)
	s.logger.Infow("Server ready",
		logger.FieldAddress, listener.Addr().String(),
		"url", fmt.Sprintf("http://%s", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		s.setState(ServerStateStopped)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	return s.Stop(httpServer, errCh)
}

// Stop drains httpServer, waiting for its Serve loop to return on errCh
func (s *Server) Stop(httpServer *http.Server, errCh <-chan error) error {
	s.setState(ServerStateDraining)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("Graceful shutdown incomplete", logger.FieldError, err)
		_ = httpServer.Close()
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Warnw("Server loop ended with error", logger.FieldError, err)
	}

	s.setState(ServerStateStopped)
	return nil
}
