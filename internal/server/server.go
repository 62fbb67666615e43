// Package server implements the TCP dispatcher, the per-connection session
// loop, and the command interpreter between them.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/mkrishnan-dev/watch-shop-server/internal/config"
	"github.com/mkrishnan-dev/watch-shop-server/internal/obs"
	"github.com/mkrishnan-dev/watch-shop-server/internal/store"
)

// Server accepts connections and serves one handler goroutine per client,
// unbounded. All handlers share one Interpreter over the same state store.
type Server struct {
	interp     *Interpreter
	maxMessage int

	closing atomic.Bool

	mu    sync.Mutex
	lis   net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// New constructs a Server from its collaborators.
func New(cfg config.Config, st *store.Store, files store.Persister) *Server {
	maxMessage := cfg.MaxMessageBytes
	if maxMessage <= 0 {
		maxMessage = 1023
	}
	return &Server{
		interp:     NewInterpreter(st, files),
		maxMessage: maxMessage,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections on lis until Shutdown closes it. A handler fault
// terminates only that connection; the accept loop keeps running.
func (s *Server) Serve(lis net.Listener) error {
	// Publish the listener under the lock and re-check closing, so a
	// Shutdown that ran before this goroutine was scheduled still wins.
	s.mu.Lock()
	s.lis = lis
	closing := s.closing.Load()
	s.mu.Unlock()
	if closing {
		_ = lis.Close()
		return nil
	}

	for {
		conn, err := lis.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConn(conn)
		}()
	}
}

// Shutdown stops accepting and waits for live sessions to finish. When ctx
// expires first, remaining connections are closed to unblock their handlers,
// and the context error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)
	s.mu.Lock()
	lis := s.lis
	s.mu.Unlock()
	if lis != nil {
		_ = lis.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		obs.Logger.Warn("shutdown_closing_connections", "open", s.ConnCount())
		s.closeAll()
		<-done
		return ctx.Err()
	}
}

// ConnCount returns the number of live sessions.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
