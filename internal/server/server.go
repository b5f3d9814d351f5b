package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Server accepts websocket clients and hands them to the game service.
type Server struct {
	addr     string
	service  *Service
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	connections map[*Connection]struct{}
	httpServer  *http.Server
}

// NewServer creates a server listening on addr.
func NewServer(addr string, service *Service, logger *log.Logger) *Server {
	return &Server{
		addr:    addr,
		service: service,
		logger:  logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// TODO: restrict origins once the web client has a fixed host.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		connections: make(map[*Connection]struct{}),
	}
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.addr)
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.shutdown()
	})
	return g.Wait()
}

func (s *Server) shutdown() error {
	s.logger.Info("shutting down")

	s.mu.Lock()
	for conn := range s.connections {
		conn.Close()
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := NewConnection(ws, s.service, s.logger)
	s.track(conn)
	s.logger.Info("client connected", "remote", r.RemoteAddr)

	go func() {
		<-conn.Done()
		s.untrack(conn)
		s.logger.Info("client disconnected", "remote", r.RemoteAddr)
	}()
	conn.Run()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) track(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn *Connection) {
	s.mu.Lock()
	delete(s.connections, conn)
	s.mu.Unlock()
}
