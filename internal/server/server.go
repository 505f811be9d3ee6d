package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/arcourse/internal/config"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/protocol"
	"github.com/zeusync/arcourse/internal/core/protocol/middlewares"
	"github.com/zeusync/arcourse/internal/core/session"
	"github.com/zeusync/arcourse/pkg/concurrent"
)

const (
	maxMessageSize  = 64 * 1024
	rateLimitWindow = time.Second
	shutdownTimeout = 5 * time.Second
)

// Server hosts one GameSession per websocket connection on /play.
type Server struct {
	config     config.ServerConfig
	sessionCfg session.Config
	logger     log.Log
	base       log.Log
	upgrader   websocket.Upgrader
	chain      protocol.Chain

	players     sync.Map // session ID -> *player
	playerCount int64    // atomic

	running  int32 // atomic bool
	closed   int32 // atomic bool
	stopChan chan struct{}

	mu       sync.Mutex
	listener net.Listener
	http     *http.Server
}

func NewServer(cfg config.Config, base log.Log) *Server {
	logger := base.With(log.String("component", "server"))
	s := &Server{
		config:     cfg.Server,
		sessionCfg: cfg.Session(),
		logger:     logger,
		base:       base,
		stopChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// WebXR pages are usually served from another origin than the game host.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		chain: protocol.NewChain(
			middlewares.NewLoggingMiddleware(logger),
			middlewares.NewAuthMiddleware(cfg.Server.AccessToken, logger),
			middlewares.NewRateLimitMiddleware(cfg.Server.RateLimit, rateLimitWindow, logger),
		),
	}

	s.logger.Info("Server created",
		log.String("listen_addr", s.config.ListenAddr),
		log.Int("max_sessions", s.config.MaxSessions))
	return s
}

// Handler returns the HTTP routes: /play and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/play", s.handlePlay)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Run listens and serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}
	defer atomic.StoreInt32(&s.running, 0)

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.logger.Error("Failed to create listener", log.Error(err))
		return errors.Wrap(ErrListenerFailed, err.Error())
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.listener = ln
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("Server listening", log.String("addr", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.stopChan:
		}
		return s.shutdown()
	})

	err = g.Wait()
	s.logger.Info("Server stopped")
	return err
}

// Addr is the bound listen address once Run has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting connections and drops every live session.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	close(s.stopChan)
	return s.shutdown()
}

func (s *Server) shutdown() error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	s.logger.Info("Stopping server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	// hijacked websocket connections are not tracked by http.Server
	var players []*player
	s.players.Range(func(_, value any) bool {
		players = append(players, value.(*player))
		return true
	})
	_ = concurrent.Concurrent(ctx, players, 0, func(_ context.Context, p *player) error {
		_ = p.conn.CloseWithReason("server shutting down")
		return nil
	})
	return err
}

// SessionCount is the number of live sessions.
func (s *Server) SessionCount() int {
	return int(atomic.LoadInt64(&s.playerCount))
}

type healthResponse struct {
	Status      string `json:"status"`
	Sessions    int    `json:"sessions"`
	MaxSessions int    `json:"max_sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:      "ok",
		Sessions:    s.SessionCount(),
		MaxSessions: s.config.MaxSessions,
	})
}
