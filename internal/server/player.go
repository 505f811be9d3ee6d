package server

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/arcourse/internal/core/events/bus"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/obstacle"
	"github.com/zeusync/arcourse/internal/core/protocol"
	"github.com/zeusync/arcourse/internal/core/session"
)

// player is one connected device and the session it drives. Everything but
// conn is owned by the connection's goroutine.
type player struct {
	info    protocol.ClientInfo
	conn    *protocol.Connection
	session *session.GameSession
	logger  log.Log

	hud    session.HUD
	views  []obstacle.View
	events []protocol.EventMessage
}

var _ bus.Observer = (*player)(nil)

func (p *player) UpdateHUD(h session.HUD) { p.hud = h }

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if n := atomic.AddInt64(&s.playerCount, 1); n > int64(s.config.MaxSessions) {
		atomic.AddInt64(&s.playerCount, -1)
		s.logger.Warn("Maximum sessions reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxSessionsReached.Error(), http.StatusServiceUnavailable)
		return
	}
	release := func() { atomic.AddInt64(&s.playerCount, -1) }

	info := protocol.ClientInfo{
		ID:            uuid.NewString(),
		RemoteAddress: r.RemoteAddr,
		UserAgent:     r.UserAgent(),
		Token:         r.URL.Query().Get("token"),
		ConnectedAt:   time.Now(),
	}
	ctx := log.ContextWith(context.WithoutCancel(r.Context()), log.String("session_id", info.ID))

	if err := s.chain.OnConnect(ctx, info); err != nil {
		release()
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		release()
		s.chain.OnDisconnect(ctx, info, "upgrade failed")
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	p := &player{
		info: info,
		conn: protocol.NewConnection(ws, protocol.ConnConfig{
			ReadTimeout:    s.config.ReadTimeout,
			WriteTimeout:   s.config.WriteTimeout,
			MaxMessageSize: maxMessageSize,
		}),
		logger: s.logger.WithContext(ctx),
	}
	p.session = session.New(s.sessionCfg,
		session.WithID(info.ID),
		session.WithLogger(s.base),
		session.WithSeed(xxhash.Sum64String(info.ID)),
		session.WithHUDSink(p),
	)
	p.session.Bus().AddObserver(p)
	if _, err = p.session.Bus().SubscribeAll(p.collect); err != nil {
		s.logger.Error("Event subscription failed", log.Error(err))
	}

	s.players.Store(info.ID, p)
	defer func() {
		s.players.Delete(info.ID)
		release()
		_ = p.conn.Close()
	}()

	reason := s.serve(ctx, p)
	sent, received := p.conn.Stats()
	snap := p.session.Stats()
	events := p.session.Bus().GetMetrics()
	p.logger.Info("Session ended",
		log.String("reason", reason),
		log.Uint64("sent", sent),
		log.Uint64("received", received),
		log.Int("score", snap.Score),
		log.Int("misses", snap.Misses),
		log.Uint64("events_published", events.Published),
		log.Uint64("event_errors", events.Errors))
	s.chain.OnDisconnect(ctx, info, reason)
}

func (p *player) OnPublish(bus.EventType, bus.Event) {}

func (p *player) OnDelivered(eventType bus.EventType, handlers int, err error) {
	if err != nil {
		p.logger.Warn("Event handler failed",
			log.String("event_type", string(eventType)),
			log.Int("handlers", handlers),
			log.Error(err))
	}
}

func (p *player) collect(e bus.Event) error {
	p.events = append(p.events, protocol.EventMessage{Type: e.Type(), Time: e.Time(), Data: e.Data()})
	return nil
}

// serve runs the read loop and returns why it stopped.
func (s *Server) serve(ctx context.Context, p *player) string {
	if err := p.conn.Send(protocol.ServerMessage{
		Type:      protocol.TypeHello,
		SessionID: p.info.ID,
		State:     p.session.State().String(),
	}); err != nil {
		return "write failed"
	}

	for {
		msg, err := p.conn.Receive()
		if err != nil {
			if errors.Is(err, protocol.ErrMalformed) {
				if err = p.sendError(err); err != nil {
					return "write failed"
				}
				continue
			}
			return closeReason(err)
		}

		err = s.chain.BeforeHandle(ctx, p.info, msg)
		if err == nil {
			_, err = protocol.Dispatch(p.session, msg)
		}
		s.chain.AfterHandle(ctx, p.info, msg, err)

		switch {
		case errors.Is(err, protocol.ErrRateLimited):
			continue
		case err != nil:
			err = p.sendError(err)
		default:
			err = p.sendState()
		}
		if err != nil {
			return "write failed"
		}
	}
}

func (p *player) sendState() error {
	hud := p.hud
	snap := p.session.Stats()
	hud.Score, hud.Combo, hud.Misses = snap.Score, snap.Combo, snap.Misses
	hud.Placed = p.session.State() == session.StatePlaced
	hud.Placing = p.session.Placing()

	var views []obstacle.View
	if hud.Placed {
		p.views = p.session.Pool().Views(p.views[:0])
		views = p.views
	}
	err := p.conn.Send(protocol.ServerMessage{
		Type:      protocol.TypeState,
		SessionID: p.info.ID,
		State:     p.session.State().String(),
		HUD:       &hud,
		Obstacles: views,
		Events:    p.events,
	})
	p.events = p.events[:0]
	return err
}

func (p *player) sendError(cause error) error {
	return p.conn.Send(protocol.ServerMessage{
		Type:      protocol.TypeError,
		SessionID: p.info.ID,
		Error:     cause.Error(),
	})
}

func closeReason(err error) string {
	cause := errors.Cause(err)
	var netErr net.Error
	switch {
	case websocket.IsCloseError(cause, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		return "client closed"
	case errors.As(cause, &netErr) && netErr.Timeout():
		return "read timeout"
	case errors.Is(err, protocol.ErrMessageTooLarge):
		return "message too large"
	default:
		return "connection lost"
	}
}
