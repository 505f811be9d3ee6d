package middlewares

import (
	"context"
	"sync"
	"time"

	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/protocol"
)

var _ protocol.Middleware = (*RateLimitMiddleware)(nil)

// RateLimitMiddleware drops messages beyond rateLimit per window per client.
type RateLimitMiddleware struct {
	logger    log.Log
	rateLimit int
	window    time.Duration
	now       func() time.Time
	clients   sync.Map // client ID -> *clientRateLimit
}

type clientRateLimit struct {
	count  int
	window time.Time
	warned bool
	mu     sync.Mutex
}

func NewRateLimitMiddleware(rateLimit int, window time.Duration, logger log.Log) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		logger:    logger,
		rateLimit: rateLimit,
		window:    window,
		now:       time.Now,
	}
}

func (m *RateLimitMiddleware) Name() string { return "rate_limit" }

func (m *RateLimitMiddleware) Priority() uint16 {
	return 800 // after auth
}

func (m *RateLimitMiddleware) BeforeHandle(_ context.Context, client protocol.ClientInfo, msg protocol.ClientMessage) error {
	if m.rateLimit <= 0 {
		return nil
	}
	now := m.now()
	limit := m.getClientRateLimit(client.ID)

	limit.mu.Lock()
	defer limit.mu.Unlock()

	if now.Sub(limit.window) >= m.window {
		limit.count = 0
		limit.window = now
		limit.warned = false
	}
	if limit.count >= m.rateLimit {
		if !limit.warned {
			limit.warned = true
			m.logger.Warn("Rate limit exceeded",
				log.String("client_id", client.ID),
				log.String("message_type", string(msg.Type)),
				log.Int("limit", m.rateLimit),
			)
		}
		return protocol.ErrRateLimited
	}
	limit.count++
	return nil
}

func (m *RateLimitMiddleware) AfterHandle(context.Context, protocol.ClientInfo, protocol.ClientMessage, error) {
}

func (m *RateLimitMiddleware) OnConnect(_ context.Context, client protocol.ClientInfo) error {
	m.clients.Store(client.ID, &clientRateLimit{window: m.now()})
	return nil
}

func (m *RateLimitMiddleware) OnDisconnect(_ context.Context, client protocol.ClientInfo, _ string) {
	m.clients.Delete(client.ID)
}

func (m *RateLimitMiddleware) getClientRateLimit(clientID string) *clientRateLimit {
	if limit, exists := m.clients.Load(clientID); exists {
		return limit.(*clientRateLimit)
	}
	limit, _ := m.clients.LoadOrStore(clientID, &clientRateLimit{window: m.now()})
	return limit.(*clientRateLimit)
}
