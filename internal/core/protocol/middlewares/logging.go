package middlewares

import (
	"context"
	"time"

	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/protocol"
)

var _ protocol.Middleware = (*LoggingMiddleware)(nil)

// LoggingMiddleware logs connection lifecycle at info and messages at debug.
type LoggingMiddleware struct {
	logger log.Log
}

func NewLoggingMiddleware(logger log.Log) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (m *LoggingMiddleware) Name() string { return "logging" }

func (m *LoggingMiddleware) Priority() uint16 {
	return 1000
}

func (m *LoggingMiddleware) BeforeHandle(context.Context, protocol.ClientInfo, protocol.ClientMessage) error {
	return nil
}

func (m *LoggingMiddleware) AfterHandle(ctx context.Context, client protocol.ClientInfo, msg protocol.ClientMessage, err error) {
	logger := m.logger.WithContext(ctx)
	if err != nil {
		logger.Debug("Message rejected",
			log.String("client_id", client.ID),
			log.String("message_type", string(msg.Type)),
			log.Error(err),
		)
		return
	}
	if msg.Type != protocol.TypeFrame {
		logger.Debug("Message handled",
			log.String("client_id", client.ID),
			log.String("message_type", string(msg.Type)),
		)
	}
}

func (m *LoggingMiddleware) OnConnect(ctx context.Context, client protocol.ClientInfo) error {
	m.logger.WithContext(ctx).Info("Client connected",
		log.String("client_id", client.ID),
		log.String("remote_addr", client.RemoteAddress),
		log.String("user_agent", client.UserAgent),
	)
	return nil
}

func (m *LoggingMiddleware) OnDisconnect(ctx context.Context, client protocol.ClientInfo, reason string) {
	m.logger.WithContext(ctx).Info("Client disconnected",
		log.String("client_id", client.ID),
		log.String("remote_addr", client.RemoteAddress),
		log.String("reason", reason),
		log.Duration("duration", time.Since(client.ConnectedAt)),
	)
}
