package middlewares

import (
	"context"
	"crypto/subtle"

	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/protocol"
)

var _ protocol.Middleware = (*AuthMiddleware)(nil)

// AuthMiddleware checks the access token a client connects with. An empty
// token disables the check.
type AuthMiddleware struct {
	token  string
	logger log.Log
}

func NewAuthMiddleware(token string, logger log.Log) *AuthMiddleware {
	return &AuthMiddleware{token: token, logger: logger}
}

func (m *AuthMiddleware) Name() string { return "auth" }

func (m *AuthMiddleware) Priority() uint16 {
	return 900 // after logging
}

func (m *AuthMiddleware) OnConnect(_ context.Context, client protocol.ClientInfo) error {
	if m.token == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(client.Token), []byte(m.token)) != 1 {
		m.logger.Warn("Rejected client with bad token",
			log.String("client_id", client.ID),
			log.String("remote_addr", client.RemoteAddress),
		)
		return protocol.ErrUnauthorized
	}
	return nil
}

func (m *AuthMiddleware) BeforeHandle(context.Context, protocol.ClientInfo, protocol.ClientMessage) error {
	return nil
}

func (m *AuthMiddleware) AfterHandle(context.Context, protocol.ClientInfo, protocol.ClientMessage, error) {
}

func (m *AuthMiddleware) OnDisconnect(context.Context, protocol.ClientInfo, string) {}
