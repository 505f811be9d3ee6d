package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/arcourse/internal/config"
	"github.com/zeusync/arcourse/internal/core/events/bus"
	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/protocol"
	"github.com/zeusync/arcourse/internal/server"
)

func startServer(t *testing.T, token string) (*server.Server, Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Spawner.AutoSpawn = false
	cfg.Server.AccessToken = token
	srv := server.NewServer(cfg, log.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ccfg := DefaultClientConfig()
	ccfg.ServerURL = "ws" + strings.TrimPrefix(ts.URL, "http") + "/play"
	return srv, ccfg
}

func collect(c *Client, typ protocol.MessageType) <-chan protocol.ServerMessage {
	ch := make(chan protocol.ServerMessage, 16)
	c.OnMessage(typ, func(msg protocol.ServerMessage) error {
		ch <- msg
		return nil
	})
	return ch
}

func next(t *testing.T, ch <-chan protocol.ServerMessage) protocol.ServerMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message from server")
		return protocol.ServerMessage{}
	}
}

func TestClientSession(t *testing.T) {
	srv, cfg := startServer(t, "")
	c := NewClient(cfg, log.NewNop())
	states := collect(c, protocol.TypeState)
	errs := collect(c, protocol.TypeError)

	connected := make(chan struct{}, 1)
	c.OnEvent(EventTypeConnected, func(Event) error {
		connected <- struct{}{}
		return nil
	})

	require.NoError(t, c.Connect(context.Background()))
	require.NotEmpty(t, c.SessionID())
	require.True(t, c.IsConnected())
	require.Equal(t, 1, srv.SessionCount())
	require.Len(t, connected, 1)
	require.ErrorIs(t, c.Connect(context.Background()), ErrAlreadyConnected)

	require.NoError(t, c.Recenter(geometry.V3(0, 1.6, 0), geometry.V3(0, 0, 1)))
	require.Contains(t, next(t, errs).Error, "not placed")

	require.NoError(t, c.Place(geometry.V3(0, 1.6, 0), geometry.V3(0, 0, 1)))
	placed := next(t, states)
	require.Equal(t, "placed", placed.State)
	require.Equal(t, c.SessionID(), placed.SessionID)
	require.Equal(t, bus.EventPlaced, placed.Events[0].Type)

	head := geometry.V3(0, 1.7, 0)
	require.NoError(t, c.SendFrame(0, &head))
	frame := next(t, states)
	require.NotNil(t, frame.HUD)
	require.False(t, frame.HUD.Calibrated)

	require.NoError(t, c.SendFrame(0.1, nil))
	next(t, states)

	require.NoError(t, c.Reset())
	next(t, states)
	last, ok := c.LastState()
	require.True(t, ok)
	require.Equal(t, bus.EventReset, last.Events[0].Type)

	require.NoError(t, c.TogglePlacement())
	toggled := next(t, states)
	require.False(t, toggled.HUD.Placing)

	require.NoError(t, c.Close())
	require.True(t, c.IsClosed())
	require.ErrorIs(t, c.Send(protocol.ClientMessage{Type: protocol.TypeReset}), ErrClientClosed)
	require.Eventually(t, func() bool { return srv.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClientAccessToken(t *testing.T) {
	_, cfg := startServer(t, "secret")

	c := NewClient(cfg, log.NewNop())
	require.Error(t, c.Connect(context.Background()))
	require.False(t, c.IsConnected())

	cfg.AccessToken = "secret"
	c = NewClient(cfg, log.NewNop())
	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Close())
}

func TestClientNotConnected(t *testing.T) {
	c := NewClient(DefaultClientConfig(), log.NewNop())
	require.ErrorIs(t, c.Reset(), ErrNotConnected)
	require.ErrorIs(t, c.Disconnect(), ErrNotConnected)
	require.NoError(t, c.Close())
	require.ErrorIs(t, c.Connect(context.Background()), ErrClientClosed)
}
