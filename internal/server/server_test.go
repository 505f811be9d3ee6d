package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/arcourse/internal/config"
	"github.com/zeusync/arcourse/internal/core/events/bus"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/protocol"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.Spawner.AutoSpawn = false
	if mutate != nil {
		mutate(&cfg)
	}
	srv := NewServer(cfg, log.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/play" + query
	return websocket.DefaultDialer.Dial(u, nil)
}

func read(t *testing.T, conn *websocket.Conn) protocol.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg protocol.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func eventTypes(msg protocol.ServerMessage) []bus.EventType {
	out := make([]bus.EventType, len(msg.Events))
	for i, e := range msg.Events {
		out[i] = e.Type
	}
	return out
}

func TestPlaySession(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	conn, _, err := dial(t, ts, "")
	require.NoError(t, err)

	hello := read(t, conn)
	require.Equal(t, protocol.TypeHello, hello.Type)
	require.NotEmpty(t, hello.SessionID)
	require.Equal(t, "unplaced", hello.State)
	require.Equal(t, 1, srv.SessionCount())

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":     "place",
		"position": []float64{0, 1.6, 0},
		"forward":  []float64{0, 0, 1},
	}))
	state := read(t, conn)
	require.Equal(t, protocol.TypeState, state.Type)
	require.Equal(t, hello.SessionID, state.SessionID)
	require.Equal(t, "placed", state.State)
	require.Contains(t, eventTypes(state), bus.EventPlaced)
	require.True(t, state.HUD.Placed)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "frame",
		"time": 0.5,
		"head": []float64{0.2, 1.6, 0},
	}))
	state = read(t, conn)
	require.Equal(t, protocol.TypeState, state.Type)
	require.Equal(t, "H:1.60 vY:0.00 X:0.20", state.HUD.Metrics)
	require.Empty(t, state.Events)

	t.Run("control errors keep the connection", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": "toggle_placement"}))
		state := read(t, conn)
		require.False(t, state.HUD.Placing)

		require.NoError(t, conn.WriteJSON(map[string]any{"type": "place"}))
		msg := read(t, conn)
		require.Equal(t, protocol.TypeError, msg.Type)
		require.Contains(t, msg.Error, "placement mode is off")

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`)))
		msg = read(t, conn)
		require.Equal(t, protocol.TypeError, msg.Type)
		require.Contains(t, msg.Error, "malformed")

		require.NoError(t, conn.WriteJSON(map[string]any{"type": "jump"}))
		msg = read(t, conn)
		require.Equal(t, protocol.TypeError, msg.Type)
		require.Contains(t, msg.Error, "unknown message type")
	})

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		var h healthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
		require.Equal(t, "ok", h.Status)
		require.Equal(t, 1, h.Sessions)
	})

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return srv.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSessionEndLogsEventMetrics(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := config.Default()
	cfg.Spawner.AutoSpawn = false
	srv := NewServer(cfg, log.FromZap(zap.New(core), log.LevelInfo))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := dial(t, ts, "")
	require.NoError(t, err)
	hello := read(t, conn)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":     "place",
		"position": []float64{0, 1.6, 0},
		"forward":  []float64{0, 0, 1},
	}))
	read(t, conn)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "reset"}))
	read(t, conn)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Session ended").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
	fields := logs.FilterMessage("Session ended").All()[0].ContextMap()
	require.Equal(t, hello.SessionID, fields["session_id"])
	require.EqualValues(t, 2, fields["events_published"])
	require.EqualValues(t, 0, fields["event_errors"])
	require.Equal(t, 1, logs.FilterMessage("Client connected").FilterField(zap.String("session_id", hello.SessionID)).Len())
}

func TestPlayerObservesHandlerErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := &player{logger: log.FromZap(zap.New(core), log.LevelDebug)}
	b := bus.New()
	b.AddObserver(p)
	_, err := b.Subscribe(bus.EventMiss, func(bus.Event) error { return errors.New("sink full") })
	require.NoError(t, err)
	_, err = b.Subscribe(bus.EventScore, func(bus.Event) error { return nil })
	require.NoError(t, err)

	require.Error(t, b.Publish(bus.NewEvent(bus.EventMiss, "test", 1, nil)))
	require.NoError(t, b.Publish(bus.NewEvent(bus.EventScore, "test", 2, nil)))

	warned := logs.FilterMessage("Event handler failed").All()
	require.Len(t, warned, 1)
	require.Equal(t, string(bus.EventMiss), warned[0].ContextMap()["event_type"])
	m := b.GetMetrics()
	require.EqualValues(t, 2, m.Published)
	require.EqualValues(t, 1, m.Errors)
}

func TestMaxSessions(t *testing.T) {
	_, ts := newTestServer(t, func(c *config.Config) { c.Server.MaxSessions = 1 })

	first, _, err := dial(t, ts, "")
	require.NoError(t, err)
	defer first.Close()
	read(t, first)

	_, resp, err := dial(t, ts, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAccessToken(t *testing.T) {
	srv, ts := newTestServer(t, func(c *config.Config) { c.Server.AccessToken = "s3cret" })

	_, resp, err := dial(t, ts, "")
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, ts, "?token=wrong")
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 0, srv.SessionCount())

	conn, _, err := dial(t, ts, "?token=s3cret")
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, protocol.TypeHello, read(t, conn).Type)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestCloseStopsRunAndSessions(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, log.NewNop())

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr().String()+"/play", nil)
	require.NoError(t, err)
	defer conn.Close()
	read(t, conn)

	require.NoError(t, srv.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	require.Eventually(t, func() bool { return srv.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	require.ErrorIs(t, srv.Run(context.Background()), ErrServerClosed)
}
