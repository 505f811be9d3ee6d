package replay

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/arcourse/internal/core/events/bus"
	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/protocol"
	"github.com/zeusync/arcourse/internal/core/session"
)

func newSession(id string, autoSpawn bool) *session.GameSession {
	cfg := session.DefaultConfig()
	cfg.AutoSpawn = autoSpawn
	return session.New(cfg, session.WithID(id), session.WithLogger(log.NewNop()), session.WithSeed(7))
}

func quiet() Options { return Options{Logger: log.NewNop()} }

func TestTraceRoundTrip(t *testing.T) {
	head := geometry.V3(0.1, 1.7, 0)
	msgs := []protocol.ClientMessage{
		{Type: protocol.TypePlace, Position: geometry.V3(0, 1.7, 0), Forward: geometry.V3(0, 0, 1)},
		{Type: protocol.TypeFrame, Time: 0.5, Head: &head},
		{Type: protocol.TypeFrame, Time: 0.6},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, msgs))
	require.Equal(t, 3, strings.Count(buf.String(), "\n"))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, msgs, got)
	require.True(t, got[1].Sample().HasPose)
	require.False(t, got[2].Sample().HasPose)
}

func TestReadErrors(t *testing.T) {
	t.Run("blank lines are skipped", func(t *testing.T) {
		got, err := Read(strings.NewReader("\n{\"type\":\"reset\"}\n\n  \n{\"type\":\"frame\",\"time\":1}\n"))
		require.NoError(t, err)
		require.Len(t, got, 2)
	})

	t.Run("malformed line is reported with its number", func(t *testing.T) {
		_, err := Read(strings.NewReader("{\"type\":\"reset\"}\n{not json\n"))
		require.ErrorIs(t, err, ErrInvalidTrace)
		require.ErrorIs(t, err, protocol.ErrMalformed)
		require.Contains(t, err.Error(), "line 2")
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := Read(strings.NewReader("{\"time\":1}\n"))
		require.ErrorIs(t, err, protocol.ErrMalformed)
		require.Contains(t, err.Error(), "line 1")
	})
}

func TestSynthesize(t *testing.T) {
	sc := DefaultScript()
	sc.Duration = 2
	sc.Actions = []Action{
		{Kind: Jump, At: 0.3},
		{Kind: Duck, At: 1.0, Duration: 0.3},
		{Kind: Lost, At: 1.89, Duration: 1},
	}
	msgs := Synthesize(sc)

	require.Equal(t, protocol.TypePlace, msgs[0].Type)
	frames := msgs[1:]
	require.Len(t, frames, 121)

	var peak, low float64 = 0, 10
	lost := 0
	for _, m := range frames {
		require.Equal(t, protocol.TypeFrame, m.Type)
		if m.Head == nil {
			lost++
			continue
		}
		peak = max(peak, m.Head.Y())
		low = min(low, m.Head.Y())
	}
	require.InDelta(t, 1.7+jumpSpeed*jumpSpeed/(2*gravity), peak, 0.01)
	require.InDelta(t, 1.0, low, 1e-9)
	require.Equal(t, 7, lost)
}

func TestRun(t *testing.T) {
	t.Run("scripted gestures reach the bus", func(t *testing.T) {
		sc := DefaultScript()
		sc.Duration = 8
		sc.Actions = []Action{{Kind: Jump, At: 3}, {Kind: Duck, At: 5, Duration: 0.5}}

		sum, err := Run(context.Background(), newSession("gestures", false), Synthesize(sc), quiet())
		require.NoError(t, err)
		require.Equal(t, 482, sum.Messages)
		require.Equal(t, 481, sum.Frames)
		require.Zero(t, sum.Skipped)
		require.Zero(t, sum.Rejected)
		require.Equal(t, 1, sum.Events[bus.EventPlaced])
		require.Equal(t, 1, sum.Events[bus.EventCalibrated])
		require.Equal(t, 1, sum.Events[bus.EventJump])
		require.Equal(t, 1, sum.Events[bus.EventDuck])
		require.Zero(t, sum.Events[bus.EventSpawn])
	})

	t.Run("lost pose frames are skipped", func(t *testing.T) {
		sc := DefaultScript()
		sc.Duration = 1
		sc.Actions = []Action{{Kind: Lost, At: 0.49, Duration: 0.1}}

		sum, err := Run(context.Background(), newSession("lost", false), Synthesize(sc), quiet())
		require.NoError(t, err)
		require.Equal(t, 61, sum.Frames)
		require.Equal(t, 6, sum.Skipped)
	})

	t.Run("rejected controls are counted", func(t *testing.T) {
		head := geometry.V3(0, 1.7, 0)
		msgs := []protocol.ClientMessage{
			{Type: protocol.TypeRecenter},
			{Type: "teleport"},
			{Type: protocol.TypeFrame, Time: 0, Head: &head},
		}
		sum, err := Run(context.Background(), newSession("rejected", false), msgs, quiet())
		require.NoError(t, err)
		require.Equal(t, 2, sum.Rejected)
		require.Equal(t, 1, sum.Frames)
	})

	t.Run("auto spawn plays a round", func(t *testing.T) {
		sc := DefaultScript()
		sc.Duration = 20

		sum, err := Run(context.Background(), newSession("auto", true), Synthesize(sc), quiet())
		require.NoError(t, err)
		require.Positive(t, sum.Spawned)
		require.Equal(t, sum.Spawned, sum.Events[bus.EventSpawn])
		require.Equal(t, sum.Missed, sum.Final.Misses)
		require.Equal(t, sum.Missed, sum.Events[bus.EventMiss])
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sum, err := Run(ctx, newSession("cancel", false), Synthesize(DefaultScript()), quiet())
		require.ErrorIs(t, err, context.Canceled)
		require.Zero(t, sum.Messages)
	})

	t.Run("realtime paces frames", func(t *testing.T) {
		head := geometry.V3(0, 1.7, 0)
		msgs := []protocol.ClientMessage{
			{Type: protocol.TypeFrame, Time: 1.00, Head: &head},
			{Type: protocol.TypeFrame, Time: 1.03, Head: &head},
			{Type: protocol.TypeFrame, Time: 1.05, Head: &head},
		}
		start := time.Now()
		_, err := Run(context.Background(), newSession("pace", false), msgs, Options{Realtime: true, Logger: log.NewNop()})
		require.NoError(t, err)
		require.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)
	})
}

func TestRunAll(t *testing.T) {
	sc := DefaultScript()
	sc.Duration = 3
	jobs := []Job{
		{Name: "a", Messages: Synthesize(sc)},
		{Name: "b", Messages: Synthesize(sc)[:31]},
	}

	sums, err := RunAll(context.Background(), jobs, 2, func(j Job) *session.GameSession {
		return newSession(j.Name, false)
	}, quiet())
	require.NoError(t, err)
	require.Len(t, sums, 2)
	require.Equal(t, "a", sums[0].SessionID)
	require.Equal(t, 181, sums[0].Frames)
	require.Equal(t, "b", sums[1].SessionID)
	require.Equal(t, 30, sums[1].Frames)

	_, err = RunAll(context.Background(), nil, 2, nil, quiet())
	require.ErrorIs(t, err, ErrEmptyTrace)

	_, err = RunAll(context.Background(), []Job{{Name: "empty"}}, 1, nil, quiet())
	require.ErrorIs(t, err, ErrEmptyTrace)
}
