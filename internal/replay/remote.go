package replay

import (
	"context"
	"time"

	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/protocol"
	"github.com/zeusync/arcourse/internal/core/scoring"
	"github.com/zeusync/arcourse/sdk/go/client"
)

const replyTimeout = 2 * time.Second

// RemoteSummary describes a trace streamed to a server.
type RemoteSummary struct {
	SessionID string           `json:"session_id"`
	Messages  int              `json:"messages"`
	Acked     int              `json:"acked"`
	Rejected  int              `json:"rejected"`
	Dropped   int              `json:"dropped"`
	Final     scoring.Snapshot `json:"final"`
}

// Stream sends msgs over a connected client in lock-step: each message
// waits for its state or error reply. Messages the server drops without a
// reply are counted after replyTimeout.
func Stream(ctx context.Context, c *client.Client, msgs []protocol.ClientMessage, opts Options) (RemoteSummary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Provide()
	}
	logger = logger.With(log.String("component", "replay"), log.String("session_id", c.SessionID()))

	replies := make(chan protocol.ServerMessage, 1)
	forward := func(msg protocol.ServerMessage) error {
		select {
		case replies <- msg:
		default:
		}
		return nil
	}
	c.OnMessage(protocol.TypeState, forward)
	c.OnMessage(protocol.TypeError, forward)

	sum := RemoteSummary{SessionID: c.SessionID()}
	var (
		lastTime float64
		hasTime  bool
	)
	for i, msg := range msgs {
		if opts.Realtime && msg.Type == protocol.TypeFrame {
			if hasTime && msg.Time > lastTime {
				if err := sleep(ctx, time.Duration((msg.Time-lastTime)*float64(time.Second))); err != nil {
					return sum, err
				}
			}
			lastTime, hasTime = msg.Time, true
		}

		if err := c.Send(msg); err != nil {
			return sum, err
		}
		sum.Messages++

		timer := time.NewTimer(replyTimeout)
		select {
		case <-ctx.Done():
			timer.Stop()
			return sum, ctx.Err()
		case reply := <-replies:
			timer.Stop()
			if reply.Type == protocol.TypeError {
				sum.Rejected++
				logger.Warn("message rejected", log.Int("index", i), log.String("error", reply.Error))
				continue
			}
			sum.Acked++
			if reply.HUD != nil {
				sum.Final = scoring.Snapshot{Score: reply.HUD.Score, Combo: reply.HUD.Combo, Misses: reply.HUD.Misses}
			}
		case <-timer.C:
			sum.Dropped++
		}
	}

	logger.Info("stream finished",
		log.Int("acked", sum.Acked),
		log.Int("dropped", sum.Dropped),
		log.Int("score", sum.Final.Score),
	)
	return sum, nil
}
