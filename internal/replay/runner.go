package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/zeusync/arcourse/internal/core/events/bus"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/protocol"
	"github.com/zeusync/arcourse/internal/core/scoring"
	"github.com/zeusync/arcourse/internal/core/session"
	"github.com/zeusync/arcourse/pkg/concurrent"
)

type Options struct {
	// Realtime paces frames by the gaps between their timestamps.
	Realtime bool
	Logger   log.Log
}

// Summary describes one replayed trace.
type Summary struct {
	SessionID string                `json:"session_id"`
	Messages  int                   `json:"messages"`
	Frames    int                   `json:"frames"`
	Skipped   int                   `json:"skipped"`
	Spawned   int                   `json:"spawned"`
	Scored    int                   `json:"scored"`
	Missed    int                   `json:"missed"`
	Rejected  int                   `json:"rejected"`
	Final     scoring.Snapshot      `json:"final"`
	Events    map[bus.EventType]int `json:"events"`
}

// Run feeds msgs through s in order. Messages the session rejects are
// counted and logged; only context cancellation stops the run early.
func Run(ctx context.Context, s *session.GameSession, msgs []protocol.ClientMessage, opts Options) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Provide()
	}
	logger = logger.With(log.String("component", "replay"), log.String("session_id", s.ID()))

	sum := Summary{SessionID: s.ID(), Events: make(map[bus.EventType]int)}
	sub, err := s.Bus().SubscribeAll(func(e bus.Event) error {
		sum.Events[e.Type()]++
		return nil
	})
	if err != nil {
		return sum, err
	}
	defer func() { _ = sub.Cancel() }()

	var (
		lastTime float64
		hasTime  bool
	)
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			sum.Final = s.Stats()
			return sum, err
		}
		if opts.Realtime && msg.Type == protocol.TypeFrame {
			if hasTime && msg.Time > lastTime {
				if err := sleep(ctx, time.Duration((msg.Time-lastTime)*float64(time.Second))); err != nil {
					sum.Final = s.Stats()
					return sum, err
				}
			}
			lastTime, hasTime = msg.Time, true
		}

		sum.Messages++
		step, err := protocol.Dispatch(s, msg)
		if err != nil {
			sum.Rejected++
			logger.Warn("message rejected",
				log.Int("index", i),
				log.String("type", string(msg.Type)),
				log.Error(err),
			)
			continue
		}
		if msg.Type != protocol.TypeFrame {
			continue
		}
		sum.Frames++
		if step.Skipped {
			sum.Skipped++
		}
		sum.Spawned += step.Spawned
		sum.Scored += step.Scored
		sum.Missed += step.Missed
	}

	sum.Final = s.Stats()
	logger.Info("replay finished",
		log.Int("frames", sum.Frames),
		log.Int("score", sum.Final.Score),
		log.Int("misses", sum.Final.Misses),
	)
	return sum, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Job is one trace to replay in its own session.
type Job struct {
	Name     string
	Messages []protocol.ClientMessage
}

// RunAll replays each job in a fresh session built by newSession, at most
// workers at a time. Summaries come back in job order.
func RunAll(ctx context.Context, jobs []Job, workers int, newSession func(Job) *session.GameSession, opts Options) ([]Summary, error) {
	if len(jobs) == 0 {
		return nil, ErrEmptyTrace
	}
	return concurrent.ParallelMap(ctx, jobs, workers, func(ctx context.Context, job Job) (Summary, error) {
		if len(job.Messages) == 0 {
			return Summary{}, fmt.Errorf("%s: %w", job.Name, ErrEmptyTrace)
		}
		return Run(ctx, newSession(job), job.Messages, opts)
	})
}
