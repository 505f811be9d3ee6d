package protocol

import (
	"context"
	"sort"
	"time"
)

// ClientInfo describes a connected player device.
type ClientInfo struct {
	ID            string
	RemoteAddress string
	UserAgent     string
	Token         string
	ConnectedAt   time.Time
}

// Middleware hooks into the connection lifecycle. A non-nil error from
// OnConnect refuses the connection; from BeforeHandle it drops the message.
type Middleware interface {
	Name() string
	Priority() uint16

	OnConnect(ctx context.Context, client ClientInfo) error
	BeforeHandle(ctx context.Context, client ClientInfo, msg ClientMessage) error
	AfterHandle(ctx context.Context, client ClientInfo, msg ClientMessage, err error)
	OnDisconnect(ctx context.Context, client ClientInfo, reason string)
}

// Chain runs middlewares in descending priority.
type Chain []Middleware

func NewChain(mws ...Middleware) Chain {
	c := append(Chain(nil), mws...)
	sort.SliceStable(c, func(i, j int) bool { return c[i].Priority() > c[j].Priority() })
	return c
}

func (c Chain) OnConnect(ctx context.Context, client ClientInfo) error {
	for _, m := range c {
		if err := m.OnConnect(ctx, client); err != nil {
			return err
		}
	}
	return nil
}

func (c Chain) BeforeHandle(ctx context.Context, client ClientInfo, msg ClientMessage) error {
	for _, m := range c {
		if err := m.BeforeHandle(ctx, client, msg); err != nil {
			return err
		}
	}
	return nil
}

func (c Chain) AfterHandle(ctx context.Context, client ClientInfo, msg ClientMessage, err error) {
	for _, m := range c {
		m.AfterHandle(ctx, client, msg, err)
	}
}

func (c Chain) OnDisconnect(ctx context.Context, client ClientInfo, reason string) {
	for _, m := range c {
		m.OnDisconnect(ctx, client, reason)
	}
}
