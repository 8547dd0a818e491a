package handler

import (
	"context"
	"errors"
	"kelvinbot/internal/core/domain"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultWorkers = 16

type Dispatcher interface {
	Dispatch(ctx context.Context, msg *domain.Message) error
}

// Command hands inbound messages to the dispatcher on a bounded worker pool so
// the platform's receive loop never waits on a handler.
type Command struct {
	dispatcher Dispatcher
	pool       *workerpool.WorkerPool
	ctx        context.Context
	l          *zerolog.Logger
}

type CommandParams struct {
	Gateway    string
	Dispatcher Dispatcher
	Workers    int
}

// NewCommand creates the pool. Jobs run under ctx, so cancelling it aborts
// in-flight handlers.
func NewCommand(ctx context.Context, p CommandParams) *Command {
	logger := log.With().Str("gateway", p.Gateway).Logger()

	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Command{
		dispatcher: p.Dispatcher,
		pool:       workerpool.New(workers),
		ctx:        ctx,
		l:          &logger,
	}
}

func (c *Command) Submit(msg domain.Message) {
	c.l.Trace().
		Str("messageId", msg.ID).
		Str("channelId", msg.ChannelID).
		Int("waiting", c.pool.WaitingQueueSize()).
		Msg("received message")

	c.pool.Submit(func() {
		err := c.dispatcher.Dispatch(c.ctx, &msg)
		if err == nil {
			return
		}

		l := c.l.With().
			Str("messageId", msg.ID).
			Str("channelId", msg.ChannelID).
			Logger()

		var actionErr *domain.ActionError
		if errors.As(err, &actionErr) {
			l.Err(err).Stringer("action", actionErr.Action).Msg("failed to respond to command")
			return
		}
		l.Err(err).Msg("failed to dispatch message")
	})
}

// Stop waits for queued jobs to finish and releases the workers.
func (c *Command) Stop() {
	c.pool.StopWait()
}
