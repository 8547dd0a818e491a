package service

import (
	"context"
	"errors"
	"fmt"
	"kelvinbot/internal/core/domain"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultDeliveryTimeout = 30 * time.Second

type TimerGateway interface {
	Pin(ctx context.Context, channelID, messageID string) error
	Unpin(ctx context.Context, channelID, messageID string) error
	Delete(ctx context.Context, channelID, messageID string) error
}

// Timer is one pending notification. It owns its deadline and its cleanup;
// nothing else keeps track of it.
type Timer struct {
	ID           uuid.UUID
	ChannelID    string
	AuthorName   string
	Recall       string
	Created      time.Time
	Duration     time.Duration
	Deadline     time.Time
	Confirmation *domain.Message

	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the timer before it fires. Cancelled timers send nothing.
func (t *Timer) Cancel() {
	t.cancel()
}

// Done is closed once the timer has fired or been cancelled.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

type TimerEngine struct {
	replier         *Replier
	gateway         TimerGateway
	deliveryTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	l      *zerolog.Logger
}

type TimerEngineParams struct {
	Replier         *Replier
	Gateway         TimerGateway
	DeliveryTimeout time.Duration
}

// NewTimerEngine creates an engine whose timers live until they fire, are
// cancelled, or ctx ends.
func NewTimerEngine(ctx context.Context, p TimerEngineParams) *TimerEngine {
	logger := log.With().Str("service", "timer").Logger()

	ctx, cancel := context.WithCancel(ctx)

	e := &TimerEngine{
		replier:         p.Replier,
		gateway:         p.Gateway,
		deliveryTimeout: p.DeliveryTimeout,
		ctx:             ctx,
		cancel:          cancel,
		l:               &logger,
	}

	if e.deliveryTimeout <= 0 {
		e.deliveryTimeout = DefaultDeliveryTimeout
	}

	return e
}

// Start confirms the timer in the request's channel, pins the confirmation and
// schedules the completion notice. It returns as soon as the timer is pending.
func (e *TimerEngine) Start(ctx context.Context, request *domain.Request, d time.Duration,
	recall string) (*Timer, error) {
	if d <= 0 {
		return nil, domain.ErrDurationZero
	}

	if err := e.ctx.Err(); err != nil {
		return nil, fmt.Errorf("timer engine stopped: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to create timer id: %w", err)
	}

	now := time.Now()
	t := &Timer{
		ID:         id,
		ChannelID:  request.Message.ChannelID,
		AuthorName: request.Message.AuthorName,
		Recall:     recall,
		Created:    now,
		Duration:   d,
		Deadline:   now.Add(d),
		done:       make(chan struct{}),
	}

	l := e.l.With().
		Str("timerId", id.String()).
		Str("channelId", t.ChannelID).
		Dur("duration", d).
		Logger()

	confirmation, err := e.replier.Send(ctx, t.ChannelID, confirmationText(t))
	if err != nil {
		return nil, fmt.Errorf("failed to confirm timer: %w", err)
	}
	t.Confirmation = confirmation

	if err := e.gateway.Pin(ctx, t.ChannelID, confirmation.ID); err != nil {
		if errors.Is(err, domain.ErrPermission) {
			l.Warn().Err(err).Msg("bot is not allowed to pin the timer message")
		} else {
			l.Warn().Err(err).Msg("failed to pin timer message")
		}
	}

	timerCtx, cancel := context.WithCancel(e.ctx)
	t.cancel = cancel

	e.wg.Add(1)
	go e.run(timerCtx, t, &l)

	l.Info().Time("deadline", t.Deadline).Msg("timer started")

	return t, nil
}

func (e *TimerEngine) run(ctx context.Context, t *Timer, l *zerolog.Logger) {
	defer e.wg.Done()
	defer close(t.done)
	defer t.cancel()

	timer := time.NewTimer(t.Duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		l.Debug().Msg("timer cancelled")
		return
	case <-timer.C:
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.deliveryTimeout)
	defer cancel()

	if _, err := e.replier.Send(ctx, t.ChannelID, completionText(t)); err != nil {
		l.Error().Err(err).Msg("failed to deliver timer notification")
	} else {
		l.Info().Msg("timer fired")
	}

	if t.Confirmation == nil {
		return
	}

	if err := e.gateway.Unpin(ctx, t.ChannelID, t.Confirmation.ID); err != nil {
		l.Debug().Err(err).Msg("could not unpin timer message")
	}

	if err := e.gateway.Delete(ctx, t.ChannelID, t.Confirmation.ID); err != nil {
		l.Debug().Err(err).Msg("could not delete timer message")
	}
}

// Stop cancels every pending timer.
func (e *TimerEngine) Stop() {
	e.cancel()
}

// Wait blocks until every timer goroutine has returned.
func (e *TimerEngine) Wait() {
	e.wg.Wait()
}

func confirmationText(t *Timer) string {
	text := fmt.Sprintf("⏲️ timer set for %s, fires at %s",
		domain.FormatDuration(t.Duration), t.Deadline.UTC().Format(time.RFC3339))
	if t.Recall != "" {
		text += "\n> " + t.Recall
	}
	return text
}

func completionText(t *Timer) string {
	if t.Recall == "" {
		return fmt.Sprintf("⏰ %s, timer is up.", t.AuthorName)
	}
	return fmt.Sprintf("⏰ %s, timer is up: %s", t.AuthorName, t.Recall)
}
