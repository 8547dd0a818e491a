package command

import (
	"context"
	"errors"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/service"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const timerFailureText = "could not start the timer."

type Timer struct {
	replier *service.Replier
	engine  *service.TimerEngine
	l       *zerolog.Logger
}

type TimerParams struct {
	Replier *service.Replier
	Engine  *service.TimerEngine
}

func NewTimer(p TimerParams) *Timer {
	logger := log.With().Str("handler", "timer").Logger()

	return &Timer{
		replier: p.Replier,
		engine:  p.Engine,
		l:       &logger,
	}
}

func (t *Timer) GetAction() domain.Action {
	return domain.ActionTimer
}

// Respond reads "<duration> [recall message]" and hands the timer to the
// engine. Malformed durations get an explanation, not an error.
func (t *Timer) Respond(ctx context.Context, timeout time.Duration, request *domain.Request) error {
	l := t.l.With().
		Str("messageId", request.Message.ID).
		Str("channelId", request.Message.ChannelID).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	channelID := request.Message.ChannelID

	word, recall := domain.Split("", strings.TrimSpace(request.Argument))
	recall = strings.TrimSpace(recall)

	d, err := domain.ParseDuration(word)
	if err != nil {
		l.Debug().Err(err).Str("input", word).Msg("invalid timer duration")
		_, sendErr := t.replier.Send(ctx, channelID, durationErrorText(err))
		return sendErr
	}

	timer, err := t.engine.Start(ctx, request, d, recall)
	if err != nil {
		return t.replier.NotifyAndReturnError(ctx, channelID, timerFailureText, err)
	}

	l.Debug().Str("timerId", timer.ID.String()).Msg("timer pending")

	return nil
}

func durationErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrDurationEmpty):
		return "no time given. try something like 1h30m."
	case errors.Is(err, domain.ErrDurationOverflow):
		return "time metric is too large."
	case errors.Is(err, domain.ErrDurationZero):
		return "time must be longer than zero."
	default:
		return "time metric is invalid."
	}
}
