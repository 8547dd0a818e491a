package command

import (
	"context"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/service"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	NoOpText       = "non-action. 🎣"
	PinnedNoOpText = "pinned non-action. 📌"
)

// NoOp acknowledges a message that asks for nothing the bot can do.
type NoOp struct {
	replier *service.Replier
	action  domain.Action
	text    string
	l       *zerolog.Logger
}

func NewNoOp(replier *service.Replier) *NoOp {
	return newNoOp(replier, domain.ActionNone, NoOpText)
}

// NewPinnedNoOp answers messages in channels whose pinned command is not a
// chat directive.
func NewPinnedNoOp(replier *service.Replier) *NoOp {
	return newNoOp(replier, domain.ActionPinnedNone, PinnedNoOpText)
}

func newNoOp(replier *service.Replier, action domain.Action, text string) *NoOp {
	logger := log.With().Str("handler", action.String()).Logger()

	return &NoOp{
		replier: replier,
		action:  action,
		text:    text,
		l:       &logger,
	}
}

func (n *NoOp) GetAction() domain.Action {
	return n.action
}

func (n *NoOp) Respond(ctx context.Context, timeout time.Duration, request *domain.Request) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	n.l.Trace().
		Str("messageId", request.Message.ID).
		Str("channelId", request.Message.ChannelID).
		Msg("non-action")

	_, err := n.replier.Send(ctx, request.Message.ChannelID, n.text)
	return err
}
