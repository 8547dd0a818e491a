package command

import (
	"context"
	"fmt"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/service"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Help struct {
	replier *service.Replier
	prefix  string
	l       *zerolog.Logger
}

type HelpParams struct {
	Replier *service.Replier
	Prefix  string
}

func NewHelp(p HelpParams) *Help {
	logger := log.With().Str("handler", "help").Logger()

	return &Help{
		replier: p.Replier,
		prefix:  p.Prefix,
		l:       &logger,
	}
}

func (h *Help) GetAction() domain.Action {
	return domain.ActionHelp
}

func (h *Help) Respond(ctx context.Context, timeout time.Duration, request *domain.Request) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	h.l.Debug().
		Str("messageId", request.Message.ID).
		Str("channelId", request.Message.ChannelID).
		Msg("sending usage")

	_, err := h.replier.Send(ctx, request.Message.ChannelID, Usage(h.prefix))
	return err
}

// Usage is the help text for the given entry prefix.
func Usage(prefix string) string {
	return fmt.Sprintf("```USAGE:\n"+
		"%[1]s[ACTION] [CONTEXT]\n\n"+
		"ACTION:\n"+
		"HELP    - Show this message. (%[1]s alone works too)\n"+
		"WEATHER - Current weather for the configured location. (aliases: temperature, temp)\n"+
		"GEO     - The configured location and its coordinates.\n"+
		"CHAT    - Ask DeepSeek AI what you put in [CONTEXT]. Without [CONTEXT], reply to the recent conversation.\n"+
		"REASON  - Ask the DeepSeek reasoning model what you put in [CONTEXT].\n"+
		"TIMER   - Set a timer to trigger after time elapsed. (#d#h#m#s [MESSAGE])\n\n"+
		"Pin a message starting with %[1]schat to apply its [CONTEXT] as instructions to every message in the channel.```",
		prefix)
}
