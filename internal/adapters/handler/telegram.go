package handler

import (
	"context"
	"kelvinbot/internal/adapters/sender"
	"kelvinbot/internal/core/domain"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

type MessageObserver interface {
	Observe(msg domain.Message)
}

type Telegram struct {
	command  *Command
	observer MessageObserver
}

func NewTelegram(command *Command, observer MessageObserver) *Telegram {
	return &Telegram{command: command, observer: observer}
}

// Handle is registered as the bot's default handler so every message is
// seen, not only commands.
func (t *Telegram) Handle(_ context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	msg := sender.TelegramMessage(update.Message)

	log.Trace().Str("messageId", msg.ID).Str("channelId", msg.ChannelID).Msg("telegram message")

	if t.observer != nil {
		t.observer.Observe(msg)
	}

	t.command.Submit(msg)
}
