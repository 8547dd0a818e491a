package port

import (
	"context"
	"kelvinbot/internal/core/domain"
)

type MessageSender interface {
	// Send posts text as a new message in a channel and returns the sent message.
	Send(ctx context.Context, channelID string, text string) (*domain.Message, error)
}

type MessageEditor interface {
	// Edit replaces the content of a message previously sent by the bot.
	Edit(ctx context.Context, channelID, messageID string, text string) (*domain.Message, error)
	// Delete removes a message from a channel.
	Delete(ctx context.Context, channelID, messageID string) error
}

type Pinner interface {
	// Pin pins a message in its channel.
	Pin(ctx context.Context, channelID, messageID string) error
	// Unpin removes a message from the channel's pin list.
	Unpin(ctx context.Context, channelID, messageID string) error
	// Pins lists the pinned messages of a channel in gateway order.
	Pins(ctx context.Context, channelID string) ([]domain.Message, error)
}

type HistoryReader interface {
	// History returns up to limit of the most recent messages in a channel, newest first.
	History(ctx context.Context, channelID string, limit int) ([]domain.Message, error)
}

// Gateway is everything the bot needs from a chat platform.
type Gateway interface {
	MessageSender
	MessageEditor
	Pinner
	HistoryReader
	// SelfID returns the author ID the bot's own messages carry.
	SelfID() string
}
