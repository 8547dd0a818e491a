package sender

import (
	"context"
	"errors"
	"fmt"
	"kelvinbot/internal/core/domain"
	"net/http"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
)

// DiscordHistoryLimit is the most messages one history request may return.
const DiscordHistoryLimit = 100

type DiscordSession interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessagePin(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageUnpin(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessagesPinned(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string,
		options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

type DiscordSender struct {
	session DiscordSession
	selfID  atomic.Value
}

func NewDiscordSender(session DiscordSession) *DiscordSender {
	s := &DiscordSender{session: session}
	s.selfID.Store("")
	return s
}

// SetSelf records the bot's own user once the gateway session is ready.
func (s *DiscordSender) SetSelf(user *discordgo.User) {
	if user != nil {
		s.selfID.Store(user.ID)
	}
}

func (s *DiscordSender) SelfID() string {
	id, _ := s.selfID.Load().(string)
	return id
}

func (s *DiscordSender) Send(ctx context.Context, channelID string, text string) (*domain.Message, error) {
	m, err := s.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return nil, discordError(err)
	}

	msg := DiscordMessage(m)
	return &msg, nil
}

func (s *DiscordSender) Edit(ctx context.Context, channelID, messageID string, text string) (*domain.Message, error) {
	m, err := s.session.ChannelMessageEdit(channelID, messageID, text, discordgo.WithContext(ctx))
	if err != nil {
		return nil, discordError(err)
	}

	msg := DiscordMessage(m)
	return &msg, nil
}

func (s *DiscordSender) Delete(ctx context.Context, channelID, messageID string) error {
	return discordError(s.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

func (s *DiscordSender) Pin(ctx context.Context, channelID, messageID string) error {
	return discordError(s.session.ChannelMessagePin(channelID, messageID, discordgo.WithContext(ctx)))
}

func (s *DiscordSender) Unpin(ctx context.Context, channelID, messageID string) error {
	return discordError(s.session.ChannelMessageUnpin(channelID, messageID, discordgo.WithContext(ctx)))
}

func (s *DiscordSender) Pins(ctx context.Context, channelID string) ([]domain.Message, error) {
	pinned, err := s.session.ChannelMessagesPinned(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, discordError(err)
	}

	return discordMessages(pinned), nil
}

func (s *DiscordSender) History(ctx context.Context, channelID string, limit int) ([]domain.Message, error) {
	limit = min(max(limit, 1), DiscordHistoryLimit)

	messages, err := s.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, discordError(err)
	}

	return discordMessages(messages), nil
}

// DiscordMessage converts a Discord message. Anything that is neither a plain
// message nor a reply counts as a system message.
func DiscordMessage(m *discordgo.Message) domain.Message {
	if m == nil {
		return domain.Message{}
	}

	msg := domain.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Pinned:    m.Pinned,
		Timestamp: m.Timestamp,
		System:    m.Type != discordgo.MessageTypeDefault && m.Type != discordgo.MessageTypeReply,
	}

	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.DisplayName()
		msg.Bot = m.Author.Bot
		msg.System = msg.System || m.Author.System
	}

	return msg
}

func discordMessages(messages []*discordgo.Message) []domain.Message {
	out := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m != nil {
			out = append(out, DiscordMessage(m))
		}
	}
	return out
}

func discordError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		forbidden := restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
		missing := restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeMissingPermissions
		if forbidden || missing {
			return fmt.Errorf("%w: %w", domain.ErrPermission, err)
		}
	}

	return err
}
