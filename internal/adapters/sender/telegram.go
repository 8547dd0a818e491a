package sender

import (
	"context"
	"errors"
	"fmt"
	"kelvinbot/internal/core/domain"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const DefaultTelegramHistorySize = 50

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	PinChatMessage(ctx context.Context, params *bot.PinChatMessageParams) (bool, error)
	UnpinChatMessage(ctx context.Context, params *bot.UnpinChatMessageParams) (bool, error)
	GetChat(ctx context.Context, params *bot.GetChatParams) (*models.ChatFullInfo, error)
}

// TelegramSender talks to the Bot API. The API cannot list past messages, so
// history comes from the messages this sender has observed.
type TelegramSender struct {
	bot     TelegramBot
	history *channelHistory
	selfID  atomic.Value
}

func NewTelegramSender(b TelegramBot, historySize int) *TelegramSender {
	if historySize <= 0 {
		historySize = DefaultTelegramHistorySize
	}

	s := &TelegramSender{bot: b, history: newChannelHistory(historySize)}
	s.selfID.Store("")
	return s
}

func (s *TelegramSender) SetSelf(user *models.User) {
	if user != nil {
		s.selfID.Store(strconv.FormatInt(user.ID, 10))
	}
}

func (s *TelegramSender) SelfID() string {
	id, _ := s.selfID.Load().(string)
	return id
}

// Observe adds an inbound message to the channel history.
func (s *TelegramSender) Observe(msg domain.Message) {
	if msg.System {
		return
	}
	s.history.Record(msg)
}

func (s *TelegramSender) Send(ctx context.Context, channelID string, text string) (*domain.Message, error) {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return nil, err
	}

	m, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return nil, telegramError(err)
	}

	msg := TelegramMessage(m)
	msg.Bot = true
	s.history.Record(msg)

	return &msg, nil
}

func (s *TelegramSender) Edit(ctx context.Context, channelID, messageID string, text string) (*domain.Message, error) {
	chatID, msgID, err := parseIDs(channelID, messageID)
	if err != nil {
		return nil, err
	}

	m, err := s.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: msgID,
		Text:      text,
	})
	if err != nil {
		return nil, telegramError(err)
	}

	s.history.Update(channelID, messageID, text)

	msg := TelegramMessage(m)
	msg.Bot = true
	return &msg, nil
}

func (s *TelegramSender) Delete(ctx context.Context, channelID, messageID string) error {
	chatID, msgID, err := parseIDs(channelID, messageID)
	if err != nil {
		return err
	}

	if _, err := s.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: msgID}); err != nil {
		return telegramError(err)
	}

	s.history.Remove(channelID, messageID)
	return nil
}

func (s *TelegramSender) Pin(ctx context.Context, channelID, messageID string) error {
	chatID, msgID, err := parseIDs(channelID, messageID)
	if err != nil {
		return err
	}

	_, err = s.bot.PinChatMessage(ctx, &bot.PinChatMessageParams{
		ChatID:              chatID,
		MessageID:           msgID,
		DisableNotification: true,
	})
	return telegramError(err)
}

func (s *TelegramSender) Unpin(ctx context.Context, channelID, messageID string) error {
	chatID, msgID, err := parseIDs(channelID, messageID)
	if err != nil {
		return err
	}

	_, err = s.bot.UnpinChatMessage(ctx, &bot.UnpinChatMessageParams{ChatID: chatID, MessageID: msgID})
	return telegramError(err)
}

// Pins returns the chat's most recent pin; the Bot API exposes no other.
func (s *TelegramSender) Pins(ctx context.Context, channelID string) ([]domain.Message, error) {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return nil, err
	}

	chat, err := s.bot.GetChat(ctx, &bot.GetChatParams{ChatID: chatID})
	if err != nil {
		return nil, telegramError(err)
	}

	if chat == nil || chat.PinnedMessage == nil {
		return nil, nil
	}

	pinned := TelegramMessage(chat.PinnedMessage)
	pinned.Pinned = true
	return []domain.Message{pinned}, nil
}

func (s *TelegramSender) History(_ context.Context, channelID string, limit int) ([]domain.Message, error) {
	return s.history.Recent(channelID, limit), nil
}

// TelegramMessage converts a Bot API message. Service messages such as member
// joins and pin notices count as system messages.
func TelegramMessage(m *models.Message) domain.Message {
	if m == nil {
		return domain.Message{}
	}

	msg := domain.Message{
		ID:        strconv.Itoa(m.ID),
		ChannelID: strconv.FormatInt(m.Chat.ID, 10),
		Content:   m.Text,
		Timestamp: time.Unix(int64(m.Date), 0),
		System: m.PinnedMessage != nil || len(m.NewChatMembers) > 0 || m.LeftChatMember != nil ||
			m.NewChatTitle != "",
	}

	if msg.Content == "" {
		msg.Content = m.Caption
	}

	if m.From == nil {
		msg.System = true
		return msg
	}

	msg.AuthorID = strconv.FormatInt(m.From.ID, 10)
	msg.AuthorName = userNameOrFirstName(m.From)
	msg.Bot = m.From.IsBot

	return msg
}

func userNameOrFirstName(user *models.User) string {
	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}

func parseChatID(channelID string) (int64, error) {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", channelID, err)
	}
	return chatID, nil
}

func parseIDs(channelID, messageID string) (int64, int, error) {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return 0, 0, err
	}

	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid telegram message id %q: %w", messageID, err)
	}

	return chatID, msgID, nil
}

func telegramError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, bot.ErrorForbidden) || strings.Contains(strings.ToLower(err.Error()), "not enough rights") {
		return fmt.Errorf("%w: %w", domain.ErrPermission, err)
	}

	return err
}
