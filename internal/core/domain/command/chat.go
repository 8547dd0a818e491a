package command

import (
	"context"
	"fmt"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/port"
	"kelvinbot/internal/core/service"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHistorySize = 10

	chatFailureText = "could not complete the request."
	emptyPromptText = "please input a prompt"
)

// ChatHistory reads past messages and names the bot's own author ID, so the
// bot's earlier replies can be told apart from other participants.
type ChatHistory interface {
	port.HistoryReader
	SelfID() string
}

// Chat answers through the completion service. One instance serves plain chat
// (and pinned directives), another serves reasoning.
type Chat struct {
	replier       *service.Replier
	generator     port.TextGenerator
	history       ChatHistory
	action        domain.Action
	historySize   int
	stripMarkdown bool
	placeholder   string

	l *zerolog.Logger
}

type ChatParams struct {
	Replier       *service.Replier
	TextGenerator port.TextGenerator
	History       ChatHistory
	Action        domain.Action
	HistorySize   int
	StripMarkdown bool
	// Placeholder is skipped when replaying channel history.
	Placeholder string
}

func NewChat(p ChatParams) (*Chat, error) {
	if p.Action != domain.ActionChat && p.Action != domain.ActionReason {
		return nil, fmt.Errorf("chat can't serve action %s", p.Action)
	}

	logger := log.With().
		Stringer("action", p.Action).
		Str("handler", "chat").
		Logger()

	h := &Chat{
		replier:       p.Replier,
		generator:     p.TextGenerator,
		history:       p.History,
		action:        p.Action,
		historySize:   p.HistorySize,
		stripMarkdown: p.StripMarkdown,
		placeholder:   p.Placeholder,
		l:             &logger,
	}

	if h.historySize <= 0 {
		h.historySize = DefaultHistorySize
	}
	if h.placeholder == "" {
		h.placeholder = service.DefaultPlaceholder
	}

	return h, nil
}

func (c *Chat) GetAction() domain.Action {
	return c.action
}

func (c *Chat) mode() domain.Mode {
	if c.action == domain.ActionReason {
		return domain.ModeReason
	}
	return domain.ModeChat
}

func (c *Chat) Respond(ctx context.Context, timeout time.Duration, request *domain.Request) error {
	l := c.l.With().
		Str("messageId", request.Message.ID).
		Str("channelId", request.Message.ChannelID).
		Str("func", "Respond").
		Logger()

	l.Debug().Str("prompt", request.Argument).
		Str("directive", request.Directive).
		Str("username", request.Message.AuthorName).
		Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	channelID := request.Message.ChannelID

	if c.action == domain.ActionReason && strings.TrimSpace(request.Argument) == "" {
		l.Debug().Msg("empty reasoning prompt")
		_, err := c.replier.Send(ctx, channelID, emptyPromptText)
		return err
	}

	placeholder, err := c.replier.Placeholder(ctx, channelID)
	if err != nil {
		return err
	}

	prompts, err := c.prompts(ctx, request)
	if err != nil {
		return c.replier.Fail(ctx, placeholder, channelID, chatFailureText,
			fmt.Errorf("failed to build prompt: %w", err))
	}

	if len(prompts) == 0 {
		l.Debug().Msg("nothing to reply to")
		_, err := c.replier.Finalize(ctx, placeholder, emptyPromptText)
		return err
	}

	response, err := c.generator.GenerateFromPrompt(ctx, c.mode(), prompts)
	if err != nil {
		return c.replier.Fail(ctx, placeholder, channelID, chatFailureText,
			fmt.Errorf("failed to generate response: %w", err))
	}

	if c.stripMarkdown {
		if plain := strings.TrimSpace(domain.PlainText(response)); plain != "" {
			response = plain
		}
	}

	if strings.TrimSpace(response) == "" {
		return c.replier.Fail(ctx, placeholder, channelID, chatFailureText,
			fmt.Errorf("empty response: %w", domain.ErrUpstream))
	}

	l.Trace().Int("length", len([]rune(response))).Msg("finalizing reply")

	_, err = c.replier.Finalize(ctx, placeholder, response)
	return err
}

func (c *Chat) prompts(ctx context.Context, request *domain.Request) ([]domain.Prompt, error) {
	switch {
	case request.Directive != "":
		return []domain.Prompt{
			{Role: domain.System, Prompt: request.Directive},
			{Role: domain.User, Prompt: request.Argument},
		}, nil
	case strings.TrimSpace(request.Argument) != "":
		return []domain.Prompt{{Role: domain.User, Prompt: request.Argument}}, nil
	default:
		return c.historyPrompts(ctx, request.Message)
	}
}

// historyPrompts replays the channel's recent messages, oldest first, leaving
// out the message that asked for them. Only the bot's own messages become
// assistant turns; other bots count as users.
func (c *Chat) historyPrompts(ctx context.Context, trigger *domain.Message) ([]domain.Prompt, error) {
	messages, err := c.history.History(ctx, trigger.ChannelID, c.historySize+1)
	if err != nil {
		return nil, err
	}

	self := c.history.SelfID()

	prompts := make([]domain.Prompt, 0, c.historySize)
	for _, m := range messages {
		if len(prompts) == c.historySize {
			break
		}
		if m.ID == trigger.ID || m.System || strings.TrimSpace(m.Content) == "" {
			continue
		}

		if self != "" && m.AuthorID == self {
			if m.Content == c.placeholder {
				continue
			}
			prompts = append(prompts, domain.Prompt{Role: domain.Assistant, Prompt: m.Content})
			continue
		}

		prompts = append(prompts, domain.Prompt{Role: domain.User, Prompt: m.AuthorName + ": " + m.Content})
	}

	slices.Reverse(prompts)
	return prompts, nil
}
