package generator

import (
	"context"
	"errors"
	"fmt"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/port"
	"strings"
	"sync"

	"github.com/revrost/go-openrouter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL     = "https://api.deepseek.com/v1"
	DefaultChatModel   = "deepseek-chat"
	DefaultReasonModel = "deepseek-reasoner"
)

type ChatClient interface {
	CreateChatCompletion(ctx context.Context,
		ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

// DeepSeek sends completions to an OpenAI-compatible endpoint. The API key is
// read on every call, so a missing key only fails the request at hand.
type DeepSeek struct {
	tokens      port.TokenLookup
	newClient   func(token string) ChatClient
	chatModel   string
	reasonModel string

	mu     sync.Mutex
	token  string
	client ChatClient

	l *zerolog.Logger
}

type DeepSeekParams struct {
	Tokens      port.TokenLookup
	BaseURL     string
	ChatModel   string
	ReasonModel string
}

func NewDeepSeek(p DeepSeekParams) *DeepSeek {
	logger := log.With().Str("generator", "deepseek").Logger()

	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	g := &DeepSeek{
		tokens:      p.Tokens,
		chatModel:   p.ChatModel,
		reasonModel: p.ReasonModel,
		newClient: func(token string) ChatClient {
			cfg := openrouter.DefaultConfig(token)
			cfg.BaseURL = baseURL
			return openrouter.NewClientWithConfig(*cfg)
		},
		l: &logger,
	}

	if g.chatModel == "" {
		g.chatModel = DefaultChatModel
	}
	if g.reasonModel == "" {
		g.reasonModel = DefaultReasonModel
	}

	return g
}

func (g *DeepSeek) GenerateFromPrompt(ctx context.Context, mode domain.Mode,
	prompts []domain.Prompt) (string, error) {
	if len(prompts) == 0 {
		return "", domain.ErrEmptyPrompt
	}

	client, err := g.clientFor()
	if err != nil {
		return "", err
	}

	model := g.chatModel
	if mode == domain.ModeReason {
		model = g.reasonModel
	}

	ccr := openrouter.ChatCompletionRequest{
		Messages: createMessages(prompts),
		Model:    model,
	}

	g.l.Debug().Str("model", model).Int("messages", len(ccr.Messages)).Msg("requesting completion")

	resp, err := client.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return "", fmt.Errorf("deepseek API error: %w", errors.Join(domain.ErrUpstream, err))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response: %w", domain.ErrUpstream)
	}

	text := resp.Choices[0].Message.Content.Text
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty message in response: %w", domain.ErrUpstream)
	}

	g.l.Debug().Str("model", resp.Model).Int("length", len(text)).Msg("completion received")

	return text, nil
}

func (g *DeepSeek) clientFor() (ChatClient, error) {
	token, err := g.tokens.Get(domain.DeepSeekToken)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil || g.token != token {
		g.client = g.newClient(token)
		g.token = token
	}

	return g.client, nil
}

func createMessages(prompts []domain.Prompt) []openrouter.ChatCompletionMessage {
	messages := make([]openrouter.ChatCompletionMessage, 0, len(prompts))

	for _, prompt := range prompts {
		role := openrouter.ChatMessageRoleUser
		switch prompt.Role {
		case domain.System:
			role = openrouter.ChatMessageRoleSystem
		case domain.Assistant:
			role = openrouter.ChatMessageRoleAssistant
		}

		messages = append(messages, openrouter.ChatCompletionMessage{
			Role:    role,
			Content: openrouter.Content{Text: prompt.Prompt},
		})
	}

	return messages
}
