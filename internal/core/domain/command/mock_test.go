package command

import (
	"context"
	"errors"
	"fmt"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/service"
	"sync"
	"testing"
)

type sent struct {
	kind      string
	messageID string
	text      string
}

type MockGateway struct {
	mu      sync.Mutex
	ops     []sent
	nextID  int
	err     error
	history []domain.Message
	histErr error
	selfID  string
	// honorCtx makes every call fail once its context is done.
	honorCtx bool
}

func (m *MockGateway) record(ctx context.Context, kind, messageID, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.honorCtx && ctx.Err() != nil {
		return "", ctx.Err()
	}

	if m.err != nil {
		return "", m.err
	}

	m.ops = append(m.ops, sent{kind: kind, messageID: messageID, text: text})
	if messageID == "" {
		m.nextID++
		messageID = fmt.Sprintf("m%d", m.nextID)
	}
	return messageID, nil
}

func (m *MockGateway) Ops() []sent {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make([]sent, len(m.ops))
	copy(ops, m.ops)
	return ops
}

// Texts returns the content of every send and edit, in order.
func (m *MockGateway) Texts() []string {
	var texts []string
	for _, o := range m.Ops() {
		if o.kind == "send" || o.kind == "edit" {
			texts = append(texts, o.text)
		}
	}
	return texts
}

func (m *MockGateway) Send(ctx context.Context, channelID string, text string) (*domain.Message, error) {
	id, err := m.record(ctx, "send", "", text)
	if err != nil {
		return nil, err
	}
	return &domain.Message{ID: id, ChannelID: channelID, Content: text, Bot: true}, nil
}

func (m *MockGateway) Edit(ctx context.Context, channelID, messageID string, text string) (*domain.Message, error) {
	id, err := m.record(ctx, "edit", messageID, text)
	if err != nil {
		return nil, err
	}
	return &domain.Message{ID: id, ChannelID: channelID, Content: text, Bot: true}, nil
}

func (m *MockGateway) Delete(ctx context.Context, _, messageID string) error {
	_, err := m.record(ctx, "delete", messageID, "")
	return err
}

func (m *MockGateway) Pin(ctx context.Context, _, messageID string) error {
	_, err := m.record(ctx, "pin", messageID, "")
	return err
}

func (m *MockGateway) Unpin(ctx context.Context, _, messageID string) error {
	_, err := m.record(ctx, "unpin", messageID, "")
	return err
}

func (m *MockGateway) History(_ context.Context, _ string, limit int) ([]domain.Message, error) {
	if m.histErr != nil {
		return nil, m.histErr
	}
	return m.history[:min(limit, len(m.history))], nil
}

func (m *MockGateway) SelfID() string {
	return m.selfID
}

type MockTextGenerator struct {
	response string
	err      error
	mode     domain.Mode
	prompts  []domain.Prompt
	calls    int
	// block holds the call until ctx is done.
	block bool
}

func (m *MockTextGenerator) GenerateFromPrompt(ctx context.Context, mode domain.Mode,
	prompts []domain.Prompt) (string, error) {
	m.calls++
	m.mode = mode
	m.prompts = prompts
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.response, m.err
}

type MockWeatherProvider struct {
	geo        domain.Geo
	weather    domain.Weather
	geoErr     error
	weatherErr error
	token      string
	units      domain.Units
}

func (m *MockWeatherProvider) Geocode(_ context.Context, zip, country, token string) (domain.Geo, error) {
	m.token = token
	if m.geoErr != nil {
		return domain.Geo{}, m.geoErr
	}
	g := m.geo
	g.Zip = zip
	g.Country = country
	return g, nil
}

func (m *MockWeatherProvider) Current(_ context.Context, _, _ float64, _ string,
	units domain.Units) (domain.Weather, error) {
	m.units = units
	return m.weather, m.weatherErr
}

type MockTokens map[domain.TokenKey]string

func (m MockTokens) Get(key domain.TokenKey) (string, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", key, domain.ErrCredential)
}

var errMock = errors.New("mock failure")

func newRequest(action domain.Action, argument string) *domain.Request {
	return &domain.Request{
		Message: &domain.Message{
			ID:         "trigger",
			ChannelID:  "c1",
			AuthorID:   "u1",
			AuthorName: "kelvin",
		},
		Action:   action,
		Argument: argument,
	}
}

func newReplier(gw *MockGateway) *service.Replier {
	return service.NewReplier(service.ReplierParams{Gateway: gw})
}

func newEngine(t *testing.T, gw *MockGateway) *service.TimerEngine {
	t.Helper()

	e := service.NewTimerEngine(context.Background(), service.TimerEngineParams{
		Replier: newReplier(gw),
		Gateway: gw,
	})
	t.Cleanup(func() {
		e.Stop()
		e.Wait()
	})
	return e
}
