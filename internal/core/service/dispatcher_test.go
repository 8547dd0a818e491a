package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/port"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCommand struct {
	mock.Mock
	action domain.Action
}

func (m *MockCommand) Respond(_ context.Context, _ time.Duration, request *domain.Request) error {
	args := m.Called(request)
	return args.Error(0)
}

func (m *MockCommand) GetAction() domain.Action {
	return m.action
}

type mapRegistry map[domain.Action]port.Command

func (r mapRegistry) Register(handler port.Command) {
	r[handler.GetAction()] = handler
}

func (r mapRegistry) Get(action domain.Action) (port.Command, error) {
	if c, ok := r[action]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("no handler for %s", action)
}

func (r mapRegistry) ListActions() []domain.Action {
	actions := make([]domain.Action, 0, len(r))
	for a := range r {
		actions = append(actions, a)
	}
	return actions
}

func newMockRegistry(err error) (mapRegistry, map[domain.Action]*MockCommand) {
	reg := mapRegistry{}
	mocks := make(map[domain.Action]*MockCommand)
	for _, a := range domain.Actions() {
		m := &MockCommand{action: a}
		m.On("Respond", mock.Anything).Return(err).Maybe()
		reg.Register(m)
		mocks[a] = m
	}
	return reg, mocks
}

// dispatched returns the single request routed to any handler, or nil.
func dispatched(t *testing.T, mocks map[domain.Action]*MockCommand) *domain.Request {
	t.Helper()

	var got *domain.Request
	for _, m := range mocks {
		for _, call := range m.Calls {
			require.Nil(t, got, "more than one handler ran")
			got = call.Arguments.Get(0).(*domain.Request)
		}
	}
	return got
}

func newTestDispatcher(t *testing.T, gw *MockGateway, reg port.CommandRegistry) *Dispatcher {
	t.Helper()

	d, err := NewDispatcher(DispatcherParams{
		Gateway:          gw,
		Registry:         reg,
		Prefix:           "?",
		PinnedDirectives: true,
	})
	require.NoError(t, err)
	return d
}

func TestDispatchRouting(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantNone     bool
		wantAction   domain.Action
		wantArgument string
	}{
		{name: "bare prefix is help", content: "?", wantAction: domain.ActionHelp},
		{name: "help", content: "?help", wantAction: domain.ActionHelp},
		{name: "weather", content: "?weather", wantAction: domain.ActionWeather},
		{name: "temp alias", content: "?temp now", wantAction: domain.ActionWeather, wantArgument: "now"},
		{name: "temperature alias", content: "?temperature", wantAction: domain.ActionWeather},
		{name: "geo", content: "?geo", wantAction: domain.ActionGeo},
		{name: "chat", content: "?chat hi there", wantAction: domain.ActionChat, wantArgument: "hi there"},
		{name: "reason", content: "?reason why", wantAction: domain.ActionReason, wantArgument: "why"},
		{name: "timer", content: "?timer 5m tea", wantAction: domain.ActionTimer, wantArgument: "5m tea"},
		{name: "case sensitive", content: "?Weather", wantAction: domain.ActionNone},
		{name: "unknown", content: "?dance", wantAction: domain.ActionNone},
		{name: "argument keeps inner whitespace", content: "?chat  a\tb ", wantAction: domain.ActionChat, wantArgument: " a\tb "},
		{name: "no prefix", content: "weather please", wantNone: true},
		{name: "empty", content: "", wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &MockGateway{selfID: "bot"}
			reg, mocks := newMockRegistry(nil)
			d := newTestDispatcher(t, gw, reg)

			msg := &domain.Message{ID: "1", ChannelID: "c1", AuthorID: "u1", Content: tt.content}
			require.NoError(t, d.Dispatch(t.Context(), msg))

			got := dispatched(t, mocks)
			if tt.wantNone {
				assert.Nil(t, got)
				return
			}

			require.NotNil(t, got)
			assert.Equal(t, tt.wantAction, got.Action)
			assert.Equal(t, tt.wantArgument, got.Argument)
			assert.Empty(t, got.Directive)
			assert.Same(t, msg, got.Message)
		})
	}
}

func TestDispatchIgnoresNonHumans(t *testing.T) {
	tests := []struct {
		name string
		msg  *domain.Message
	}{
		{name: "bot author", msg: &domain.Message{AuthorID: "other", Bot: true, Content: "?help"}},
		{name: "system message", msg: &domain.Message{AuthorID: "u1", System: true, Content: "?help"}},
		{name: "own message", msg: &domain.Message{AuthorID: "bot", Content: "?help"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &MockGateway{
				selfID: "bot",
				pins:   []domain.Message{{Content: "?chat be terse"}},
			}
			reg, mocks := newMockRegistry(nil)
			d := newTestDispatcher(t, gw, reg)

			require.NoError(t, d.Dispatch(t.Context(), tt.msg))
			assert.Nil(t, dispatched(t, mocks))
			assert.Empty(t, gw.Ops())
		})
	}
}

func TestDispatchPinnedDirective(t *testing.T) {
	tests := []struct {
		name          string
		pins          []domain.Message
		content       string
		wantAction    domain.Action
		wantArgument  string
		wantDirective string
	}{
		{
			name:          "pinned chat applies to plain message",
			pins:          []domain.Message{{Content: "rules"}, {Content: "?chat talk like a pirate"}},
			content:       "good morning",
			wantAction:    domain.ActionChat,
			wantArgument:  "good morning",
			wantDirective: "talk like a pirate",
		},
		{
			name:          "pinned chat overrides prefixed message",
			pins:          []domain.Message{{Content: "?chat be brief"}},
			content:       "?weather",
			wantAction:    domain.ActionChat,
			wantArgument:  "?weather",
			wantDirective: "be brief",
		},
		{
			name:       "first prefixed pin wins",
			pins:       []domain.Message{{Content: "?weather"}, {Content: "?chat ignored"}},
			content:    "hello",
			wantAction: domain.ActionPinnedNone,
		},
		{
			name:         "no prefixed pin falls through",
			pins:         []domain.Message{{Content: "house rules"}},
			content:      "?geo",
			wantAction:   domain.ActionGeo,
			wantArgument: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &MockGateway{selfID: "bot", pins: tt.pins}
			reg, mocks := newMockRegistry(nil)
			d := newTestDispatcher(t, gw, reg)

			msg := &domain.Message{ID: "1", ChannelID: "c1", AuthorID: "u1", Content: tt.content}
			require.NoError(t, d.Dispatch(t.Context(), msg))

			got := dispatched(t, mocks)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantAction, got.Action)
			assert.Equal(t, tt.wantArgument, got.Argument)
			assert.Equal(t, tt.wantDirective, got.Directive)
		})
	}
}

func TestDispatchPinLookupFailureFallsThrough(t *testing.T) {
	gw := &MockGateway{selfID: "bot", pinErr: fmt.Errorf("403: %w", domain.ErrPermission)}
	reg, mocks := newMockRegistry(nil)
	d := newTestDispatcher(t, gw, reg)

	err := d.Dispatch(t.Context(), &domain.Message{ID: "1", ChannelID: "c1", AuthorID: "u1", Content: "?geo"})
	require.NoError(t, err)

	got := dispatched(t, mocks)
	require.NotNil(t, got)
	assert.Equal(t, domain.ActionGeo, got.Action)
}

func TestDispatchPinnedDirectivesDisabled(t *testing.T) {
	gw := &MockGateway{selfID: "bot", pins: []domain.Message{{Content: "?chat pirate"}}}
	reg, mocks := newMockRegistry(nil)
	d, err := NewDispatcher(DispatcherParams{Gateway: gw, Registry: reg})
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(t.Context(), &domain.Message{AuthorID: "u1", Content: "hello"}))
	assert.Nil(t, dispatched(t, mocks))
}

func TestDispatchWrapsHandlerError(t *testing.T) {
	cause := errors.New("upstream down")
	gw := &MockGateway{selfID: "bot"}
	reg, _ := newMockRegistry(cause)
	d := newTestDispatcher(t, gw, reg)

	err := d.Dispatch(t.Context(), &domain.Message{AuthorID: "u1", Content: "?weather"})

	var actionErr *domain.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, domain.ActionWeather, actionErr.Action)
	require.ErrorIs(t, err, cause)
}

func TestNewDispatcherRequiresEveryAction(t *testing.T) {
	reg, _ := newMockRegistry(nil)
	delete(reg, domain.ActionPinnedNone)

	_, err := NewDispatcher(DispatcherParams{Gateway: &MockGateway{}, Registry: reg})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinned-none")
}

func TestNewDispatcherLogsRegisteredActions(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	reg, _ := newMockRegistry(nil)
	_, err := NewDispatcher(DispatcherParams{Gateway: &MockGateway{}, Registry: reg})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "dispatcher ready")
	for _, a := range domain.Actions() {
		assert.Contains(t, out, `"`+a.String()+`"`)
	}
}
