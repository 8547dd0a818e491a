package service

import (
	"context"
	"errors"
	"fmt"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/port"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/mo"
)

const (
	DefaultPrefix         = "?"
	DefaultHandlerTimeout = 2 * time.Minute
)

type DispatchGateway interface {
	Pins(ctx context.Context, channelID string) ([]domain.Message, error)
	SelfID() string
}

// Dispatcher turns inbound messages into handler calls: it drops non-human
// traffic, applies a pinned directive if the channel has one, and otherwise
// routes prefixed commands.
type Dispatcher struct {
	gateway          DispatchGateway
	registry         port.CommandRegistry
	prefix           string
	pinnedDirectives bool
	timeout          time.Duration
	l                *zerolog.Logger
}

type DispatcherParams struct {
	Gateway          DispatchGateway
	Registry         port.CommandRegistry
	Prefix           string
	PinnedDirectives bool
	Timeout          time.Duration
}

// NewDispatcher fails unless the registry can serve every action.
func NewDispatcher(p DispatcherParams) (*Dispatcher, error) {
	if p.Gateway == nil || p.Registry == nil {
		return nil, errors.New("dispatcher needs a gateway and a registry")
	}

	var missing []error
	for _, action := range domain.Actions() {
		if _, err := p.Registry.Get(action); err != nil {
			missing = append(missing, err)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("incomplete command registry: %w", errors.Join(missing...))
	}

	logger := log.With().Str("service", "dispatcher").Logger()

	d := &Dispatcher{
		gateway:          p.Gateway,
		registry:         p.Registry,
		prefix:           p.Prefix,
		pinnedDirectives: p.PinnedDirectives,
		timeout:          p.Timeout,
		l:                &logger,
	}

	if d.prefix == "" {
		d.prefix = DefaultPrefix
	}
	if d.timeout <= 0 {
		d.timeout = DefaultHandlerTimeout
	}

	actions := p.Registry.ListActions()
	names := make([]string, 0, len(actions))
	for _, action := range actions {
		names = append(names, action.String())
	}
	d.l.Info().Strs("actions", names).Str("prefix", d.prefix).Msg("dispatcher ready")

	return d, nil
}

// Dispatch routes one message to at most one handler.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *domain.Message) error {
	if !d.isHuman(msg) {
		return nil
	}

	l := d.l.With().
		Str("messageId", msg.ID).
		Str("channelId", msg.ChannelID).
		Logger()

	if d.pinnedDirectives {
		pinned, err := d.pinnedDirective(ctx, msg.ChannelID)
		if err != nil {
			if errors.Is(err, domain.ErrPermission) {
				l.Warn().Err(err).Msg("bot is not allowed to read pinned messages")
			} else {
				l.Warn().Err(err).Msg("failed to look up pinned directive")
			}
		} else if directive, ok := pinned.Get(); ok {
			return d.dispatchPinned(ctx, msg, &directive)
		}
	}

	if !domain.HasPrefix(d.prefix, msg.Content) {
		return nil
	}

	token, argument := domain.Split(d.prefix, msg.Content)

	action, err := domain.ParseAction(token)
	if err != nil {
		l.Debug().Err(err).Msg("routing to no-op")
	}

	return d.run(ctx, &domain.Request{
		Message:  msg,
		Action:   action,
		Argument: argument,
	})
}

func (d *Dispatcher) dispatchPinned(ctx context.Context, msg *domain.Message, pinned *domain.Message) error {
	token, argument := domain.Split(d.prefix, pinned.Content)

	action, _ := domain.ParseAction(token)
	if action != domain.ActionChat {
		return d.run(ctx, &domain.Request{
			Message: msg,
			Action:  domain.ActionPinnedNone,
		})
	}

	return d.run(ctx, &domain.Request{
		Message:   msg,
		Action:    domain.ActionChat,
		Argument:  msg.Content,
		Directive: argument,
	})
}

func (d *Dispatcher) run(ctx context.Context, request *domain.Request) error {
	handler, err := d.registry.Get(request.Action)
	if err != nil {
		return &domain.ActionError{Action: request.Action, Err: err}
	}

	d.l.Debug().
		Str("messageId", request.Message.ID).
		Str("channelId", request.Message.ChannelID).
		Stringer("action", request.Action).
		Bool("pinned", request.Directive != "").
		Msg("dispatching")

	if err := handler.Respond(ctx, d.timeout, request); err != nil {
		return &domain.ActionError{Action: request.Action, Err: err}
	}

	return nil
}

func (d *Dispatcher) isHuman(msg *domain.Message) bool {
	if msg == nil || msg.Bot || msg.System {
		return false
	}

	self := d.gateway.SelfID()
	return self == "" || msg.AuthorID != self
}

// pinnedDirective returns the first pin, in gateway order, that carries the
// entry prefix.
func (d *Dispatcher) pinnedDirective(ctx context.Context, channelID string) (mo.Option[domain.Message], error) {
	pins, err := d.gateway.Pins(ctx, channelID)
	if err != nil {
		return mo.None[domain.Message](), err
	}

	for _, pin := range pins {
		if domain.HasPrefix(d.prefix, pin.Content) {
			return mo.Some(pin), nil
		}
	}

	return mo.None[domain.Message](), nil
}
