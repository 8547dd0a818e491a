package command

import (
	"errors"
	"fmt"
	"kelvinbot/internal/core/domain"
	"kelvinbot/internal/core/port"
	"slices"

	"github.com/rs/zerolog/log"
)

type Registry struct {
	commands map[domain.Action]port.Command
}

func (r *Registry) Register(handler port.Command) {
	if r.commands == nil {
		r.commands = make(map[domain.Action]port.Command)
	}

	log.Info().Stringer("action", handler.GetAction()).Msg("adding command handler to registry")
	r.commands[handler.GetAction()] = handler
}

func (r *Registry) Get(action domain.Action) (port.Command, error) {
	log.Trace().Stringer("action", action).Msg("fetching command handler from registry")

	if r.commands == nil {
		return nil, errors.New("can't fetch command, registry not initialized")
	}

	handler, ok := r.commands[action]
	if !ok {
		return nil, fmt.Errorf("no handler registered for action %s", action)
	}

	return handler, nil
}

func (r *Registry) ListActions() []domain.Action {
	keys := make([]domain.Action, 0, len(r.commands))

	for k := range r.commands {
		keys = append(keys, k)
	}

	slices.Sort(keys)
	return keys
}
