package port

import (
	"context"
	"kelvinbot/internal/core/domain"
	"time"
)

type Command interface {
	// Respond processes a request within a specified timeout and replies into the originating channel.
	Respond(ctx context.Context, timeout time.Duration, request *domain.Request) error
	// GetAction retrieves the action a command handler serves.
	GetAction() domain.Action
}

type CommandRegistry interface {
	// Register adds a new command handler to the command registry.
	Register(handler Command)
	// Get retrieves a registered Command for an action or returns an error if none is registered.
	Get(action domain.Action) (Command, error)
	// ListActions returns every action currently registered.
	ListActions() []domain.Action
}
