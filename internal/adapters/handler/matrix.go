package handler

import (
	"context"
	"kelvinbot/internal/adapters/sender"
	"slices"
	"time"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

type Matrix struct {
	command *Command
	self    id.UserID
	rooms   []id.RoomID
	since   time.Time
}

type MatrixParams struct {
	Command *Command
	Self    id.UserID
	// Rooms limits which rooms are served; empty serves every joined room.
	Rooms []id.RoomID
	// Since drops events sent before it, so the initial sync does not replay
	// old commands.
	Since time.Time
}

func NewMatrix(p MatrixParams) *Matrix {
	return &Matrix{command: p.Command, self: p.Self, rooms: p.Rooms, since: p.Since}
}

func (m *Matrix) OnMessage(_ context.Context, evt *event.Event) {
	if evt == nil || evt.Sender == m.self {
		return
	}

	if len(m.rooms) > 0 && !slices.Contains(m.rooms, evt.RoomID) {
		return
	}

	if time.UnixMilli(evt.Timestamp).Before(m.since) {
		return
	}

	msg, ok := sender.MatrixMessage(evt)
	if !ok {
		return
	}

	// edits of earlier messages are not new commands
	if rel := evt.Content.AsMessage().RelatesTo; rel != nil && rel.Type == event.RelReplace {
		return
	}

	m.command.Submit(msg)
}
