package sender

import (
	"context"
	"errors"
	"fmt"
	"kelvinbot/internal/core/domain"
	"slices"
	"strings"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

type MatrixClient interface {
	SendMessageEvent(ctx context.Context, roomID id.RoomID, eventType event.Type, contentJSON interface{},
		extra ...mautrix.ReqSendEvent) (*mautrix.RespSendEvent, error)
	RedactEvent(ctx context.Context, roomID id.RoomID, eventID id.EventID,
		extra ...mautrix.ReqRedact) (*mautrix.RespSendEvent, error)
	StateEvent(ctx context.Context, roomID id.RoomID, eventType event.Type, stateKey string,
		outContent interface{}) error
	SendStateEvent(ctx context.Context, roomID id.RoomID, eventType event.Type, stateKey string,
		contentJSON interface{}, extra ...mautrix.ReqSendEvent) (*mautrix.RespSendEvent, error)
	GetEvent(ctx context.Context, roomID id.RoomID, eventID id.EventID) (*event.Event, error)
	Messages(ctx context.Context, roomID id.RoomID, from, to string, dir mautrix.Direction,
		filter *mautrix.FilterPart, limit int) (*mautrix.RespMessages, error)
}

// MatrixSender posts replies as m.notice events, which other bots
// conventionally do not answer.
type MatrixSender struct {
	client MatrixClient
	userID id.UserID
}

func NewMatrixSender(client MatrixClient, userID id.UserID) *MatrixSender {
	return &MatrixSender{client: client, userID: userID}
}

func (s *MatrixSender) SelfID() string {
	return s.userID.String()
}

func (s *MatrixSender) Send(ctx context.Context, channelID string, text string) (*domain.Message, error) {
	content := &event.MessageEventContent{MsgType: event.MsgNotice, Body: text}

	resp, err := s.client.SendMessageEvent(ctx, id.RoomID(channelID), event.EventMessage, content)
	if err != nil {
		return nil, matrixError(err)
	}

	return s.ownMessage(channelID, resp.EventID, text), nil
}

// Edit sends an m.replace relation; clients render the replacement in place
// of the original event, which keeps its ID.
func (s *MatrixSender) Edit(ctx context.Context, channelID, messageID string, text string) (*domain.Message, error) {
	content := &event.MessageEventContent{
		MsgType:    event.MsgNotice,
		Body:       "* " + text,
		NewContent: &event.MessageEventContent{MsgType: event.MsgNotice, Body: text},
		RelatesTo:  &event.RelatesTo{Type: event.RelReplace, EventID: id.EventID(messageID)},
	}

	if _, err := s.client.SendMessageEvent(ctx, id.RoomID(channelID), event.EventMessage, content); err != nil {
		return nil, matrixError(err)
	}

	return s.ownMessage(channelID, id.EventID(messageID), text), nil
}

func (s *MatrixSender) Delete(ctx context.Context, channelID, messageID string) error {
	_, err := s.client.RedactEvent(ctx, id.RoomID(channelID), id.EventID(messageID))
	return matrixError(err)
}

func (s *MatrixSender) Pin(ctx context.Context, channelID, messageID string) error {
	pinned, err := s.pinnedEvents(ctx, id.RoomID(channelID))
	if err != nil {
		return err
	}

	if slices.Contains(pinned, id.EventID(messageID)) {
		return nil
	}

	return s.setPinned(ctx, id.RoomID(channelID), append(pinned, id.EventID(messageID)))
}

func (s *MatrixSender) Unpin(ctx context.Context, channelID, messageID string) error {
	pinned, err := s.pinnedEvents(ctx, id.RoomID(channelID))
	if err != nil {
		return err
	}

	remaining := slices.DeleteFunc(slices.Clone(pinned), func(e id.EventID) bool {
		return e == id.EventID(messageID)
	})
	if len(remaining) == len(pinned) {
		return nil
	}

	return s.setPinned(ctx, id.RoomID(channelID), remaining)
}

// Pins resolves the room's pinned events in state order. Events that can no
// longer be fetched are skipped.
func (s *MatrixSender) Pins(ctx context.Context, channelID string) ([]domain.Message, error) {
	roomID := id.RoomID(channelID)

	pinned, err := s.pinnedEvents(ctx, roomID)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(pinned))
	for _, eventID := range pinned {
		evt, err := s.client.GetEvent(ctx, roomID, eventID)
		if err != nil {
			if errors.Is(err, mautrix.MNotFound) || errors.Is(err, mautrix.MForbidden) {
				continue
			}
			return nil, matrixError(err)
		}

		msg, ok := MatrixMessage(evt)
		if !ok {
			continue
		}
		msg.Pinned = true
		messages = append(messages, msg)
	}

	return messages, nil
}

// History pages backwards through the room. Edits are folded into the event
// they replace rather than returned on their own.
func (s *MatrixSender) History(ctx context.Context, channelID string, limit int) ([]domain.Message, error) {
	resp, err := s.client.Messages(ctx, id.RoomID(channelID), "", "", mautrix.DirectionBackward, nil, limit*2)
	if err != nil {
		return nil, matrixError(err)
	}

	edits := make(map[id.EventID]string)
	messages := make([]domain.Message, 0, limit)

	for _, evt := range resp.Chunk {
		if evt.Type.Type != event.EventMessage.Type {
			continue
		}
		parseContent(evt)

		content := evt.Content.AsMessage()
		if content.RelatesTo != nil && content.RelatesTo.Type == event.RelReplace {
			if _, seen := edits[content.RelatesTo.EventID]; !seen && content.NewContent != nil {
				edits[content.RelatesTo.EventID] = content.NewContent.Body
			}
			continue
		}

		msg, ok := MatrixMessage(evt)
		if !ok {
			continue
		}
		if body, edited := edits[evt.ID]; edited {
			msg.Content = body
		}

		messages = append(messages, msg)
		if len(messages) == limit {
			break
		}
	}

	return messages, nil
}

func (s *MatrixSender) pinnedEvents(ctx context.Context, roomID id.RoomID) ([]id.EventID, error) {
	var content event.PinnedEventsEventContent

	err := s.client.StateEvent(ctx, roomID, event.StatePinnedEvents, "", &content)
	if err != nil {
		if errors.Is(err, mautrix.MNotFound) {
			return nil, nil
		}
		return nil, matrixError(err)
	}

	return content.Pinned, nil
}

func (s *MatrixSender) setPinned(ctx context.Context, roomID id.RoomID, pinned []id.EventID) error {
	_, err := s.client.SendStateEvent(ctx, roomID, event.StatePinnedEvents, "",
		&event.PinnedEventsEventContent{Pinned: pinned})
	return matrixError(err)
}

func (s *MatrixSender) ownMessage(channelID string, eventID id.EventID, text string) *domain.Message {
	return &domain.Message{
		ID:         eventID.String(),
		ChannelID:  channelID,
		AuthorID:   s.userID.String(),
		AuthorName: localpart(s.userID),
		Content:    text,
		Bot:        true,
		Timestamp:  time.Now(),
	}
}

// MatrixMessage converts an m.room.message event. ok is false for anything
// else. Notices count as bot messages.
func MatrixMessage(evt *event.Event) (domain.Message, bool) {
	if evt == nil || evt.Type.Type != event.EventMessage.Type {
		return domain.Message{}, false
	}
	parseContent(evt)

	content := evt.Content.AsMessage()

	msg := domain.Message{
		ID:         evt.ID.String(),
		ChannelID:  evt.RoomID.String(),
		AuthorID:   evt.Sender.String(),
		AuthorName: localpart(evt.Sender),
		Content:    content.Body,
		Timestamp:  time.UnixMilli(evt.Timestamp),
	}

	switch content.MsgType {
	case event.MsgText, event.MsgEmote:
	case event.MsgNotice:
		msg.Bot = true
	default:
		msg.System = true
	}

	return msg, true
}

func parseContent(evt *event.Event) {
	if evt.Content.Parsed == nil {
		_ = evt.Content.ParseRaw(evt.Type)
	}
}

func localpart(userID id.UserID) string {
	name := strings.TrimPrefix(userID.String(), "@")
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return name
}

func matrixError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mautrix.MForbidden) {
		return fmt.Errorf("%w: %w", domain.ErrPermission, err)
	}

	return err
}
