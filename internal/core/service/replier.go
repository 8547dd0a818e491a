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
)

const (
	DefaultPlaceholder   = "*Thinking...*"
	DefaultNotifyTimeout = 15 * time.Second
)

type ReplyGateway interface {
	port.MessageSender
	Edit(ctx context.Context, channelID, messageID string, text string) (*domain.Message, error)
}

// Replier delivers handler output as bounded segments, either as fresh
// messages or by finishing a placeholder in place.
type Replier struct {
	gateway       ReplyGateway
	segmentLimit  int
	maxSegments   int
	placeholder   string
	notifyTimeout time.Duration
	l             *zerolog.Logger
}

type ReplierParams struct {
	Gateway      ReplyGateway
	SegmentLimit int
	MaxSegments  int
	Placeholder  string
	// NotifyTimeout bounds failure notices, which run detached from the
	// handler's deadline.
	NotifyTimeout time.Duration
}

func NewReplier(p ReplierParams) *Replier {
	logger := log.With().Str("service", "replier").Logger()

	r := &Replier{
		gateway:       p.Gateway,
		segmentLimit:  p.SegmentLimit,
		maxSegments:   p.MaxSegments,
		placeholder:   p.Placeholder,
		notifyTimeout: p.NotifyTimeout,
		l:             &logger,
	}

	if r.segmentLimit <= 0 {
		r.segmentLimit = domain.SegmentLimit
	}
	if r.maxSegments <= 0 {
		r.maxSegments = domain.MaxSegments
	}
	if r.placeholder == "" {
		r.placeholder = DefaultPlaceholder
	}
	if r.notifyTimeout <= 0 {
		r.notifyTimeout = DefaultNotifyTimeout
	}

	return r
}

func (r *Replier) chunk(text string) []string {
	return domain.ChunkN(text, r.segmentLimit, r.maxSegments)
}

// Send posts text as a run of fresh messages and returns the last one sent.
func (r *Replier) Send(ctx context.Context, channelID, text string) (*domain.Message, error) {
	segments := r.chunk(text)
	if len(segments) == 0 {
		return nil, domain.ErrSendEmpty
	}

	return r.sendAll(ctx, channelID, segments)
}

// Placeholder posts the low-latency acknowledgement that Finalize later
// replaces.
func (r *Replier) Placeholder(ctx context.Context, channelID string) (*domain.Message, error) {
	sent, err := r.gateway.Send(ctx, channelID, r.placeholder)
	if err != nil {
		return nil, &domain.SendError{Content: r.placeholder, Err: err}
	}

	return sent, nil
}

// Finalize edits the first segment of text into the placeholder and appends
// the remaining segments as new messages, in order.
func (r *Replier) Finalize(ctx context.Context, placeholder *domain.Message, text string) (*domain.Message, error) {
	segments := r.chunk(text)
	if len(segments) == 0 {
		return nil, domain.ErrSendEmpty
	}

	last, err := r.gateway.Edit(ctx, placeholder.ChannelID, placeholder.ID, segments[0])
	if err != nil {
		return nil, &domain.SendError{Content: segments[0], Err: err}
	}

	if len(segments) == 1 {
		return last, nil
	}

	return r.sendAll(ctx, placeholder.ChannelID, segments[1:])
}

func (r *Replier) sendAll(ctx context.Context, channelID string, segments []string) (*domain.Message, error) {
	var last *domain.Message

	for i, segment := range segments {
		sent, err := r.gateway.Send(ctx, channelID, segment)
		if err != nil {
			r.l.Error().Err(err).
				Str("channelId", channelID).
				Int("segment", i+1).
				Int("segments", len(segments)).
				Msg(domain.ErrSendingReplyFailed.Error())
			return last, &domain.SendError{Content: segment, Err: err}
		}
		last = sent
	}

	return last, nil
}

// NotifyAndReturnError tells the channel that the request failed in plain
// words and hands the underlying error back to the caller. The notice is sent
// even when ctx has already expired.
func (r *Replier) NotifyAndReturnError(ctx context.Context, channelID, text string, err error) error {
	ctx, cancel := r.notifyContext(ctx)
	defer cancel()

	_, sendErr := r.Send(ctx, channelID, text)
	if sendErr != nil {
		return errors.Join(err, fmt.Errorf("failed to send error notification: %w", sendErr))
	}

	return err
}

// Fail finishes a placeholder with a failure notice. Without a placeholder it
// behaves like NotifyAndReturnError.
func (r *Replier) Fail(ctx context.Context, placeholder *domain.Message, channelID, text string, err error) error {
	if placeholder == nil {
		return r.NotifyAndReturnError(ctx, channelID, text, err)
	}

	ctx, cancel := r.notifyContext(ctx)
	defer cancel()

	if _, editErr := r.Finalize(ctx, placeholder, text); editErr != nil {
		return errors.Join(err, fmt.Errorf("failed to send error notification: %w", editErr))
	}

	return err
}

func (r *Replier) notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.notifyTimeout)
}
