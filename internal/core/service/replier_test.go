package service

import (
	"context"
	"errors"
	"kelvinbot/internal/core/domain"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplierSend(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTexts []string
		wantErr   error
	}{
		{
			name:      "single segment",
			text:      "hi",
			wantTexts: []string{"hi"},
		},
		{
			name:      "split into segments",
			text:      "abcdefghij",
			wantTexts: []string{"abcd", "efgh", "ij"},
		},
		{
			name:      "truncated at max segments",
			text:      strings.Repeat("x", 20),
			wantTexts: []string{"xxxx", "xxxx", "xxxx"},
		},
		{
			name:    "empty text",
			text:    "",
			wantErr: domain.ErrSendEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &MockGateway{}
			r := NewReplier(ReplierParams{Gateway: gw, SegmentLimit: 4, MaxSegments: 3})

			last, err := r.Send(t.Context(), "c1", tt.text)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, gw.Ops())
				return
			}

			require.NoError(t, err)
			require.NotNil(t, last)

			var texts []string
			for _, o := range gw.Ops() {
				assert.Equal(t, "send", o.kind)
				assert.Equal(t, "c1", o.channelID)
				texts = append(texts, o.text)
			}
			assert.Equal(t, tt.wantTexts, texts)
			assert.Equal(t, tt.wantTexts[len(tt.wantTexts)-1], last.Content)
		})
	}
}

func TestReplierFinalizeOrdering(t *testing.T) {
	gw := &MockGateway{}
	r := NewReplier(ReplierParams{Gateway: gw, SegmentLimit: 5, MaxSegments: 3})

	placeholder, err := r.Placeholder(t.Context(), "c1")
	require.NoError(t, err)

	_, err = r.Finalize(t.Context(), placeholder, "aaaaabbbbbccccc")
	require.NoError(t, err)

	assert.Equal(t, []op{
		{kind: "send", channelID: "c1", messageID: "", text: DefaultPlaceholder},
		{kind: "edit", channelID: "c1", messageID: placeholder.ID, text: "aaaaa"},
		{kind: "send", channelID: "c1", messageID: "", text: "bbbbb"},
		{kind: "send", channelID: "c1", messageID: "", text: "ccccc"},
	}, gw.Ops())
}

func TestReplierFinalizePartialFailure(t *testing.T) {
	gwErr := errors.New("gateway down")
	gw := &MockGateway{failOn: map[string]int{"send": 2}, err: gwErr}
	r := NewReplier(ReplierParams{Gateway: gw, SegmentLimit: 5, MaxSegments: 3})

	placeholder, err := r.Placeholder(t.Context(), "c1")
	require.NoError(t, err)

	_, err = r.Finalize(t.Context(), placeholder, "aaaaabbbbbccccc")

	var sendErr *domain.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "bbbbb", sendErr.Content)
	require.ErrorIs(t, err, gwErr)

	// earlier segments stay delivered, later ones are not attempted
	ops := gw.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, "edit", ops[1].kind)
}

func TestReplierFailWithoutPlaceholder(t *testing.T) {
	gw := &MockGateway{}
	r := NewReplier(ReplierParams{Gateway: gw})

	cause := errors.New("upstream")
	err := r.Fail(t.Context(), nil, "c1", "could not complete the request.", cause)

	require.ErrorIs(t, err, cause)
	ops := gw.Ops()
	require.Len(t, ops, 1)
	assert.Equal(t, "could not complete the request.", ops[0].text)
}

func TestReplierNotifyFailureJoinsErrors(t *testing.T) {
	gwErr := errors.New("gateway down")
	gw := &MockGateway{failOn: map[string]int{"send": 1}, err: gwErr}
	r := NewReplier(ReplierParams{Gateway: gw})

	cause := errors.New("upstream")
	err := r.NotifyAndReturnError(t.Context(), "c1", "nope", cause)

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, gwErr)
}

func TestReplierFailAfterDeadline(t *testing.T) {
	tests := []struct {
		name        string
		placeholder bool
		wantKind    string
	}{
		{name: "edits placeholder", placeholder: true, wantKind: "edit"},
		{name: "sends notice", placeholder: false, wantKind: "send"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &MockGateway{honorCtx: true}
			r := NewReplier(ReplierParams{Gateway: gw})

			var placeholder *domain.Message
			if tt.placeholder {
				var err error
				placeholder, err = r.Placeholder(t.Context(), "c1")
				require.NoError(t, err)
			}

			ctx, cancel := context.WithTimeout(t.Context(), time.Millisecond)
			defer cancel()
			<-ctx.Done()

			err := r.Fail(ctx, placeholder, "c1", "could not complete the request.", ctx.Err())

			require.ErrorIs(t, err, context.DeadlineExceeded)
			var sendErr *domain.SendError
			assert.False(t, errors.As(err, &sendErr))

			ops := gw.Ops()
			require.NotEmpty(t, ops)
			last := ops[len(ops)-1]
			assert.Equal(t, tt.wantKind, last.kind)
			assert.Equal(t, "could not complete the request.", last.text)
		})
	}
}
