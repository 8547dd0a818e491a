package command

import (
	"kelvinbot/internal/core/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpRespond(t *testing.T) {
	gw := &MockGateway{}
	h := NewHelp(HelpParams{Replier: newReplier(gw), Prefix: "!"})

	require.NoError(t, h.Respond(t.Context(), time.Second, newRequest(domain.ActionHelp, "")))

	texts := gw.Texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "!chat")
	for _, name := range []string{"WEATHER", "GEO", "CHAT", "REASON", "TIMER", "HELP"} {
		assert.Contains(t, texts[0], name)
	}
}

func TestNoOpRespond(t *testing.T) {
	tests := []struct {
		name       string
		wantAction domain.Action
		wantText   string
	}{
		{name: "non-action", wantAction: domain.ActionNone, wantText: "non-action. 🎣"},
		{name: "pinned non-action", wantAction: domain.ActionPinnedNone, wantText: "pinned non-action. 📌"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &MockGateway{}
			h := NewNoOp(newReplier(gw))
			if tt.wantAction == domain.ActionPinnedNone {
				h = NewPinnedNoOp(newReplier(gw))
			}

			assert.Equal(t, tt.wantAction, h.GetAction())
			require.NoError(t, h.Respond(t.Context(), time.Second, newRequest(tt.wantAction, "")))
			assert.Equal(t, []string{tt.wantText}, gw.Texts())
		})
	}
}

func TestNoOpSendFailure(t *testing.T) {
	gw := &MockGateway{err: errMock}
	h := NewNoOp(newReplier(gw))

	err := h.Respond(t.Context(), time.Second, newRequest(domain.ActionNone, ""))
	require.ErrorIs(t, err, errMock)
}
