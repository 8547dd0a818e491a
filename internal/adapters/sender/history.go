package sender

import (
	"kelvinbot/internal/core/domain"
	"slices"
	"sync"
)

// channelHistory keeps the last size messages seen per channel for platforms
// that cannot list past messages.
type channelHistory struct {
	mu    sync.Mutex
	size  int
	chats map[string][]domain.Message
}

func newChannelHistory(size int) *channelHistory {
	return &channelHistory{size: max(size, 1), chats: make(map[string][]domain.Message)}
}

func (h *channelHistory) Record(msg domain.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	messages := append(h.chats[msg.ChannelID], msg)
	if over := len(messages) - h.size; over > 0 {
		messages = slices.Clone(messages[over:])
	}
	h.chats[msg.ChannelID] = messages
}

func (h *channelHistory) Update(channelID, messageID, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.chats[channelID] {
		if h.chats[channelID][i].ID == messageID {
			h.chats[channelID][i].Content = content
			return
		}
	}
}

func (h *channelHistory) Remove(channelID, messageID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.chats[channelID] = slices.DeleteFunc(h.chats[channelID], func(m domain.Message) bool {
		return m.ID == messageID
	})
}

// Recent returns up to limit messages, newest first.
func (h *channelHistory) Recent(channelID string, limit int) []domain.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	messages := h.chats[channelID]
	n := min(max(limit, 0), len(messages))

	out := slices.Clone(messages[len(messages)-n:])
	slices.Reverse(out)
	return out
}
