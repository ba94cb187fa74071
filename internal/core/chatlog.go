package core

import (
	"fmt"
	"slices"
	"time"
)

// ChatEntry is one immutable chat line.
type ChatEntry struct {
	Author   PublicUser
	Message  string
	Color    string
	PostedAt time.Time
}

// ChatLogs keeps an append-only log per room. Logs are never trimmed.
type ChatLogs struct {
	logs map[string][]ChatEntry
}

// NewChatLogs constructs an empty store.
func NewChatLogs() *ChatLogs {
	c := &ChatLogs{}
	c.Reset()
	return c
}

// Reset drops every log.
func (c *ChatLogs) Reset() {
	c.logs = make(map[string][]ChatEntry)
}

// Init creates an empty log for roomID if none exists.
func (c *ChatLogs) Init(roomID string) {
	if _, ok := c.logs[roomID]; !ok {
		c.logs[roomID] = []ChatEntry{}
	}
}

// Append stores a new entry and returns a copy of the full log.
func (c *ChatLogs) Append(roomID string, author PublicUser, message string, at time.Time) ([]ChatEntry, error) {
	log, ok := c.logs[roomID]
	if !ok {
		return nil, fmt.Errorf("append chat to %q: %w", roomID, ErrChatLogNotFound)
	}
	log = append(log, ChatEntry{
		Author:   author,
		Message:  message,
		Color:    author.Color,
		PostedAt: at,
	})
	c.logs[roomID] = log
	return slices.Clone(log), nil
}

// Log returns a copy of the room's entries in append order.
func (c *ChatLogs) Log(roomID string) ([]ChatEntry, error) {
	log, ok := c.logs[roomID]
	if !ok {
		return nil, fmt.Errorf("chat log %q: %w", roomID, ErrChatLogNotFound)
	}
	return slices.Clone(log), nil
}
