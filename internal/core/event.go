package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventUpdateData carries a user record, a room, or both.
	EventUpdateData EventKind = iota
	// EventRoomList delivers a snapshot of every room.
	EventRoomList
	// EventChatEntries delivers a room's full chat log.
	EventChatEntries
	// EventError notifies the requesting client about a rejected command.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind
	// User is only set on events addressed to that user's own connection.
	User    *User
	Room    *Room
	Rooms   []Room
	Entries []ChatEntry
	Error   *CoreError
	// Source names the inbound event that produced an EventError.
	Source string
}
