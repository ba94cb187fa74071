package core

// Command is an action requested by a client. The set of commands is closed:
// only the types in this file implement it, and the hub dispatches on them
// with a type switch.
type Command interface {
	// EventName is the inbound event name the command was decoded from.
	EventName() string
	command()
}

// CreateUser registers a display identity bound to the sending connection.
type CreateUser struct {
	Name  string
	Color string
}

// CreateRoom creates a room owned by UserID, who receives the mic.
type CreateRoom struct {
	Name   string
	UserID string
}

// ListRooms asks for a snapshot of every room.
type ListRooms struct{}

// JoinRoom adds UserID to RoomID.
type JoinRoom struct {
	UserID string
	RoomID string
}

// UpdateUserInRoom patches the display fields and turn signals of UserID.
// Nil fields are left unchanged. The mic is not part of the patch.
type UpdateUserInRoom struct {
	RoomID string
	UserID string
	Name   *string
	Color  *string
	AFK    *bool
	HandUp *bool
}

// PassMic hands RoomID's mic from FromUserID to ToUserID.
type PassMic struct {
	RoomID     string
	FromUserID string
	ToUserID   string
}

// SendChat posts Message to RoomID on behalf of UserID.
type SendChat struct {
	RoomID  string
	UserID  string
	Message string
}

// FetchChat asks for the full chat log of RoomID.
type FetchChat struct {
	RoomID string
}

func (CreateUser) EventName() string       { return "createUser" }
func (CreateRoom) EventName() string       { return "createRoom" }
func (ListRooms) EventName() string        { return "getRoomList" }
func (JoinRoom) EventName() string         { return "joinRoom" }
func (UpdateUserInRoom) EventName() string { return "updateUserInRoom" }
func (PassMic) EventName() string          { return "passTheMic" }
func (SendChat) EventName() string         { return "sendChat" }
func (FetchChat) EventName() string        { return "getChatEntries" }

func (CreateUser) command()       {}
func (CreateRoom) command()       {}
func (ListRooms) command()        {}
func (JoinRoom) command()         {}
func (UpdateUserInRoom) command() {}
func (PassMic) command()          {}
func (SendChat) command()         {}
func (FetchChat) command()        {}
