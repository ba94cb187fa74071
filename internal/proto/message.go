package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeCreateUser       = "createUser"
	InboundTypeCreateRoom       = "createRoom"
	InboundTypeGetRoomList      = "getRoomList"
	InboundTypeJoinRoom         = "joinRoom"
	InboundTypeUpdateUserInRoom = "updateUserInRoom"
	InboundTypePassTheMic       = "passTheMic"
	InboundTypeSendChat         = "sendChat"
	InboundTypeGetChatEntries   = "getChatEntries"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventUpdateData     = "updateData"
	EventRoomListUpdate = "roomListUpdate"
	EventGetChatEntries = "getChatEntries"
)

// CreateUserData registers a display identity.
type CreateUserData struct {
	Name  string `json:"name" validate:"required,max=64"`
	Color string `json:"color" validate:"max=32"`
}

// CreateRoomData creates a room owned by UserID.
type CreateRoomData struct {
	Name   string `json:"name" validate:"required,max=64"`
	UserID string `json:"userId" validate:"required"`
}

// JoinRoomData adds a user to a room.
type JoinRoomData struct {
	UserID string `json:"userId" validate:"required"`
	RoomID string `json:"roomId" validate:"required"`
}

// ControllerPatch is the client-editable part of a user's turn state.
type ControllerPatch struct {
	AFK    *bool `json:"afk,omitempty"`
	HandUp *bool `json:"handUp,omitempty"`
}

// UserPatch is the partial user record sent with updateUserInRoom.
type UserPatch struct {
	ID         string           `json:"id" validate:"required"`
	Name       *string          `json:"name,omitempty" validate:"omitempty,max=64"`
	Color      *string          `json:"color,omitempty" validate:"omitempty,max=32"`
	Controller *ControllerPatch `json:"controller,omitempty"`
}

// UpdateUserInRoomData patches a user and refreshes the room.
type UpdateUserInRoomData struct {
	RoomID      string    `json:"roomId" validate:"required"`
	NewUserData UserPatch `json:"newUserData"`
}

// PassTheMicData hands a room's mic to another member.
type PassTheMicData struct {
	FromUserID string `json:"fromUserId" validate:"required"`
	ToUserID   string `json:"toUserId" validate:"required"`
	RoomID     string `json:"roomId" validate:"required"`
}

// UserRef identifies the author of a chat message.
type UserRef struct {
	ID string `json:"id" validate:"required"`
}

// SendChatData posts a chat message.
type SendChatData struct {
	RoomID  string  `json:"roomId" validate:"required"`
	User    UserRef `json:"user"`
	Message string  `json:"message" validate:"max=4096"`
}

// GetChatEntriesData asks for a room's chat log.
type GetChatEntriesData struct {
	RoomID string `json:"roomId" validate:"required"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Controller is a user's turn state on the wire.
type Controller struct {
	HasMic bool `json:"hasMic"`
	AFK    bool `json:"afk"`
	HandUp bool `json:"handUp"`
}

// PublicUser is a user as other clients see it.
type PublicUser struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Controller Controller `json:"controller"`
	Color      string     `json:"color"`
}

// User is a user's own record, only ever sent on its own connection.
type User struct {
	PublicUser
	SocketID string `json:"socketId,omitempty"`
}

// Room is a room and its member projection.
type Room struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Users []PublicUser `json:"users"`
}

// UpdateData carries a user record, a room, or both.
type UpdateData struct {
	User     *User `json:"user,omitempty"`
	RoomData *Room `json:"roomData,omitempty"`
}

// ChatEntry is one chat line on the wire.
type ChatEntry struct {
	User      PublicUser `json:"user"`
	Message   string     `json:"message"`
	Color     string     `json:"color"`
	TimeStamp time.Time  `json:"timeStamp"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code  string `json:"code"`
	Msg   string `json:"msg"`
	Event string `json:"event,omitempty"`
}
