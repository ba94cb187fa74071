package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/microom-server/internal/core"
	"github.com/vovakirdan/microom-server/internal/proto"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// inboundToCommand decodes and validates an inbound envelope. A *proto.Error
// is returned for requests the client should be told about; the connection
// stays open in that case.
func inboundToCommand(inbound proto.Inbound) (core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeCreateUser:
		var data proto.CreateUserData
		if perr := decode(inbound, &data); perr != nil {
			return nil, perr
		}
		return core.CreateUser{Name: data.Name, Color: data.Color}, nil
	case proto.InboundTypeCreateRoom:
		var data proto.CreateRoomData
		if perr := decode(inbound, &data); perr != nil {
			return nil, perr
		}
		return core.CreateRoom{Name: data.Name, UserID: data.UserID}, nil
	case proto.InboundTypeGetRoomList:
		return core.ListRooms{}, nil
	case proto.InboundTypeJoinRoom:
		var data proto.JoinRoomData
		if perr := decode(inbound, &data); perr != nil {
			return nil, perr
		}
		return core.JoinRoom{UserID: data.UserID, RoomID: data.RoomID}, nil
	case proto.InboundTypeUpdateUserInRoom:
		var data proto.UpdateUserInRoomData
		if perr := decode(inbound, &data); perr != nil {
			return nil, perr
		}
		cmd := core.UpdateUserInRoom{
			RoomID: data.RoomID,
			UserID: data.NewUserData.ID,
			Name:   data.NewUserData.Name,
			Color:  data.NewUserData.Color,
		}
		if c := data.NewUserData.Controller; c != nil {
			cmd.AFK = c.AFK
			cmd.HandUp = c.HandUp
		}
		return cmd, nil
	case proto.InboundTypePassTheMic:
		var data proto.PassTheMicData
		if perr := decode(inbound, &data); perr != nil {
			return nil, perr
		}
		return core.PassMic{RoomID: data.RoomID, FromUserID: data.FromUserID, ToUserID: data.ToUserID}, nil
	case proto.InboundTypeSendChat:
		var data proto.SendChatData
		if perr := decode(inbound, &data); perr != nil {
			return nil, perr
		}
		return core.SendChat{RoomID: data.RoomID, UserID: data.User.ID, Message: data.Message}, nil
	case proto.InboundTypeGetChatEntries:
		var data proto.GetChatEntriesData
		if perr := decode(inbound, &data); perr != nil {
			return nil, perr
		}
		return core.FetchChat{RoomID: data.RoomID}, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type", Event: inbound.Type}
	}
}

func decode(inbound proto.Inbound, dst any) *proto.Error {
	if len(inbound.Data) == 0 {
		return badRequest(inbound.Type, "data is required")
	}
	if err := json.Unmarshal(inbound.Data, dst); err != nil {
		return badRequest(inbound.Type, "malformed data")
	}
	if err := validate.Struct(dst); err != nil {
		return badRequest(inbound.Type, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func badRequest(event, msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg, Event: event}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventUpdateData:
		data := proto.UpdateData{}
		if event.User != nil {
			u := ownUserToProto(*event.User)
			data.User = &u
		}
		if event.Room != nil {
			r := roomToProto(*event.Room)
			data.RoomData = &r
		}
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventUpdateData, Data: data}
	case core.EventRoomList:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventRoomListUpdate, Data: roomsToProto(event.Rooms)}
	case core.EventChatEntries:
		entries := make([]proto.ChatEntry, 0, len(event.Entries))
		for _, e := range event.Entries {
			entries = append(entries, proto.ChatEntry{
				User:      publicUserToProto(e.Author),
				Message:   e.Message,
				Color:     e.Color,
				TimeStamp: e.PostedAt,
			})
		}
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventGetChatEntries, Data: entries}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message, Event: event.Source},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func publicUserToProto(u core.PublicUser) proto.PublicUser {
	return proto.PublicUser{
		ID:   u.ID,
		Name: u.Name,
		Controller: proto.Controller{
			HasMic: u.Controller.HasMic,
			AFK:    u.Controller.AFK,
			HandUp: u.Controller.HandUp,
		},
		Color: u.Color,
	}
}

// ownUserToProto keeps the connection handle; the hub has already cleared it
// unless the event is addressed to the user's own connection.
func ownUserToProto(u core.User) proto.User {
	return proto.User{PublicUser: publicUserToProto(u.Public()), SocketID: u.ConnectionRef}
}

func roomToProto(r core.Room) proto.Room {
	users := make([]proto.PublicUser, 0, len(r.Members))
	for _, m := range r.Members {
		users = append(users, publicUserToProto(m))
	}
	return proto.Room{ID: r.ID, Name: r.Name, Users: users}
}

func roomsToProto(rooms []core.Room) []proto.Room {
	out := make([]proto.Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomToProto(r))
	}
	return out
}
