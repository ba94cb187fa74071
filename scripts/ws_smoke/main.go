package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/microom-server/internal/proto"
)

type wireMessage struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

type peer struct {
	name string
	conn *websocket.Conn
	user proto.User
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run drives two users through a room: create, join, pass the mic, chat.
func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	host := flag.String("host", "alice", "name of the user creating the room")
	guest := flag.String("guest", "bob", "name of the user joining the room")
	room := flag.String("room", "Standup", "room name")
	text := flag.String("text", "hello from smoke test", "chat message sent by the guest")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	a, err := connect(ctx, *addr, *host)
	if err != nil {
		return err
	}
	defer a.conn.Close(websocket.StatusNormalClosure, "bye")
	b, err := connect(ctx, *addr, *guest)
	if err != nil {
		return err
	}
	defer b.conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, a.conn, proto.InboundTypeCreateRoom, proto.CreateRoomData{Name: *room, UserID: a.user.ID}); err != nil {
		return err
	}
	created, err := awaitUpdate(ctx, a.conn, func(u proto.UpdateData) bool { return u.RoomData != nil })
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	roomID := created.RoomData.ID
	log.Printf("room %q created with id %s", created.RoomData.Name, roomID)

	if err := send(ctx, b.conn, proto.InboundTypeJoinRoom, proto.JoinRoomData{UserID: b.user.ID, RoomID: roomID}); err != nil {
		return err
	}
	if _, err := awaitUpdate(ctx, a.conn, func(u proto.UpdateData) bool {
		return u.RoomData != nil && len(u.RoomData.Users) == 2
	}); err != nil {
		return fmt.Errorf("join room: %w", err)
	}
	log.Printf("%s joined", b.name)

	if err := send(ctx, a.conn, proto.InboundTypePassTheMic, proto.PassTheMicData{FromUserID: a.user.ID, ToUserID: b.user.ID, RoomID: roomID}); err != nil {
		return err
	}
	if _, err := awaitUpdate(ctx, b.conn, func(u proto.UpdateData) bool {
		return u.User != nil && u.User.Controller.HasMic
	}); err != nil {
		return fmt.Errorf("pass mic: %w", err)
	}
	log.Printf("mic passed to %s", b.name)

	if err := send(ctx, b.conn, proto.InboundTypeSendChat, proto.SendChatData{RoomID: roomID, User: proto.UserRef{ID: b.user.ID}, Message: *text}); err != nil {
		return err
	}
	msg, err := await(ctx, a.conn, func(m wireMessage) bool { return m.Event == proto.EventGetChatEntries })
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	var entries []proto.ChatEntry
	if err := json.Unmarshal(msg.Data, &entries); err != nil {
		return fmt.Errorf("decode chat: %w", err)
	}
	for _, e := range entries {
		log.Printf("[%s] %s: %s", e.TimeStamp.Format(time.Kitchen), e.User.Name, e.Message)
	}
	return nil
}

func connect(ctx context.Context, addr, name string) (*peer, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if err := send(ctx, conn, proto.InboundTypeCreateUser, proto.CreateUserData{Name: name}); err != nil {
		conn.Close(websocket.StatusNormalClosure, "bye")
		return nil, err
	}
	update, err := awaitUpdate(ctx, conn, func(u proto.UpdateData) bool { return u.User != nil })
	if err != nil {
		conn.Close(websocket.StatusNormalClosure, "bye")
		return nil, fmt.Errorf("create user %s: %w", name, err)
	}
	log.Printf("registered %s as %s", name, update.User.ID)
	return &peer{name: name, conn: conn, user: *update.User}, nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

// await reads until match accepts a message. Error envelopes end the wait.
func await(ctx context.Context, conn *websocket.Conn, match func(wireMessage) bool) (wireMessage, error) {
	for {
		var msg wireMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return msg, fmt.Errorf("read: %w", err)
		}
		if msg.Type == proto.OutboundTypeError && msg.Error != nil {
			return msg, fmt.Errorf("server error %s: %s", msg.Error.Code, msg.Error.Msg)
		}
		if match(msg) {
			return msg, nil
		}
	}
}

func awaitUpdate(ctx context.Context, conn *websocket.Conn, match func(proto.UpdateData) bool) (proto.UpdateData, error) {
	var data proto.UpdateData
	_, err := await(ctx, conn, func(m wireMessage) bool {
		if m.Event != proto.EventUpdateData {
			return false
		}
		data = proto.UpdateData{}
		if json.Unmarshal(m.Data, &data) != nil {
			return false
		}
		return match(data)
	})
	return data, err
}
