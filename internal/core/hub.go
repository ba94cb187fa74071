package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Options tunes hub behavior.
type Options struct {
	// ReportErrors sends a typed error event back to the requesting client
	// when a command is rejected. Failures are always logged.
	ReportErrors bool
	// AnnounceRooms sends the room list to every connection after a room
	// is created.
	AnnounceRooms bool
}

// DefaultOptions returns the options used by the server.
func DefaultOptions() Options {
	return Options{ReportErrors: true}
}

type envelope struct {
	client *Client
	cmd    Command
}

// Hub is the session coordinator. A single goroutine running Run owns every
// registry and every client, so each command is applied to completion before
// the next one is looked at.
type Hub struct {
	state *State
	opts  Options
	log   *zerolog.Logger
	now   func() time.Time

	clients map[string]*Client
	groups  map[string]*group

	register   chan *Client
	unregister chan *Client
	inbox      chan envelope
	queries    chan func()
	stopped    chan struct{}
}

// NewHub creates a hub over state. A nil state starts empty and a nil logger
// discards output.
func NewHub(state *State, opts Options, logger *zerolog.Logger) *Hub {
	if state == nil {
		state = NewState()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		state:      state,
		opts:       opts,
		log:        logger,
		now:        time.Now,
		clients:    make(map[string]*Client),
		groups:     make(map[string]*group),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan envelope),
		queries:    make(chan func()),
		stopped:    make(chan struct{}),
	}
}

// Run processes client lifecycle changes and commands until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.addClient(ctx, c)
		case c := <-h.unregister:
			h.removeClient(c)
		case env := <-h.inbox:
			h.dispatch(env.client, env.cmd)
		case query := <-h.queries:
			query()
		}
	}
}

// RegisterClient attaches c to the hub and starts consuming its commands.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

// UnregisterClient detaches c. Users bound to it keep their state but lose
// their connection and are marked away.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// ListRooms returns a room snapshot taken on the hub goroutine.
func (h *Hub) ListRooms(ctx context.Context) ([]Room, error) {
	reply := make(chan []Room, 1)
	query := func() { reply <- h.state.Rooms.List() }

	select {
	case h.queries <- query:
	case <-h.stopped:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case rooms := <-reply:
		return rooms, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) addClient(ctx context.Context, c *Client) {
	if _, exists := h.clients[c.ID]; exists {
		h.log.Warn().Str("client_id", c.ID).Msg("client already registered")
		return
	}
	h.clients[c.ID] = c
	go h.pump(ctx, c)
	h.log.Debug().Str("client_id", c.ID).Msg("client registered")
}

// pump forwards c's commands into the hub loop, preserving their order.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			select {
			case h.inbox <- envelope{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	if h.clients[c.ID] != c {
		return
	}
	delete(h.clients, c.ID)
	close(c.done)
	for _, g := range h.groups {
		g.remove(c)
	}

	away := true
	var touched []string
	for _, u := range h.state.Users.ReleaseConnection(c.ID) {
		_, rooms, err := h.state.Turns.SetSignals(u.ID, &away, nil)
		if err != nil {
			h.log.Error().Err(err).Str("user_id", u.ID).Msg("mark user away")
			continue
		}
		touched = append(touched, rooms...)
	}
	touched = lo.Uniq(touched)
	h.broadcastRooms(touched)
	h.log.Debug().Str("client_id", c.ID).Int("rooms_refreshed", len(touched)).Msg("client unregistered")
}

func (h *Hub) dispatch(c *Client, cmd Command) {
	if h.clients[c.ID] != c {
		h.log.Debug().Str("client_id", c.ID).Msg("command from unregistered client dropped")
		return
	}

	var err error
	switch cmd := cmd.(type) {
	case CreateUser:
		err = h.createUser(c, cmd)
	case CreateRoom:
		err = h.createRoom(c, cmd)
	case ListRooms:
		h.sendTo(c, &Event{Kind: EventRoomList, Rooms: h.state.Rooms.List()})
	case JoinRoom:
		err = h.joinRoom(cmd)
	case UpdateUserInRoom:
		err = h.updateUserInRoom(cmd)
	case PassMic:
		err = h.passMic(cmd)
	case SendChat:
		err = h.sendChat(cmd)
	case FetchChat:
		err = h.fetchChat(c, cmd)
	default:
		err = fmt.Errorf("unsupported command %T: %w", cmd, ErrBadRequest)
	}
	if err != nil {
		h.reject(c, cmd, err)
	}
}

func (h *Hub) createUser(c *Client, cmd CreateUser) error {
	u, err := h.state.Users.Register(cmd.Name, cmd.Color, c.ID)
	if err != nil {
		return err
	}
	h.log.Info().Str("client_id", c.ID).Str("user_id", u.ID).Str("name", u.Name).Int("users", h.state.Users.Len()).Msg("user registered")
	h.sendTo(c, &Event{Kind: EventUpdateData, User: ownView(c, u)})
	return nil
}

func (h *Hub) createRoom(c *Client, cmd CreateRoom) error {
	creator, err := h.state.Users.Lookup(cmd.UserID)
	if err != nil {
		return err
	}
	room, err := h.state.Rooms.Create(cmd.Name, creator.Public())
	if err != nil {
		return err
	}
	h.state.Chat.Init(room.ID)
	creator, room, err = h.state.Turns.Grant(room.ID, creator.ID)
	if err != nil {
		return err
	}
	h.subscribe(creator.ConnectionRef, room.ID)

	h.log.Info().Str("room_id", room.ID).Str("name", room.Name).Str("user_id", creator.ID).Int("rooms", h.state.Rooms.Len()).Msg("room created")
	h.sendTo(c, &Event{Kind: EventUpdateData, User: ownView(c, creator), Room: &room})
	if h.opts.AnnounceRooms {
		h.sendToAll(&Event{Kind: EventRoomList, Rooms: h.state.Rooms.List()})
	}
	return nil
}

func (h *Hub) joinRoom(cmd JoinRoom) error {
	if _, err := h.state.Rooms.Get(cmd.RoomID); err != nil {
		return err
	}
	u, err := h.state.Users.Lookup(cmd.UserID)
	if err != nil {
		return err
	}
	room, err := h.state.Rooms.Join(cmd.RoomID, h.state.Turns.View(cmd.RoomID, u))
	if err != nil {
		return err
	}
	h.subscribe(u.ConnectionRef, room.ID)

	h.log.Info().Str("room_id", room.ID).Str("user_id", u.ID).Int("members", len(room.Members)).Msg("user joined room")
	h.sendToGroup(room.ID, &Event{Kind: EventUpdateData, Room: &room})
	return nil
}

func (h *Hub) updateUserInRoom(cmd UpdateUserInRoom) error {
	if _, err := h.state.Rooms.Get(cmd.RoomID); err != nil {
		return err
	}
	if _, err := h.state.Users.Lookup(cmd.UserID); err != nil {
		return err
	}
	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) == "" {
		return fmt.Errorf("update user %q: name must not be blank: %w", cmd.UserID, ErrBadRequest)
	}

	rooms := []string{cmd.RoomID}
	if cmd.Name != nil || cmd.Color != nil {
		patch := UserPatch{Color: cmd.Color}
		if cmd.Name != nil {
			name := strings.TrimSpace(*cmd.Name)
			patch.Name = &name
		}
		u, err := h.state.Users.ApplyPatch(cmd.UserID, patch)
		if err != nil {
			return err
		}
		rooms = append(rooms, h.state.Rooms.SyncMember(u.Public())...)
	}
	_, signalled, err := h.state.Turns.SetSignals(cmd.UserID, cmd.AFK, cmd.HandUp)
	if err != nil {
		return err
	}
	rooms = append(rooms, signalled...)

	h.broadcastRooms(lo.Uniq(rooms))
	return nil
}

func (h *Hub) passMic(cmd PassMic) error {
	pass, err := h.state.Turns.PassMic(cmd.RoomID, cmd.FromUserID, cmd.ToUserID)
	if err != nil {
		return err
	}

	h.log.Info().Str("room_id", pass.Room.ID).Str("from", pass.From.ID).Str("to", pass.To.ID).Msg("mic passed")
	h.sendToGroup(pass.Room.ID, &Event{Kind: EventUpdateData, Room: &pass.Room})
	h.notifyOwner(pass.To)
	h.notifyOwner(pass.From)
	return nil
}

func (h *Hub) sendChat(cmd SendChat) error {
	if _, err := h.state.Rooms.Get(cmd.RoomID); err != nil {
		return err
	}
	u, err := h.state.Users.Lookup(cmd.UserID)
	if err != nil {
		return err
	}
	entries, err := h.state.Chat.Append(cmd.RoomID, h.state.Turns.View(cmd.RoomID, u), cmd.Message, h.now())
	if err != nil {
		return err
	}
	h.sendToGroup(cmd.RoomID, &Event{Kind: EventChatEntries, Entries: entries})
	return nil
}

func (h *Hub) fetchChat(c *Client, cmd FetchChat) error {
	entries, err := h.state.Chat.Log(cmd.RoomID)
	if err != nil {
		return err
	}
	h.sendTo(c, &Event{Kind: EventChatEntries, Entries: entries})
	return nil
}

func (h *Hub) reject(c *Client, cmd Command, err error) {
	h.log.Warn().Err(err).Str("client_id", c.ID).Str("event", cmd.EventName()).Msg("command rejected")
	if !h.opts.ReportErrors {
		return
	}
	h.sendTo(c, &Event{Kind: EventError, Error: toCoreError(err), Source: cmd.EventName()})
}

// broadcastRooms sends the current snapshot of each room to its group.
func (h *Hub) broadcastRooms(roomIDs []string) {
	for _, id := range roomIDs {
		room, err := h.state.Rooms.Get(id)
		if err != nil {
			continue
		}
		h.sendToGroup(id, &Event{Kind: EventUpdateData, Room: &room})
	}
}

// notifyOwner sends u its own record on its private connection, if any.
func (h *Hub) notifyOwner(u User) {
	c, ok := h.clients[u.ConnectionRef]
	if !ok {
		return
	}
	h.sendTo(c, &Event{Kind: EventUpdateData, User: ownView(c, u)})
}

func (h *Hub) sendTo(c *Client, ev *Event) {
	if !c.trySend(ev) {
		h.log.Debug().Str("client_id", c.ID).Msg("slow consumer, event dropped")
	}
}

func (h *Hub) sendToGroup(roomID string, ev *Event) {
	g, ok := h.groups[roomID]
	if !ok {
		return
	}
	if dropped := g.broadcast(ev); dropped > 0 {
		h.log.Debug().Str("room_id", roomID).Int("dropped", dropped).Int("subscribers", g.size()).Msg("slow consumers, event dropped")
	}
}

func (h *Hub) sendToAll(ev *Event) {
	for _, c := range h.clients {
		h.sendTo(c, ev)
	}
}

func (h *Hub) subscribe(connRef, roomID string) {
	c, ok := h.clients[connRef]
	if !ok {
		return
	}
	g, ok := h.groups[roomID]
	if !ok {
		g = newGroup(roomID)
		h.groups[roomID] = g
	}
	g.add(c)
}

// ownView returns u as seen by c: the connection handle is only kept when c
// is the connection that owns u.
func ownView(c *Client, u User) *User {
	if u.ConnectionRef != c.ID {
		u.ConnectionRef = ""
	}
	return &u
}
