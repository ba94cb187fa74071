package core

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/vovakirdan/microom-server/internal/utils"
)

// Rooms is the room registry. Like Users, it is owned by the hub loop.
type Rooms struct {
	byID   map[string]*Room
	byName map[string]string
	order  []string
}

// NewRooms constructs an empty room registry.
func NewRooms() *Rooms {
	r := &Rooms{}
	r.Reset()
	return r
}

// Reset drops every room.
func (r *Rooms) Reset() {
	r.byID = make(map[string]*Room)
	r.byName = make(map[string]string)
	r.order = nil
}

// Create registers a room whose only member is creator.
// Granting the mic is the Turns' job.
func (r *Rooms) Create(name string, creator PublicUser) (Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Room{}, fmt.Errorf("create room: name is required: %w", ErrBadRequest)
	}
	key := foldName(name)
	if _, taken := r.byName[key]; taken {
		return Room{}, fmt.Errorf("create room %q: %w", name, ErrNameTaken)
	}

	room := &Room{
		ID:      utils.NewID(),
		Name:    name,
		Members: []PublicUser{creator},
	}
	r.byID[room.ID] = room
	r.byName[key] = room.ID
	r.order = append(r.order, room.ID)
	return room.clone(), nil
}

// Get returns a snapshot of the room.
func (r *Rooms) Get(roomID string) (Room, error) {
	room, ok := r.byID[roomID]
	if !ok {
		return Room{}, fmt.Errorf("get room %q: %w", roomID, ErrRoomNotFound)
	}
	return room.clone(), nil
}

// Join appends member to the room. Repeated joins append repeatedly.
func (r *Rooms) Join(roomID string, member PublicUser) (Room, error) {
	room, ok := r.byID[roomID]
	if !ok {
		return Room{}, fmt.Errorf("join room %q: %w", roomID, ErrRoomNotFound)
	}
	room.Members = append(room.Members, member)
	return room.clone(), nil
}

// List returns rooms in creation order.
func (r *Rooms) List() []Room {
	return lo.Map(r.order, func(id string, _ int) Room {
		return r.byID[id].clone()
	})
}

// UpdateMemberProjection replaces every projection of member.ID in roomID.
// Unknown rooms and non-members are ignored.
func (r *Rooms) UpdateMemberProjection(roomID string, member PublicUser) {
	room, ok := r.byID[roomID]
	if !ok {
		return
	}
	for i := range room.Members {
		if room.Members[i].ID == member.ID {
			room.Members[i] = member
		}
	}
}

// SyncMember refreshes member in every room containing it. Each room keeps
// its own HasMic value, which only Turns may change. It returns the ids of
// the rooms that were touched, in creation order.
func (r *Rooms) SyncMember(member PublicUser) []string {
	var touched []string
	for _, id := range r.order {
		room := r.byID[id]
		hit := false
		for i := range room.Members {
			if room.Members[i].ID != member.ID {
				continue
			}
			scoped := member
			scoped.Controller.HasMic = room.Members[i].Controller.HasMic
			room.Members[i] = scoped
			hit = true
		}
		if hit {
			touched = append(touched, id)
		}
	}
	return touched
}

// Len returns the number of rooms.
func (r *Rooms) Len() int {
	return len(r.byID)
}
