package core

import (
	"fmt"

	"github.com/samber/lo"
)

// MicPass is the result of a successful mic hand-over.
type MicPass struct {
	Room Room
	From User
	To   User
}

// Turns owns the single-speaker invariant. It keeps the authoritative holder
// of every room's mic and writes both the canonical user records and the
// room projections on each transition.
type Turns struct {
	users   *Users
	rooms   *Rooms
	holders map[string]string // room id -> user id
}

// NewTurns builds a controller over the given registries.
func NewTurns(users *Users, rooms *Rooms) *Turns {
	t := &Turns{users: users, rooms: rooms}
	t.Reset()
	return t
}

// Reset forgets every holder. The registries are left untouched.
func (t *Turns) Reset() {
	t.holders = make(map[string]string)
}

// Holder returns the user holding roomID's mic.
func (t *Turns) Holder(roomID string) (string, bool) {
	id, ok := t.holders[roomID]
	return id, ok
}

// Grant hands roomID's mic to userID. It is only legal while the room has no
// holder, which is the case right after the room is created.
func (t *Turns) Grant(roomID, userID string) (User, Room, error) {
	room, err := t.rooms.Get(roomID)
	if err != nil {
		return User{}, Room{}, err
	}
	if _, err := t.users.Lookup(userID); err != nil {
		return User{}, Room{}, err
	}
	if holder, ok := t.holders[roomID]; ok {
		return User{}, Room{}, fmt.Errorf("grant mic in %q: held by %q: %w", roomID, holder, ErrIllegalTransition)
	}
	if !room.HasMember(userID) {
		return User{}, Room{}, fmt.Errorf("grant mic in %q: %q is not a member: %w", roomID, userID, ErrIllegalTransition)
	}

	t.holders[roomID] = userID
	u, err := t.users.ApplyPatch(userID, UserPatch{Controller: &TurnPatch{HasMic: boolPtr(true)}})
	if err != nil {
		return User{}, Room{}, err
	}
	t.rooms.UpdateMemberProjection(roomID, u.Public())
	room, err = t.rooms.Get(roomID)
	if err != nil {
		return User{}, Room{}, err
	}
	return u, room, nil
}

// PassMic moves roomID's mic from fromID to toID. Accepting the mic lowers
// the receiver's hand. No state changes when a precondition fails.
func (t *Turns) PassMic(roomID, fromID, toID string) (MicPass, error) {
	room, err := t.rooms.Get(roomID)
	if err != nil {
		return MicPass{}, err
	}
	if _, err := t.users.Lookup(fromID); err != nil {
		return MicPass{}, err
	}
	if _, err := t.users.Lookup(toID); err != nil {
		return MicPass{}, err
	}

	holder := t.holders[roomID]
	switch {
	case holder != fromID:
		return MicPass{}, fmt.Errorf("pass mic in %q: %q does not hold it: %w", roomID, fromID, ErrIllegalTransition)
	case holder == toID:
		return MicPass{}, fmt.Errorf("pass mic in %q: %q already holds it: %w", roomID, toID, ErrIllegalTransition)
	case !room.HasMember(toID):
		return MicPass{}, fmt.Errorf("pass mic in %q: %q is not a member: %w", roomID, toID, ErrIllegalTransition)
	}
	// After the hand-over only toID may show the mic in this room.
	if n := strayHolders(room, fromID, toID); n > 0 {
		return MicPass{}, fmt.Errorf("pass mic in %q: %d other members flagged as holders: %w", roomID, n, ErrIllegalTransition)
	}

	t.holders[roomID] = toID

	from, err := t.users.ApplyPatch(fromID, UserPatch{Controller: &TurnPatch{HasMic: boolPtr(t.holdsAny(fromID))}})
	if err != nil {
		return MicPass{}, err
	}
	to, err := t.users.ApplyPatch(toID, UserPatch{Controller: &TurnPatch{
		HasMic: boolPtr(true),
		HandUp: boolPtr(false),
	}})
	if err != nil {
		return MicPass{}, err
	}

	fromView := from.Public()
	fromView.Controller.HasMic = false
	t.rooms.UpdateMemberProjection(roomID, fromView)
	t.rooms.UpdateMemberProjection(roomID, to.Public())
	// The lowered hand is visible in every other room of the receiver.
	t.rooms.SyncMember(to.Public())

	room, err = t.rooms.Get(roomID)
	if err != nil {
		return MicPass{}, err
	}
	return MicPass{Room: room, From: from, To: to}, nil
}

// SetSignals updates the away and hand-raise flags of userID and refreshes
// every room projection. The mic flag cannot be changed this way.
func (t *Turns) SetSignals(userID string, afk, handUp *bool) (User, []string, error) {
	if afk == nil && handUp == nil {
		u, err := t.users.Lookup(userID)
		return u, nil, err
	}
	u, err := t.users.ApplyPatch(userID, UserPatch{Controller: &TurnPatch{AFK: afk, HandUp: handUp}})
	if err != nil {
		return User{}, nil, err
	}
	return u, t.rooms.SyncMember(u.Public()), nil
}

func (t *Turns) holdsAny(userID string) bool {
	return lo.Contains(lo.Values(t.holders), userID)
}

// View projects u for roomID, with HasMic scoped to that room.
func (t *Turns) View(roomID string, u User) PublicUser {
	v := u.Public()
	v.Controller.HasMic = t.holders[roomID] == u.ID
	return v
}

// strayHolders counts distinct members other than fromID and toID that are
// flagged as holding the mic.
func strayHolders(room Room, fromID, toID string) int {
	holders := lo.Filter(room.Members, func(m PublicUser, _ int) bool {
		return m.Controller.HasMic && m.ID != fromID && m.ID != toID
	})
	return len(lo.UniqBy(holders, func(m PublicUser) string { return m.ID }))
}
