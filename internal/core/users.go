package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/vovakirdan/microom-server/internal/utils"
)

// Users is the identity registry. It is not safe for concurrent use;
// the hub loop is its only owner.
type Users struct {
	byID   map[string]*User
	byName map[string]int // folded name -> current holders
	order  []string
}

// NewUsers constructs an empty identity registry.
func NewUsers() *Users {
	u := &Users{}
	u.Reset()
	return u
}

// Reset drops every registered user.
func (r *Users) Reset() {
	r.byID = make(map[string]*User)
	r.byName = make(map[string]int)
	r.order = nil
}

// Register creates a user with a fresh id and a default turn state.
func (r *Users) Register(name, color, connRef string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, fmt.Errorf("register user: name is required: %w", ErrBadRequest)
	}
	key := foldName(name)
	if r.byName[key] > 0 {
		return User{}, fmt.Errorf("register user %q: %w", name, ErrNameTaken)
	}

	u := &User{
		ID:            utils.NewID(),
		Name:          name,
		ConnectionRef: connRef,
		Color:         color,
	}
	r.byID[u.ID] = u
	r.byName[key]++
	r.order = append(r.order, u.ID)
	return *u, nil
}

// Lookup returns a copy of the canonical record.
func (r *Users) Lookup(id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, fmt.Errorf("lookup user %q: %w", id, ErrUserNotFound)
	}
	return *u, nil
}

// ApplyPatch merges patch into the user. Callers are responsible for
// refreshing room projections.
func (r *Users) ApplyPatch(id string, patch UserPatch) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, fmt.Errorf("patch user %q: %w", id, ErrUserNotFound)
	}
	oldKey := foldName(u.Name)
	patch.apply(u)
	if newKey := foldName(u.Name); newKey != oldKey {
		// Renames are not checked for collisions, so a name may have several
		// holders until they all move away from it.
		r.byName[oldKey]--
		if r.byName[oldKey] <= 0 {
			delete(r.byName, oldKey)
		}
		r.byName[newKey]++
	}
	return *u, nil
}

// ReleaseConnection clears connRef from every user bound to it and returns
// the released users in registration order.
func (r *Users) ReleaseConnection(connRef string) []User {
	if connRef == "" {
		return nil
	}
	var released []User
	for _, id := range r.order {
		u := r.byID[id]
		if u.ConnectionRef != connRef {
			continue
		}
		u.ConnectionRef = ""
		released = append(released, *u)
	}
	return released
}

// Len returns the number of registered users.
func (r *Users) Len() int {
	return len(r.byID)
}

// foldName is the comparison key for case-insensitive name uniqueness.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
