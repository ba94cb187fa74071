package core

import "slices"

// Room is a named space with an ordered member projection.
type Room struct {
	ID      string
	Name    string
	Members []PublicUser
}

func (r *Room) clone() Room {
	return Room{
		ID:      r.ID,
		Name:    r.Name,
		Members: slices.Clone(r.Members),
	}
}

// Member returns the first projection of userID.
func (r Room) Member(userID string) (PublicUser, bool) {
	for _, m := range r.Members {
		if m.ID == userID {
			return m, true
		}
	}
	return PublicUser{}, false
}

// HasMember reports whether userID appears in the member projection.
func (r Room) HasMember(userID string) bool {
	_, ok := r.Member(userID)
	return ok
}
