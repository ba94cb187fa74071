package core

// TurnState is the per-user speaking state.
type TurnState struct {
	HasMic bool
	AFK    bool
	HandUp bool
}

// User is the canonical identity record owned by Users.
// ConnectionRef is empty when no connection owns the user.
type User struct {
	ID            string
	Name          string
	ConnectionRef string
	Controller    TurnState
	Color         string
}

// PublicUser is a User projection that is safe to share with other clients.
type PublicUser struct {
	ID         string
	Name       string
	Controller TurnState
	Color      string
}

// Public strips the connection handle.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Controller: u.Controller,
		Color:      u.Color,
	}
}

// TurnPatch carries optional controller updates. Nil fields are left alone.
type TurnPatch struct {
	HasMic *bool
	AFK    *bool
	HandUp *bool
}

// UserPatch is a shallow partial update of a User.
type UserPatch struct {
	Name       *string
	Color      *string
	Controller *TurnPatch
}

func (p UserPatch) apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Color != nil {
		u.Color = *p.Color
	}
	if c := p.Controller; c != nil {
		if c.HasMic != nil {
			u.Controller.HasMic = *c.HasMic
		}
		if c.AFK != nil {
			u.Controller.AFK = *c.AFK
		}
		if c.HandUp != nil {
			u.Controller.HandUp = *c.HandUp
		}
	}
}

func boolPtr(b bool) *bool { return &b }
