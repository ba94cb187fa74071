package core

// State bundles the registries the hub coordinates. All of them live for
// the process lifetime unless Reset is called.
type State struct {
	Users *Users
	Rooms *Rooms
	Chat  *ChatLogs
	Turns *Turns
}

// NewState builds empty registries wired to each other.
func NewState() *State {
	users := NewUsers()
	rooms := NewRooms()
	return &State{
		Users: users,
		Rooms: rooms,
		Chat:  NewChatLogs(),
		Turns: NewTurns(users, rooms),
	}
}

// Reset empties every registry.
func (s *State) Reset() {
	s.Users.Reset()
	s.Rooms.Reset()
	s.Chat.Reset()
	s.Turns.Reset()
}
