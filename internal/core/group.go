package core

// group is the set of connections subscribed to one room's broadcasts.
type group struct {
	roomID  string
	clients map[*Client]struct{}
}

func newGroup(roomID string) *group {
	return &group{
		roomID:  roomID,
		clients: make(map[*Client]struct{}),
	}
}

// add inserts a client. Returns true if newly added.
func (g *group) add(c *Client) bool {
	if _, exists := g.clients[c]; exists {
		return false
	}
	g.clients[c] = struct{}{}
	return true
}

// remove deletes a client. Returns true if removed.
func (g *group) remove(c *Client) bool {
	if _, exists := g.clients[c]; !exists {
		return false
	}
	delete(g.clients, c)
	return true
}

// broadcast sends an event to every subscriber and returns how many
// slow consumers dropped it.
func (g *group) broadcast(event *Event) int {
	dropped := 0
	for client := range g.clients {
		if !client.trySend(event) {
			dropped++
		}
	}
	return dropped
}

func (g *group) size() int {
	return len(g.clients)
}
