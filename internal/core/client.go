package core

const defaultClientBuffer = 32

// Client is one transport connection as seen by the core layer.
// ID is the connection reference stored on users.
type Client struct {
	ID       string
	Commands chan Command
	Events   chan *Event
	done     chan struct{}
}

// NewClient constructs a client with initialized channels. A non-positive
// buffer selects the default queue size.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan Command, buffer),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// trySend queues ev without blocking. It reports false when the client is
// too slow and the event was dropped.
func (c *Client) trySend(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
