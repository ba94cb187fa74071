package core

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T, opts Options) (*Hub, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	hub := NewHub(nil, opts, nil)
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	c := NewClient(id, 0)
	hub.RegisterClient(c)
	return c
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()
	return mustEventWhere(t, ch, func(ev *Event) bool { return ev.Kind == kind })
}

// mustEventWhere skips events until match accepts one.
func mustEventWhere(t *testing.T, ch <-chan *Event, match func(*Event) bool) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if match(ev) {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event not received")
	return nil
}

func expectNoEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(wait):
	}
}

// registerUser creates a user on c and returns the record sent back.
func registerUser(t *testing.T, c *Client, name string) User {
	t.Helper()

	c.Commands <- CreateUser{Name: name, Color: "#" + name}
	ev := mustEventWhere(t, c.Events, func(ev *Event) bool {
		return ev.Kind == EventUpdateData && ev.User != nil && ev.Room == nil
	})
	return *ev.User
}
