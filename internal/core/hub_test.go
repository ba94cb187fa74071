package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func createRoom(t *testing.T, c *Client, name, userID string) Room {
	t.Helper()

	c.Commands <- CreateRoom{Name: name, UserID: userID}
	ev := mustEventWhere(t, c.Events, func(ev *Event) bool {
		return ev.Kind == EventUpdateData && ev.Room != nil && ev.User != nil
	})
	return *ev.Room
}

func waitRoom(t *testing.T, c *Client, roomID string, match func(Room) bool) Room {
	t.Helper()

	ev := mustEventWhere(t, c.Events, func(ev *Event) bool {
		return ev.Kind == EventUpdateData && ev.Room != nil && ev.Room.ID == roomID && match(*ev.Room)
	})
	return *ev.Room
}

func TestHubStandupScenario(t *testing.T) {
	hub, _ := startHub(t, DefaultOptions())

	aliceConn := connect(t, hub, "conn-alice")
	bobConn := connect(t, hub, "conn-bob")

	alice := registerUser(t, aliceConn, "Alice")
	if alice.ConnectionRef != "conn-alice" {
		t.Fatalf("own record should carry own connection, got %q", alice.ConnectionRef)
	}
	bob := registerUser(t, bobConn, "Bob")

	aliceConn.Commands <- CreateRoom{Name: "Standup", UserID: alice.ID}
	created := mustEventWhere(t, aliceConn.Events, func(ev *Event) bool {
		return ev.Kind == EventUpdateData && ev.Room != nil
	})
	if created.User == nil || !created.User.Controller.HasMic {
		t.Fatalf("creator should hold the mic: %+v", created.User)
	}
	room := *created.Room
	if len(room.Members) != 1 || !room.Members[0].Controller.HasMic {
		t.Fatalf("unexpected created room: %+v", room)
	}

	bobConn.Commands <- JoinRoom{UserID: bob.ID, RoomID: room.ID}
	hasTwo := func(r Room) bool { return len(r.Members) == 2 }
	waitRoom(t, aliceConn, room.ID, hasTwo)
	waitRoom(t, bobConn, room.ID, hasTwo)

	aliceConn.Commands <- PassMic{RoomID: room.ID, FromUserID: alice.ID, ToUserID: bob.ID}
	bobPrivate := mustEventWhere(t, bobConn.Events, func(ev *Event) bool {
		return ev.Kind == EventUpdateData && ev.User != nil
	})
	if !bobPrivate.User.Controller.HasMic || bobPrivate.User.Controller.HandUp {
		t.Fatalf("bob should hold the mic with hand down: %+v", bobPrivate.User.Controller)
	}
	alicePrivate := mustEventWhere(t, aliceConn.Events, func(ev *Event) bool {
		return ev.Kind == EventUpdateData && ev.User != nil
	})
	if alicePrivate.User.Controller.HasMic {
		t.Fatalf("alice should have lost the mic")
	}

	bobConn.Commands <- SendChat{RoomID: room.ID, UserID: bob.ID, Message: "hi"}
	chat := mustEvent(t, aliceConn.Events, EventChatEntries)
	if len(chat.Entries) != 1 {
		t.Fatalf("expected one chat entry, got %d", len(chat.Entries))
	}
	entry := chat.Entries[0]
	if entry.Author.ID != bob.ID || entry.Author.Name != "Bob" || entry.Message != "hi" {
		t.Fatalf("unexpected chat entry: %+v", entry)
	}
	if !entry.Author.Controller.HasMic {
		t.Fatalf("author snapshot should show bob holding the mic")
	}

	rooms, err := hub.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 1 || len(rooms[0].Members) != 2 {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
	for _, m := range rooms[0].Members {
		switch m.ID {
		case alice.ID:
			if m.Controller.HasMic {
				t.Fatalf("alice projection still holds the mic")
			}
		case bob.ID:
			if !m.Controller.HasMic {
				t.Fatalf("bob projection should hold the mic")
			}
		}
	}
}

func TestHubCreateRoomUnknownUser(t *testing.T) {
	hub, _ := startHub(t, DefaultOptions())
	c := connect(t, hub, "conn")

	c.Commands <- CreateRoom{Name: "Lobby", UserID: "ghost"}
	ev := mustEvent(t, c.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeUserNotFound || ev.Source != "createRoom" {
		t.Fatalf("expected user_not_found error, got %+v", ev)
	}

	rooms, err := hub.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("no room should have been created: %+v", rooms)
	}
}

func TestHubDuplicateUserNameError(t *testing.T) {
	hub, _ := startHub(t, DefaultOptions())
	a := connect(t, hub, "a")
	b := connect(t, hub, "b")

	registerUser(t, a, "Alice")
	b.Commands <- CreateUser{Name: "ALICE"}

	ev := mustEvent(t, b.Events, EventError)
	if ev.Error.Code != ErrCodeNameTaken {
		t.Fatalf("expected name_taken, got %+v", ev.Error)
	}
	expectNoEvent(t, a.Events, 50*time.Millisecond)
}

func TestHubSilentFailureWhenReportingDisabled(t *testing.T) {
	hub, _ := startHub(t, Options{})
	c := connect(t, hub, "conn")

	c.Commands <- JoinRoom{UserID: "ghost", RoomID: "ghost"}
	expectNoEvent(t, c.Events, 100*time.Millisecond)
}

func TestHubIllegalPassEmitsNothingToRoom(t *testing.T) {
	hub, _ := startHub(t, DefaultOptions())
	aliceConn := connect(t, hub, "a")
	bobConn := connect(t, hub, "b")

	alice := registerUser(t, aliceConn, "Alice")
	bob := registerUser(t, bobConn, "Bob")
	room := createRoom(t, aliceConn, "Standup", alice.ID)
	bobConn.Commands <- JoinRoom{UserID: bob.ID, RoomID: room.ID}
	waitRoom(t, aliceConn, room.ID, func(r Room) bool { return len(r.Members) == 2 })
	waitRoom(t, bobConn, room.ID, func(r Room) bool { return len(r.Members) == 2 })

	bobConn.Commands <- PassMic{RoomID: room.ID, FromUserID: bob.ID, ToUserID: alice.ID}
	ev := mustEvent(t, bobConn.Events, EventError)
	if ev.Error.Code != ErrCodeIllegalTransition {
		t.Fatalf("expected illegal_transition, got %+v", ev.Error)
	}
	expectNoEvent(t, aliceConn.Events, 100*time.Millisecond)

	rooms, err := hub.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	for _, m := range rooms[0].Members {
		if m.ID == alice.ID && !m.Controller.HasMic {
			t.Fatalf("alice should still hold the mic")
		}
		if m.ID == bob.ID && m.Controller.HasMic {
			t.Fatalf("bob should not hold the mic")
		}
	}
}

func TestHubJoinTwiceDuplicatesMember(t *testing.T) {
	hub, _ := startHub(t, DefaultOptions())
	c := connect(t, hub, "conn")

	alice := registerUser(t, c, "Alice")
	room := createRoom(t, c, "Lobby", alice.ID)

	c.Commands <- JoinRoom{UserID: alice.ID, RoomID: room.ID}
	joined := waitRoom(t, c, room.ID, func(r Room) bool { return len(r.Members) == 2 })
	for _, m := range joined.Members {
		if m.ID != alice.ID || !m.Controller.HasMic {
			t.Fatalf("both entries should be alice holding the mic: %+v", m)
		}
	}
}

func TestHubUpdateUserInRoomBroadcasts(t *testing.T) {
	hub, _ := startHub(t, DefaultOptions())
	aliceConn := connect(t, hub, "a")
	bobConn := connect(t, hub, "b")

	alice := registerUser(t, aliceConn, "Alice")
	bob := registerUser(t, bobConn, "Bob")
	room := createRoom(t, aliceConn, "Standup", alice.ID)
	bobConn.Commands <- JoinRoom{UserID: bob.ID, RoomID: room.ID}
	waitRoom(t, aliceConn, room.ID, func(r Room) bool { return len(r.Members) == 2 })

	up := true
	color := "#00ff00"
	bobConn.Commands <- UpdateUserInRoom{RoomID: room.ID, UserID: bob.ID, HandUp: &up, Color: &color}

	updated := waitRoom(t, aliceConn, room.ID, func(r Room) bool {
		m, ok := r.Member(bob.ID)
		return ok && m.Controller.HandUp
	})
	m, _ := updated.Member(bob.ID)
	if m.Color != "#00ff00" || m.Controller.HasMic {
		t.Fatalf("unexpected bob projection: %+v", m)
	}

	blank := "  "
	bobConn.Commands <- UpdateUserInRoom{RoomID: room.ID, UserID: bob.ID, Name: &blank}
	ev := mustEvent(t, bobConn.Events, EventError)
	if ev.Error.Code != ErrCodeBadRequest {
		t.Fatalf("expected bad_request, got %+v", ev.Error)
	}

	bobConn.Commands <- UpdateUserInRoom{RoomID: "ghost", UserID: bob.ID, HandUp: &up}
	ev = mustEvent(t, bobConn.Events, EventError)
	if ev.Error.Code != ErrCodeRoomNotFound {
		t.Fatalf("expected room_not_found, got %+v", ev.Error)
	}
}

func TestHubChatLogRoundTrip(t *testing.T) {
	hub, _ := startHub(t, DefaultOptions())
	c := connect(t, hub, "conn")

	alice := registerUser(t, c, "Alice")
	room := createRoom(t, c, "Lobby", alice.ID)

	var last []ChatEntry
	for _, msg := range []string{"one", "two", "three"} {
		c.Commands <- SendChat{RoomID: room.ID, UserID: alice.ID, Message: msg}
		ev := mustEvent(t, c.Events, EventChatEntries)
		if got := ev.Entries[len(ev.Entries)-1].Message; got != msg {
			t.Fatalf("expected %q appended last, got %q", msg, got)
		}
		last = ev.Entries
	}

	c.Commands <- FetchChat{RoomID: room.ID}
	ev := mustEvent(t, c.Events, EventChatEntries)
	if len(ev.Entries) != len(last) {
		t.Fatalf("expected %d entries, got %d", len(last), len(ev.Entries))
	}
	for i := range last {
		if ev.Entries[i] != last[i] {
			t.Fatalf("entry %d differs: %+v vs %+v", i, ev.Entries[i], last[i])
		}
	}

	c.Commands <- FetchChat{RoomID: "ghost"}
	errEv := mustEvent(t, c.Events, EventError)
	if errEv.Error.Code != ErrCodeChatLogNotFound {
		t.Fatalf("expected chat_log_not_found, got %+v", errEv.Error)
	}
}

func TestHubListRoomsCommand(t *testing.T) {
	hub, _ := startHub(t, DefaultOptions())
	c := connect(t, hub, "conn")

	alice := registerUser(t, c, "Alice")
	createRoom(t, c, "b-room", alice.ID)
	createRoom(t, c, "a-room", alice.ID)

	c.Commands <- ListRooms{}
	ev := mustEvent(t, c.Events, EventRoomList)
	if len(ev.Rooms) != 2 || ev.Rooms[0].Name != "b-room" || ev.Rooms[1].Name != "a-room" {
		t.Fatalf("unexpected room list: %+v", ev.Rooms)
	}
}

func TestHubAnnounceRooms(t *testing.T) {
	hub, _ := startHub(t, Options{ReportErrors: true, AnnounceRooms: true})
	a := connect(t, hub, "a")
	watcher := connect(t, hub, "watcher")

	alice := registerUser(t, a, "Alice")
	a.Commands <- CreateRoom{Name: "Lobby", UserID: alice.ID}

	ev := mustEvent(t, watcher.Events, EventRoomList)
	if len(ev.Rooms) != 1 || ev.Rooms[0].Name != "Lobby" {
		t.Fatalf("unexpected announcement: %+v", ev.Rooms)
	}
}

func TestHubDisconnectMarksUsersAway(t *testing.T) {
	hub, _ := startHub(t, DefaultOptions())
	aliceConn := connect(t, hub, "a")
	bobConn := connect(t, hub, "b")

	alice := registerUser(t, aliceConn, "Alice")
	bob := registerUser(t, bobConn, "Bob")
	room := createRoom(t, aliceConn, "Standup", alice.ID)
	bobConn.Commands <- JoinRoom{UserID: bob.ID, RoomID: room.ID}
	waitRoom(t, aliceConn, room.ID, func(r Room) bool { return len(r.Members) == 2 })
	waitRoom(t, bobConn, room.ID, func(r Room) bool { return len(r.Members) == 2 })

	hub.UnregisterClient(bobConn)

	updated := waitRoom(t, aliceConn, room.ID, func(r Room) bool {
		m, ok := r.Member(bob.ID)
		return ok && m.Controller.AFK
	})
	if len(updated.Members) != 2 {
		t.Fatalf("disconnect must not change membership: %+v", updated.Members)
	}

	// The mic can still reach the away user; no private notification is
	// possible without a connection.
	aliceConn.Commands <- PassMic{RoomID: room.ID, FromUserID: alice.ID, ToUserID: bob.ID}
	waitRoom(t, aliceConn, room.ID, func(r Room) bool {
		m, _ := r.Member(bob.ID)
		return m.Controller.HasMic
	})
	expectNoEvent(t, bobConn.Events, 50*time.Millisecond)
}

func TestHubRejectsUnknownCommandType(t *testing.T) {
	hub, _ := startHub(t, DefaultOptions())
	c := connect(t, hub, "conn")

	c.Commands <- &CreateUser{Name: "pointer"}
	ev := mustEvent(t, c.Events, EventError)
	if ev.Error.Code != ErrCodeBadRequest {
		t.Fatalf("expected bad_request, got %+v", ev.Error)
	}
}

func TestHubListRoomsAfterStop(t *testing.T) {
	hub, cancel := startHub(t, DefaultOptions())
	cancel()
	<-hub.stopped

	if _, err := hub.ListRooms(context.Background()); !errors.Is(err, ErrHubStopped) {
		t.Fatalf("expected ErrHubStopped, got %v", err)
	}
}
