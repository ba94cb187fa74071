package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUsersRegisterRejectsCaseInsensitiveDuplicate(t *testing.T) {
	users := NewUsers()

	first, err := users.Register("Alice", "#ff0000", "conn-1")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, TurnState{}, first.Controller)

	_, err = users.Register("aLICE", "#00ff00", "conn-2")
	require.ErrorIs(t, err, ErrNameTaken)
	require.Equal(t, 1, users.Len())
}

func TestUsersRegisterRejectsBlankName(t *testing.T) {
	users := NewUsers()

	_, err := users.Register("   ", "#fff", "conn")
	require.ErrorIs(t, err, ErrBadRequest)
	require.Zero(t, users.Len())
}

func TestUsersLookupUnknown(t *testing.T) {
	_, err := NewUsers().Lookup("ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUsersApplyPatchMergesController(t *testing.T) {
	users := NewUsers()
	u, err := users.Register("Bob", "#000", "conn")
	require.NoError(t, err)

	color := "#123456"
	patched, err := users.ApplyPatch(u.ID, UserPatch{
		Color:      &color,
		Controller: &TurnPatch{HandUp: boolPtr(true)},
	})
	require.NoError(t, err)
	require.Equal(t, "Bob", patched.Name)
	require.Equal(t, "#123456", patched.Color)
	require.Equal(t, TurnState{HandUp: true}, patched.Controller)

	patched, err = users.ApplyPatch(u.ID, UserPatch{Controller: &TurnPatch{AFK: boolPtr(true)}})
	require.NoError(t, err)
	require.Equal(t, TurnState{HandUp: true, AFK: true}, patched.Controller)

	stored, err := users.Lookup(u.ID)
	require.NoError(t, err)
	require.Equal(t, patched, stored)

	_, err = users.ApplyPatch("ghost", UserPatch{})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUsersReleaseConnection(t *testing.T) {
	users := NewUsers()
	a, err := users.Register("a", "", "conn-1")
	require.NoError(t, err)
	b, err := users.Register("b", "", "conn-1")
	require.NoError(t, err)
	c, err := users.Register("c", "", "conn-2")
	require.NoError(t, err)

	released := users.ReleaseConnection("conn-1")
	require.Len(t, released, 2)
	require.Equal(t, a.ID, released[0].ID)
	require.Equal(t, b.ID, released[1].ID)

	got, err := users.Lookup(a.ID)
	require.NoError(t, err)
	require.Empty(t, got.ConnectionRef)

	got, err = users.Lookup(c.ID)
	require.NoError(t, err)
	require.Equal(t, "conn-2", got.ConnectionRef)

	require.Empty(t, users.ReleaseConnection(""))
}

func TestUsersReset(t *testing.T) {
	users := NewUsers()
	_, err := users.Register("Alice", "", "")
	require.NoError(t, err)

	users.Reset()
	require.Zero(t, users.Len())

	_, err = users.Register("alice", "", "")
	require.NoError(t, err)
}

func TestUsersRenameKeepsSharedNameTaken(t *testing.T) {
	users := NewUsers()
	a, err := users.Register("Alice", "", "conn-1")
	require.NoError(t, err)
	_, err = users.Register("Bob", "", "conn-2")
	require.NoError(t, err)

	bob := "bob"
	_, err = users.ApplyPatch(a.ID, UserPatch{Name: &bob})
	require.NoError(t, err)
	carol := "Carol"
	_, err = users.ApplyPatch(a.ID, UserPatch{Name: &carol})
	require.NoError(t, err)

	_, err = users.Register("BOB", "", "conn-3")
	require.ErrorIs(t, err, ErrNameTaken)
	_, err = users.Register("carol", "", "conn-3")
	require.ErrorIs(t, err, ErrNameTaken)

	// the name Alice gave up is free again
	_, err = users.Register("alice", "", "conn-3")
	require.NoError(t, err)
}
