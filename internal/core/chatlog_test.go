package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChatLogsAppendKeepsOrder(t *testing.T) {
	logs := NewChatLogs()
	logs.Init("room")
	author := PublicUser{ID: "u1", Name: "Bob", Color: "#abcdef"}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	var observed []ChatEntry
	for i, msg := range []string{"one", "two", "three"} {
		entries, err := logs.Append("room", author, msg, at.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.Len(t, entries, i+1)
		observed = append(observed, entries[len(entries)-1])
	}

	log, err := logs.Log("room")
	require.NoError(t, err)
	require.Equal(t, observed, log)
	require.Equal(t, "two", log[1].Message)
	require.Equal(t, author, log[1].Author)
	require.Equal(t, "#abcdef", log[1].Color)
	require.Equal(t, at.Add(time.Second), log[1].PostedAt)
}

func TestChatLogsMissingLog(t *testing.T) {
	logs := NewChatLogs()

	_, err := logs.Append("ghost", PublicUser{}, "hi", time.Now())
	require.ErrorIs(t, err, ErrChatLogNotFound)

	_, err = logs.Log("ghost")
	require.ErrorIs(t, err, ErrChatLogNotFound)
}

func TestChatLogsInitIsIdempotent(t *testing.T) {
	logs := NewChatLogs()
	logs.Init("room")
	_, err := logs.Append("room", PublicUser{ID: "u"}, "kept", time.Now())
	require.NoError(t, err)

	logs.Init("room")
	log, err := logs.Log("room")
	require.NoError(t, err)
	require.Len(t, log, 1)
}

func TestChatLogsReturnsCopies(t *testing.T) {
	logs := NewChatLogs()
	logs.Init("room")
	entries, err := logs.Append("room", PublicUser{ID: "u"}, "first draft", time.Now())
	require.NoError(t, err)

	entries[0].Message = "changed"
	log, err := logs.Log("room")
	require.NoError(t, err)
	require.Equal(t, "first draft", log[0].Message)

	logs.Init("empty")
	empty, err := logs.Log("empty")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}
