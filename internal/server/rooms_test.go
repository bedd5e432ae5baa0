package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomDirectoryEnsure(t *testing.T) {
	t.Run("default room exists up front", func(t *testing.T) {
		dir := NewRoomDirectory("general")

		assert.True(t, dir.Exists("general"))
		assert.Equal(t, []string{"general"}, dir.List())
	})

	t.Run("creates once", func(t *testing.T) {
		dir := NewRoomDirectory("general")

		assert.True(t, dir.Ensure("random", "Random"), "expected first ensure to create")
		assert.False(t, dir.Ensure("random", "Other Name"), "expected second ensure to be a no-op")
		assert.Equal(t, "Random", dir.Name("random"), "expected the first provided name to win")
	})

	t.Run("implicit room picks up a later name", func(t *testing.T) {
		dir := NewRoomDirectory("general")

		dir.Ensure("random", "")
		assert.Empty(t, dir.Name("random"))

		dir.Ensure("random", "Random")
		assert.Equal(t, "Random", dir.Name("random"))
	})

	t.Run("list keeps creation order", func(t *testing.T) {
		dir := NewRoomDirectory("general")
		dir.Ensure("zebra", "")
		dir.Ensure("alpha", "")

		assert.Equal(t, []string{"general", "zebra", "alpha"}, dir.List())
	})
}

func TestRoomDirectoryMembership(t *testing.T) {
	t.Run("join lazily creates the room", func(t *testing.T) {
		dir := NewRoomDirectory("general")

		dir.Join("random", "conn-1")

		assert.True(t, dir.Exists("random"))
		assert.True(t, dir.IsMember("random", "conn-1"))
		assert.Equal(t, []string{"conn-1"}, dir.Members("random"))
	})

	t.Run("leave removes membership but keeps the room", func(t *testing.T) {
		dir := NewRoomDirectory("general")
		dir.Join("random", "conn-1")

		assert.True(t, dir.Leave("random", "conn-1"))
		assert.False(t, dir.IsMember("random", "conn-1"))
		assert.True(t, dir.Exists("random"), "expected empty rooms to persist")
	})

	t.Run("leave is a no-op for non-members", func(t *testing.T) {
		dir := NewRoomDirectory("general")
		dir.Join("random", "conn-1")

		assert.False(t, dir.Leave("random", "conn-2"))
		assert.False(t, dir.Leave("nowhere", "conn-1"))
	})

	t.Run("members are stable", func(t *testing.T) {
		dir := NewRoomDirectory("general")
		dir.Join("general", "conn-b")
		dir.Join("general", "conn-a")

		members := dir.Members("general")
		require.Len(t, members, 2)
		assert.Equal(t, []string{"conn-a", "conn-b"}, members)
	})
}
