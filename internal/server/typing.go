package server

import "sort"

// TypingTracker holds the per-room set of users currently composing.
// Entries are added and removed explicitly; the server never expires
// them, clients clear their own state after inactivity. Owned by the
// ChatServer run loop.
type TypingTracker struct {
	typing map[string]map[string]string
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{
		typing: make(map[string]map[string]string),
	}
}

func (t *TypingTracker) Set(roomId, connId, username string, isTyping bool) {
	room, ok := t.typing[roomId]
	if !ok {
		if !isTyping {
			return
		}
		room = make(map[string]string)
		t.typing[roomId] = room
	}

	if isTyping {
		room[connId] = username
	} else {
		delete(room, connId)
		if len(room) == 0 {
			delete(t.typing, roomId)
		}
	}
}

// Usernames returns the users typing in the room in a stable order.
func (t *TypingTracker) Usernames(roomId string) []string {
	users := []string{}
	for _, username := range t.typing[roomId] {
		users = append(users, username)
	}
	sort.Strings(users)

	return users
}

// RemoveConn drops the connection from every room's typing set and
// returns the affected room ids.
func (t *TypingTracker) RemoveConn(connId string) []string {
	var rooms []string
	for roomId, room := range t.typing {
		if _, ok := room[connId]; !ok {
			continue
		}

		delete(room, connId)
		if len(room) == 0 {
			delete(t.typing, roomId)
		}
		rooms = append(rooms, roomId)
	}
	sort.Strings(rooms)

	return rooms
}
