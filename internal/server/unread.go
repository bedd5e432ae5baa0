package server

// PrivateRoomKey is the synthetic room key that aggregates unread counts
// for private messages to one recipient, regardless of sender.
const PrivateRoomKey = "private"

// UnreadCounter tracks per-connection, per-room pending-message counts.
// Owned by the ChatServer run loop.
type UnreadCounter struct {
	counts map[string]map[string]int
}

func NewUnreadCounter() *UnreadCounter {
	return &UnreadCounter{
		counts: make(map[string]map[string]int),
	}
}

// Init resets the connection's unread map to empty.
func (u *UnreadCounter) Init(connId string) {
	u.counts[connId] = make(map[string]int)
}

// Increment bumps the connection's counter for the room and returns the
// new value.
func (u *UnreadCounter) Increment(connId, roomId string) int {
	byRoom, ok := u.counts[connId]
	if !ok {
		byRoom = make(map[string]int)
		u.counts[connId] = byRoom
	}

	byRoom[roomId]++
	return byRoom[roomId]
}

// Reset zeroes the connection's counter for the room.
func (u *UnreadCounter) Reset(connId, roomId string) {
	if byRoom, ok := u.counts[connId]; ok {
		byRoom[roomId] = 0
	}
}

// Snapshot returns a copy of the connection's full unread map.
func (u *UnreadCounter) Snapshot(connId string) map[string]int {
	byRoom := u.counts[connId]

	out := make(map[string]int, len(byRoom))
	for roomId, count := range byRoom {
		out[roomId] = count
	}

	return out
}

func (u *UnreadCounter) Remove(connId string) {
	delete(u.counts, connId)
}
