package server

import "sort"

// RoomDirectory tracks the set of known rooms and their membership.
// Rooms are created lazily and never deleted; the default room exists
// before any connection is accepted. Owned by the ChatServer run loop.
type RoomDirectory struct {
	rooms map[string]*roomState
	order []string
}

type roomState struct {
	name    string
	members map[string]struct{}
}

func NewRoomDirectory(defaultRoom string) *RoomDirectory {
	d := &RoomDirectory{
		rooms: make(map[string]*roomState),
	}
	d.Ensure(defaultRoom, "")

	return d
}

// Ensure creates the room if it does not exist and reports whether it was
// newly created. The first non-empty display name provided for a room
// wins; implicitly created rooms have none until one is supplied.
func (d *RoomDirectory) Ensure(roomId, name string) bool {
	if room, ok := d.rooms[roomId]; ok {
		if room.name == "" && name != "" {
			room.name = name
		}
		return false
	}

	d.rooms[roomId] = &roomState{
		name:    name,
		members: make(map[string]struct{}),
	}
	d.order = append(d.order, roomId)

	return true
}

// Join adds the connection to the room, creating the room if needed.
func (d *RoomDirectory) Join(roomId, connId string) {
	d.Ensure(roomId, "")
	d.rooms[roomId].members[connId] = struct{}{}
}

// Leave removes the connection from the room's membership and reports
// whether it was a member. Empty rooms are kept.
func (d *RoomDirectory) Leave(roomId, connId string) bool {
	room, ok := d.rooms[roomId]
	if !ok {
		return false
	}
	if _, member := room.members[connId]; !member {
		return false
	}

	delete(room.members, connId)
	return true
}

func (d *RoomDirectory) IsMember(roomId, connId string) bool {
	room, ok := d.rooms[roomId]
	if !ok {
		return false
	}
	_, member := room.members[connId]
	return member
}

// Members returns the connection ids in the room in a stable order.
func (d *RoomDirectory) Members(roomId string) []string {
	room, ok := d.rooms[roomId]
	if !ok {
		return nil
	}

	members := make([]string, 0, len(room.members))
	for connId := range room.members {
		members = append(members, connId)
	}
	sort.Strings(members)

	return members
}

// Name returns the room's display name, empty for implicitly created rooms.
func (d *RoomDirectory) Name(roomId string) string {
	if room, ok := d.rooms[roomId]; ok {
		return room.name
	}
	return ""
}

func (d *RoomDirectory) Exists(roomId string) bool {
	_, ok := d.rooms[roomId]
	return ok
}

// List returns room ids in creation order.
func (d *RoomDirectory) List() []string {
	list := make([]string, len(d.order))
	copy(list, d.order)
	return list
}

func (d *RoomDirectory) Len() int {
	return len(d.rooms)
}
