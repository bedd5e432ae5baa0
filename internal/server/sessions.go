package server

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/go-chathub/chathub/internal/types"
)

// SessionRegistry maps connection ids to user identities. It is owned by
// the ChatServer run loop and is not safe for concurrent use.
type SessionRegistry struct {
	defaultRoom string
	sessions    map[string]*types.User
}

func NewSessionRegistry(defaultRoom string) *SessionRegistry {
	return &SessionRegistry{
		defaultRoom: defaultRoom,
		sessions:    make(map[string]*types.User),
	}
}

// Register assigns an identity to a connection and places it in the
// default room. Registering an already-known connection overwrites its
// identity. Empty usernames and avatars get synthesized defaults.
func (s *SessionRegistry) Register(connId, username, avatar string) *types.User {
	if username == "" {
		username = "User_" + truncId(connId)
	}
	if avatar == "" {
		avatar = fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=random", url.QueryEscape(username))
	}

	user := &types.User{
		Id:          connId,
		Username:    username,
		Avatar:      avatar,
		CurrentRoom: s.defaultRoom,
		JoinedAt:    Now(),
	}
	s.sessions[connId] = user

	return user
}

func (s *SessionRegistry) Lookup(connId string) (*types.User, bool) {
	user, ok := s.sessions[connId]
	return user, ok
}

func (s *SessionRegistry) SetCurrentRoom(connId, roomId string) {
	if user, ok := s.sessions[connId]; ok {
		user.CurrentRoom = roomId
	}
}

func (s *SessionRegistry) Remove(connId string) {
	delete(s.sessions, connId)
}

// Users returns copies of all registered identities ordered by join
// time. Copies keep queued broadcasts stable against later current-room
// changes.
func (s *SessionRegistry) Users() []types.User {
	users := make([]types.User, 0, len(s.sessions))
	for _, user := range s.sessions {
		users = append(users, *user)
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinedAt.Equal(users[j].JoinedAt) {
			return users[i].Id < users[j].Id
		}
		return users[i].JoinedAt.Before(users[j].JoinedAt)
	})

	return users
}

func truncId(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}
