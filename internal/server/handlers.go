package server

import (
	"github.com/go-chathub/chathub/internal/types"
)

const joinBacklogLimit = 50

// handleUserJoin registers (or re-registers) the connection's identity
// and places it in the default room.
func (cs *ChatServer) handleUserJoin(c *Client, p *UserJoin) {
	user := cs.sessions.Register(c.id, p.Username, p.Avatar)
	cs.rooms.Join(cs.defaultRoom, c.id)
	cs.unread.Init(c.id)

	cs.broadcastAll(&ServerMessage{Event: EventUserList, Data: cs.sessions.Users()})
	cs.broadcastRoom(cs.defaultRoom, &ServerMessage{
		Event: EventUserJoined,
		Data:  UserJoinedPayload{Username: user.Username, Id: c.id, Room: cs.defaultRoom},
	})

	cs.sendTo(c.id, &ServerMessage{
		Event: EventLoadMessages,
		Data: LoadMessagesPayload{
			RoomId:   cs.defaultRoom,
			Messages: cs.store.Tail(cs.defaultRoom, joinBacklogLimit),
		},
	})
	cs.sendTo(c.id, cs.roomMembersMessage(cs.defaultRoom))

	cs.log.Printf("%s joined the chat", user.Username)
}

// handleJoinRoom moves the connection from its current room to the
// target, lazily creating the target.
func (cs *ChatServer) handleJoinRoom(c *Client, user *types.User, p *JoinRoom) {
	if p.RoomId == "" {
		return
	}

	if prev := user.CurrentRoom; prev != "" && cs.rooms.Leave(prev, c.id) {
		cs.broadcastRoom(prev, cs.roomMembersMessage(prev))
	}

	if cs.rooms.Ensure(p.RoomId, "") {
		cs.store.EnsureLog(p.RoomId)
		cs.metrics.RoomCount(cs.rooms.Len())
		cs.broadcastAll(&ServerMessage{Event: EventRoomsList, Data: cs.rooms.List()})
	}

	cs.rooms.Join(p.RoomId, c.id)
	cs.sessions.SetCurrentRoom(c.id, p.RoomId)

	cs.unread.Reset(c.id, p.RoomId)
	cs.sendTo(c.id, &ServerMessage{
		Event: EventUnreadCountUpdate,
		Data:  UnreadCountUpdatePayload{RoomId: p.RoomId, Count: 0},
	})

	cs.sendTo(c.id, &ServerMessage{
		Event: EventLoadMessages,
		Data: LoadMessagesPayload{
			RoomId:   p.RoomId,
			Messages: cs.store.Tail(p.RoomId, joinBacklogLimit),
		},
	})

	cs.broadcastRoom(p.RoomId, &ServerMessage{
		Event: EventUserJoinedRoom,
		Data:  UserJoinedRoomPayload{Username: user.Username, RoomId: p.RoomId},
	})
	cs.broadcastRoom(p.RoomId, cs.roomMembersMessage(p.RoomId))

	cs.log.Printf("%s joined room %q", user.Username, p.RoomId)
}

// handleCreateRoom lazily creates a room. Duplicate creation requests
// are silently ignored; the creation acknowledgment goes only to the
// requester, and only on genuine creation.
func (cs *ChatServer) handleCreateRoom(c *Client, user *types.User, p *CreateRoom) {
	if p.RoomId == "" {
		return
	}

	if !cs.rooms.Ensure(p.RoomId, p.RoomName) {
		return
	}

	cs.store.EnsureLog(p.RoomId)
	cs.metrics.RoomCount(cs.rooms.Len())

	cs.broadcastAll(&ServerMessage{Event: EventRoomsList, Data: cs.rooms.List()})

	roomName := p.RoomName
	if roomName == "" {
		roomName = p.RoomId
	}
	cs.sendTo(c.id, &ServerMessage{
		Event: EventRoomCreated,
		Data:  RoomCreatedPayload{RoomId: p.RoomId, RoomName: roomName},
	})

	cs.log.Printf("%s created room %q", user.Username, p.RoomId)
}

func (cs *ChatServer) handleLeaveRoom(c *Client, user *types.User, p *LeaveRoom) {
	if !cs.rooms.Leave(p.RoomId, c.id) {
		return
	}

	cs.broadcastRoom(p.RoomId, &ServerMessage{
		Event: EventUserLeftRoom,
		Data:  UserLeftRoomPayload{Username: user.Username, RoomId: p.RoomId},
	})
	cs.broadcastRoom(p.RoomId, cs.roomMembersMessage(p.RoomId))
}

// handleSendMessage appends the message to the room log, fans it out to
// the room, bumps everyone else's unread counter and acknowledges
// delivery to the sender.
func (cs *ChatServer) handleSendMessage(c *Client, user *types.User, p *SendMessage) {
	roomId := cs.targetRoom(p.RoomId, user)

	msg := cs.store.Append(roomId, &types.Message{
		Sender:       user.Username,
		SenderId:     c.id,
		SenderAvatar: user.Avatar,
		Body:         p.Body,
		File:         p.File,
	})
	cs.metrics.MessageSent("room")

	// fan out a snapshot taken before the delivered flag flips
	cs.broadcastRoom(roomId, &ServerMessage{Event: EventReceiveMessage, Data: *msg})

	for _, connId := range cs.rooms.Members(roomId) {
		if connId == c.id {
			continue
		}

		count := cs.unread.Increment(connId, roomId)
		cs.sendTo(connId, &ServerMessage{
			Event: EventUnreadCountUpdate,
			Data:  UnreadCountUpdatePayload{RoomId: roomId, Count: count},
		})
	}

	msg.Delivered = true
	cs.sendTo(c.id, &ServerMessage{
		Event: EventMessageDelivered,
		Data:  MessageDeliveredPayload{MessageId: msg.Id},
	})
}

// handlePrivateMessage delivers point-to-point, bypassing room
// membership. The sender gets a mirrored copy. Private messages are not
// retained in any room log.
func (cs *ChatServer) handlePrivateMessage(c *Client, user *types.User, p *PrivateMessage) {
	if _, ok := cs.sessions.Lookup(p.To); !ok {
		cs.sendTo(c.id, ErrUserNotFound())
		return
	}

	msg := &types.Message{
		Id:           cs.store.newMessageId(),
		RecipientId:  p.To,
		Sender:       user.Username,
		SenderId:     c.id,
		SenderAvatar: user.Avatar,
		Body:         p.Body,
		File:         p.File,
		Timestamp:    Now(),
		IsPrivate:    true,
	}
	if msg.File != nil {
		msg.Body = ""
	}
	cs.metrics.MessageSent("private")

	out := &ServerMessage{Event: EventPrivateMessage, Data: *msg}
	cs.sendTo(p.To, out)
	cs.sendTo(c.id, out)

	count := cs.unread.Increment(p.To, PrivateRoomKey)
	cs.sendTo(p.To, &ServerMessage{
		Event: EventUnreadCountUpdate,
		Data:  UnreadCountUpdatePayload{RoomId: PrivateRoomKey, Count: count},
	})
}

// handleTyping updates the room's typing set and notifies every other
// member; the typer is not told about its own state.
func (cs *ChatServer) handleTyping(c *Client, user *types.User, p *Typing) {
	roomId := cs.targetRoom(p.RoomId, user)

	cs.typing.Set(roomId, c.id, user.Username, p.IsTyping)

	cs.broadcastRoom(roomId, &ServerMessage{
		Event: EventTypingUsers,
		Data:  TypingUsersPayload{RoomId: roomId, Users: cs.typing.Usernames(roomId)},
	}, c.id)
}

func (cs *ChatServer) handleAddReaction(c *Client, user *types.User, p *AddReaction) {
	roomId := cs.targetRoom(p.RoomId, user)

	reactions := cs.reactions.Add(p.MessageId, c.id, p.Reaction)

	cs.broadcastRoom(roomId, &ServerMessage{
		Event: EventReactionAdded,
		Data: ReactionAddedPayload{
			MessageId: p.MessageId,
			Reaction:  p.Reaction,
			Reactions: reactions,
			UserId:    c.id,
			Username:  user.Username,
		},
	})
}

// handleMarkRead records an acknowledgment per message id and announces
// each receipt to the room. Unknown message ids are accepted; only
// messages still in the room's log get their read-by list appended.
func (cs *ChatServer) handleMarkRead(c *Client, user *types.User, p *MarkRead) {
	roomId := cs.targetRoom(p.RoomId, user)

	for _, messageId := range p.MessageIds {
		ts := Now()
		cs.receipts.Mark(messageId, c.id, ts)

		if msg, ok := cs.store.Get(roomId, messageId); ok && !contains(msg.ReadBy, c.id) {
			// reallocate so snapshots queued earlier keep their view
			msg.ReadBy = append(append([]string{}, msg.ReadBy...), c.id)
		}

		cs.broadcastRoom(roomId, &ServerMessage{
			Event: EventReadReceipt,
			Data: ReadReceiptPayload{
				MessageId: messageId,
				UserId:    c.id,
				Username:  user.Username,
				Timestamp: ts,
			},
		})
	}
}

func (cs *ChatServer) handleSearchMessages(c *Client, user *types.User, p *SearchMessages) {
	roomId := cs.targetRoom(p.RoomId, user)

	cs.sendTo(c.id, &ServerMessage{
		Event: EventSearchResults,
		Data: SearchResultsPayload{
			Query:   p.Query,
			Results: cs.store.Search(roomId, p.Query),
		},
	})
}

func (cs *ChatServer) handleLoadOlderMessages(c *Client, user *types.User, p *LoadOlderMessages) {
	roomId := cs.targetRoom(p.RoomId, user)

	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	cs.sendTo(c.id, &ServerMessage{
		Event: EventOlderMessages,
		Data: OlderMessagesPayload{
			RoomId:   roomId,
			Messages: cs.store.Page(roomId, p.BeforeMessageId, limit),
		},
	})
}

func (cs *ChatServer) handleGetUnreadCounts(c *Client) {
	cs.sendTo(c.id, &ServerMessage{Event: EventUnreadCounts, Data: cs.unread.Snapshot(c.id)})
}

// targetRoom resolves an optional room id against the user's current
// room, then the default room.
func (cs *ChatServer) targetRoom(roomId string, user *types.User) string {
	if roomId != "" {
		return roomId
	}
	if user.CurrentRoom != "" {
		return user.CurrentRoom
	}
	return cs.defaultRoom
}
