package server

import (
	"context"
	"log"

	"github.com/go-chathub/chathub/internal/metrics"
	"github.com/go-chathub/chathub/internal/types"
)

// ChatServer owns all hub state. Every mutation happens on the Run loop,
// which serializes events across rooms; clients and the HTTP API talk to
// it only through channels.
type ChatServer struct {
	log         *log.Logger
	metrics     metrics.Provider
	defaultRoom string

	clients   map[string]*Client
	sessions  *SessionRegistry
	rooms     *RoomDirectory
	store     *MessageStore
	typing    *TypingTracker
	reactions *ReactionLedger
	receipts  *ReceiptTracker
	unread    *UnreadCounter

	inbound        chan *InboundMessage
	registerChan   chan *Client
	deregisterChan chan *Client
	queries        chan func()
	stop           chan stopReq
}

type stopReq struct {
	done chan struct{}
}

func NewChatServer(logger *log.Logger, m metrics.Provider, defaultRoom string) *ChatServer {
	cs := &ChatServer{
		log:            logger,
		metrics:        m,
		defaultRoom:    defaultRoom,
		clients:        make(map[string]*Client),
		sessions:       NewSessionRegistry(defaultRoom),
		rooms:          NewRoomDirectory(defaultRoom),
		store:          NewMessageStore(),
		typing:         NewTypingTracker(),
		reactions:      NewReactionLedger(),
		receipts:       NewReceiptTracker(),
		unread:         NewUnreadCounter(),
		inbound:        make(chan *InboundMessage, 512),
		registerChan:   make(chan *Client),
		deregisterChan: make(chan *Client),
		queries:        make(chan func()),
		stop:           make(chan stopReq),
	}

	cs.store.EnsureLog(defaultRoom)
	m.RoomCount(cs.rooms.Len())

	return cs
}

func (cs *ChatServer) Run() {
	for {
		select {
		case c := <-cs.registerChan:
			cs.handleRegister(c)
		case c := <-cs.deregisterChan:
			cs.handleDisconnect(c)
		case msg := <-cs.inbound:
			cs.dispatch(msg)
		case fn := <-cs.queries:
			fn()
		case req := <-cs.stop:
			cs.log.Println("stopping chat server")
			for _, c := range cs.clients {
				close(c.stop)
			}
			close(req.done)
			return
		}
	}
}

// RegisterClient hands a new connection to the run loop.
func (cs *ChatServer) RegisterClient(c *Client) {
	cs.registerChan <- c
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	req := stopReq{done: make(chan struct{})}

	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ChatServer) handleRegister(c *Client) {
	cs.log.Printf("connection %s established", c.id)
	cs.clients[c.id] = c
	cs.metrics.ConnOpened()

	// a fresh connection learns the room list before it identifies itself
	cs.sendTo(c.id, &ServerMessage{Event: EventRoomsList, Data: cs.rooms.List()})
}

func (cs *ChatServer) handleDisconnect(c *Client) {
	if _, ok := cs.clients[c.id]; !ok {
		return
	}

	delete(cs.clients, c.id)
	cs.metrics.ConnClosed()

	user, ok := cs.sessions.Lookup(c.id)
	if !ok {
		// never identified, nothing to clean up
		return
	}

	cs.log.Printf("%s disconnected", user.Username)

	if roomId := user.CurrentRoom; roomId != "" && cs.rooms.Leave(roomId, c.id) {
		cs.broadcastRoom(roomId, &ServerMessage{
			Event: EventUserLeftRoom,
			Data:  UserLeftRoomPayload{Username: user.Username, RoomId: roomId},
		})
		cs.broadcastRoom(roomId, cs.roomMembersMessage(roomId))
	}

	cs.typing.RemoveConn(c.id)
	cs.sessions.Remove(c.id)
	cs.unread.Remove(c.id)

	cs.broadcastAll(&ServerMessage{
		Event: EventUserLeft,
		Data:  UserLeftPayload{Username: user.Username, Id: c.id},
	})
	cs.broadcastAll(&ServerMessage{Event: EventUserList, Data: cs.sessions.Users()})
}

// dispatch resolves the acting user once and routes the event to its
// handler. Events from unidentified connections are absorbed as no-ops,
// except user_join which establishes the identity.
func (cs *ChatServer) dispatch(msg *InboundMessage) {
	cs.metrics.EventReceived(msg.Event())

	if msg.UserJoin != nil {
		cs.handleUserJoin(msg.client, msg.UserJoin)
		return
	}

	user, ok := cs.sessions.Lookup(msg.client.id)
	if !ok {
		cs.log.Printf("dropping %s from unregistered connection %s", msg.Event(), msg.client.id)
		return
	}

	switch {
	case msg.JoinRoom != nil:
		cs.handleJoinRoom(msg.client, user, msg.JoinRoom)
	case msg.CreateRoom != nil:
		cs.handleCreateRoom(msg.client, user, msg.CreateRoom)
	case msg.LeaveRoom != nil:
		cs.handleLeaveRoom(msg.client, user, msg.LeaveRoom)
	case msg.SendMessage != nil:
		cs.handleSendMessage(msg.client, user, msg.SendMessage)
	case msg.PrivateMessage != nil:
		cs.handlePrivateMessage(msg.client, user, msg.PrivateMessage)
	case msg.Typing != nil:
		cs.handleTyping(msg.client, user, msg.Typing)
	case msg.AddReaction != nil:
		cs.handleAddReaction(msg.client, user, msg.AddReaction)
	case msg.MarkRead != nil:
		cs.handleMarkRead(msg.client, user, msg.MarkRead)
	case msg.SearchMessages != nil:
		cs.handleSearchMessages(msg.client, user, msg.SearchMessages)
	case msg.LoadOlderMessages != nil:
		cs.handleLoadOlderMessages(msg.client, user, msg.LoadOlderMessages)
	case msg.GetUnreadCounts != nil:
		cs.handleGetUnreadCounts(msg.client)
	}
}

// sendTo delivers an event to one connection. A connection id with no
// live channel is a silent no-op, covering races with disconnects.
func (cs *ChatServer) sendTo(connId string, msg *ServerMessage) {
	c, ok := cs.clients[connId]
	if !ok {
		return
	}

	c.queueMessage(msg)
	cs.metrics.EventBroadcast(msg.Event)
}

// broadcastRoom delivers an event to every member of the room except the
// skipped connection ids.
func (cs *ChatServer) broadcastRoom(roomId string, msg *ServerMessage, skip ...string) {
	for _, connId := range cs.rooms.Members(roomId) {
		if contains(skip, connId) {
			continue
		}
		cs.sendTo(connId, msg)
	}
}

func (cs *ChatServer) broadcastAll(msg *ServerMessage) {
	for connId := range cs.clients {
		cs.sendTo(connId, msg)
	}
}

// memberUsers maps the room's member connection ids to identities,
// skipping connections that never completed a join handshake.
func (cs *ChatServer) memberUsers(roomId string) []types.User {
	members := []types.User{}
	for _, connId := range cs.rooms.Members(roomId) {
		if user, ok := cs.sessions.Lookup(connId); ok {
			members = append(members, *user)
		}
	}

	return members
}

func (cs *ChatServer) roomMembersMessage(roomId string) *ServerMessage {
	return &ServerMessage{
		Event: EventRoomMembers,
		Data:  RoomMembersPayload{RoomId: roomId, Members: cs.memberUsers(roomId)},
	}
}

// query runs fn on the Run loop and waits for it, giving HTTP handlers a
// consistent snapshot of hub state.
func (cs *ChatServer) query(ctx context.Context, fn func()) error {
	done := make(chan struct{})

	select {
	case cs.queries <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rooms returns the known room ids in creation order.
func (cs *ChatServer) Rooms(ctx context.Context) ([]string, error) {
	var rooms []string
	err := cs.query(ctx, func() {
		rooms = cs.rooms.List()
	})

	return rooms, err
}

// Users returns all registered identities.
func (cs *ChatServer) Users(ctx context.Context) ([]types.User, error) {
	var users []types.User
	err := cs.query(ctx, func() {
		users = cs.sessions.Users()
	})

	return users, err
}

// RoomMessages returns the room's full retained log.
func (cs *ChatServer) RoomMessages(ctx context.Context, roomId string) ([]types.Message, error) {
	var msgs []types.Message
	err := cs.query(ctx, func() {
		msgs = cs.store.Messages(roomId)
	})

	return msgs, err
}
