package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/nextdoorbuddy/neighborchat/internal/database"
	"github.com/nextdoorbuddy/neighborchat/internal/stats"
	"github.com/nextdoorbuddy/neighborchat/internal/types"
)

// Metric names registered with the stats provider.
const (
	MetricActiveConnections = "active_connections"
	MetricMessagesDelivered = "messages_delivered_total"
	MetricMessagesQueued    = "messages_queued_total"
	MetricPresenceFailures  = "presence_failures_total"
	MetricTypingFailures    = "typing_failures_total"
	MetricReaperErrors      = "reaper_errors_total"
)

type ChatServer struct {
	log   *log.Logger
	db    database.NeighborChatRepository
	stats stats.StatsProvider

	// mu guards the connection indexes below. It is only ever held for
	// map bookkeeping, never across a database call.
	mu            sync.RWMutex
	clients       map[*Client]struct{}
	users         map[int]map[*Client]struct{}
	rooms         map[int]map[*Client]struct{}
	neighborhoods map[int]map[*Client]struct{}

	stop chan struct{}
	done chan struct{}
}

func NewChatServer(logger *log.Logger, db database.NeighborChatRepository, su stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:           logger,
		db:            db,
		stats:         su,
		clients:       make(map[*Client]struct{}),
		users:         make(map[int]map[*Client]struct{}),
		rooms:         make(map[int]map[*Client]struct{}),
		neighborhoods: make(map[int]map[*Client]struct{}),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	for _, name := range []string{
		MetricActiveConnections,
		MetricMessagesDelivered,
		MetricMessagesQueued,
		MetricPresenceFailures,
		MetricTypingFailures,
		MetricReaperErrors,
	} {
		su.RegisterMetric(name)
	}

	return cs, nil
}

// Run drives the server's background work (the periodic reaper) until
// Shutdown is called.
func (cs *ChatServer) Run() {
	cs.runReaper()
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.mu.Lock()
	for c := range cs.clients {
		c.stopClient()
	}
	cs.mu.Unlock()

	close(cs.stop)

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ChatServer) RegisterClient(c *Client) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.clients[c] = struct{}{}

	userId := c.session.User.Id
	if cs.users[userId] == nil {
		cs.users[userId] = make(map[*Client]struct{})
	}
	cs.users[userId][c] = struct{}{}

	nid := c.session.User.NeighborhoodId
	if cs.neighborhoods[nid] == nil {
		cs.neighborhoods[nid] = make(map[*Client]struct{})
	}
	cs.neighborhoods[nid][c] = struct{}{}

	cs.stats.Incr(MetricActiveConnections)
}

// UnregisterClient removes the connection from every index. If it was the
// user's last live connection, the user goes offline and their typing
// records are cleared.
func (cs *ChatServer) UnregisterClient(c *Client) {
	cs.mu.Lock()
	if _, ok := cs.clients[c]; !ok {
		cs.mu.Unlock()
		return
	}
	delete(cs.clients, c)

	userId := c.session.User.Id
	if conns, ok := cs.users[userId]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(cs.users, userId)
		}
	}

	nid := c.session.User.NeighborhoodId
	if conns, ok := cs.neighborhoods[nid]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(cs.neighborhoods, nid)
		}
	}

	for roomId, conns := range cs.rooms {
		delete(conns, c)
		if len(conns) == 0 {
			delete(cs.rooms, roomId)
		}
	}

	lastConn := cs.users[userId] == nil
	cs.mu.Unlock()

	cs.stats.Decr(MetricActiveConnections)

	if lastConn {
		cs.setOffline(c)

		if err := cs.db.ClearTypingForUser(userId); err != nil {
			cs.log.Printf("clear typing for user %d: %v", userId, err)
			cs.stats.Incr(MetricTypingFailures)
		}
	}
}

// EstablishSession runs the post-authentication hook for a freshly
// registered connection: presence goes online, the connection is attached
// to all of the user's rooms and the undelivered-message notification is
// pushed exactly once. It runs concurrently with the connection's pumps,
// so the connection may already be gone by the time rooms are attached;
// a torn-down connection must not re-enter the indexes.
func (cs *ChatServer) EstablishSession(c *Client) {
	cs.setStatus(c, types.StatusOnline)

	rooms, err := cs.db.ListRoomsForUser(c.session.User.Id)
	if err != nil {
		cs.log.Printf("list rooms for user %d: %v", c.session.User.Id, err)
		return
	}

	if !cs.attachLiveRooms(c, rooms) {
		return
	}

	cs.notifyUndelivered(c)
}

// attachLiveRooms indexes the connection into every given room, but only
// while the client is still registered. It reports false if the client
// was unregistered first, in which case nothing is attached.
func (cs *ChatServer) attachLiveRooms(c *Client, rooms []database.Room) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.clients[c]; !ok {
		return false
	}

	for _, r := range rooms {
		if cs.rooms[r.Id] == nil {
			cs.rooms[r.Id] = make(map[*Client]struct{})
		}
		cs.rooms[r.Id][c] = struct{}{}
	}

	return true
}

func (cs *ChatServer) attachRoomConn(c *Client, roomId int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.rooms[roomId] == nil {
		cs.rooms[roomId] = make(map[*Client]struct{})
	}
	cs.rooms[roomId][c] = struct{}{}
}

func (cs *ChatServer) detachRoomConn(c *Client, roomId int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if conns, ok := cs.rooms[roomId]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(cs.rooms, roomId)
		}
	}
}

func (cs *ChatServer) clientsForUser(userId int) []*Client {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	conns := make([]*Client, 0, len(cs.users[userId]))
	for c := range cs.users[userId] {
		conns = append(conns, c)
	}
	return conns
}

func (cs *ChatServer) broadcastToRoom(roomId int, ev *ServerEvent, skip *Client) {
	cs.mu.RLock()
	conns := make([]*Client, 0, len(cs.rooms[roomId]))
	for c := range cs.rooms[roomId] {
		conns = append(conns, c)
	}
	cs.mu.RUnlock()

	for _, c := range conns {
		if c == skip {
			continue
		}
		c.queueEvent(ev)
	}
}

func (cs *ChatServer) broadcastToNeighborhood(neighborhoodId int, ev *ServerEvent, skip *Client) {
	cs.mu.RLock()
	conns := make([]*Client, 0, len(cs.neighborhoods[neighborhoodId]))
	for c := range cs.neighborhoods[neighborhoodId] {
		conns = append(conns, c)
	}
	cs.mu.RUnlock()

	for _, c := range conns {
		if c == skip {
			continue
		}
		c.queueEvent(ev)
	}
}

// dispatch routes a decoded client event to its handler. Handlers run on
// the connection's read goroutine; the database calls they make are the
// suspension points that let other connections interleave.
func (cs *ChatServer) dispatch(c *Client, ev *ClientEvent) {
	switch ev.Type {
	case EventJoinRoom:
		var p RoomPayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleJoinRoom(c, &p)
	case EventLeaveRoom:
		var p RoomPayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleLeaveRoom(c, &p)
	case EventSendMessage:
		var p SendMessagePayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleSendMessage(c, &p)
	case EventEditMessage:
		var p EditMessagePayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleEditMessage(c, &p)
	case EventDeleteMessage:
		var p DeleteMessagePayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleDeleteMessage(c, &p)
	case EventStartTyping:
		var p RoomPayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleStartTyping(c, &p)
	case EventStopTyping:
		var p RoomPayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleStopTyping(c, &p)
	case EventMarkRead:
		var p MarkReadPayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleMarkRead(c, &p)
	case EventAddReaction:
		var p ReactionPayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleAddReaction(c, &p)
	case EventRemoveReaction:
		var p ReactionPayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleRemoveReaction(c, &p)
	case EventUpdatePresence:
		var p PresencePayload
		if !decode(c, ev.Data, &p) {
			return
		}
		cs.handleUpdatePresence(c, &p)
	default:
		c.queueEvent(ErrEvent(CodeInvalidContent, "unknown event type"))
	}
}

func decode(c *Client, raw json.RawMessage, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		c.queueEvent(ErrEvent(CodeInvalidContent, "invalid event payload"))
		return false
	}
	return true
}
