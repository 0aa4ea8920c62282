package server

import (
	"database/sql"
	"errors"
)

// handleJoinRoom attaches the connection to a room the user already
// belongs to. Membership itself is granted over the REST surface; the
// socket event only brings an existing membership live.
func (cs *ChatServer) handleJoinRoom(c *Client, p *RoomPayload) {
	if !cs.db.IsMember(p.RoomId, c.session.User.Id) {
		c.queueEvent(ErrEvent(CodeNotAuthorized, "not a member of this room"))
		return
	}

	cs.attachRoomConn(c, p.RoomId)

	m, err := cs.db.GetMembership(p.RoomId, c.session.User.Id)
	if err != nil {
		cs.log.Printf("load membership for room %d: %v", p.RoomId, err)
		return
	}

	cs.broadcastToRoom(p.RoomId, NewEvent(EventUserJoinedRoom, ApiMembership(m)), c)
}

// handleLeaveRoom removes the user's membership and detaches every one of
// their live connections from the room.
func (cs *ChatServer) handleLeaveRoom(c *Client, p *RoomPayload) {
	userId := c.session.User.Id

	if err := cs.db.RemoveMember(p.RoomId, userId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.queueEvent(ErrEvent(CodeNotAuthorized, "not a member of this room"))
			return
		}
		cs.log.Printf("remove member %d from room %d: %v", userId, p.RoomId, err)
		c.queueEvent(ErrEvent(CodeInternal, "could not leave room"))
		return
	}

	for _, conn := range cs.clientsForUser(userId) {
		cs.detachRoomConn(conn, p.RoomId)
	}

	cs.broadcastToRoom(p.RoomId, NewEvent(EventUserLeftRoom, &UserLeftRoomPayload{
		UserId: userId,
		RoomId: p.RoomId,
	}), nil)
}
