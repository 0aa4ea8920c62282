package server

import (
	"github.com/nextdoorbuddy/neighborchat/internal/types"
)

// Typing indicators are fire-and-forget. Non-members are ignored silently
// and persistence failures never produce an error event.

func (cs *ChatServer) handleStartTyping(c *Client, p *RoomPayload) {
	if !cs.db.IsMember(p.RoomId, c.session.User.Id) {
		return
	}

	rec, err := cs.db.StartTyping(p.RoomId, c.session.User.Id)
	if err != nil {
		cs.log.Printf("start typing for user %d in room %d: %v", c.session.User.Id, p.RoomId, err)
		cs.stats.Incr(MetricTypingFailures)
		return
	}

	cs.broadcastToRoom(p.RoomId, NewEvent(EventTypingStart, types.TypingIndicator{
		RoomId:    rec.RoomId,
		UserId:    rec.UserId,
		StartedAt: rec.StartedAt,
		User: &types.User{
			Id:          c.session.User.Id,
			DisplayName: c.session.User.DisplayName,
		},
	}), c)
}

func (cs *ChatServer) handleStopTyping(c *Client, p *RoomPayload) {
	if !cs.db.IsMember(p.RoomId, c.session.User.Id) {
		return
	}

	if err := cs.db.StopTyping(p.RoomId, c.session.User.Id); err != nil {
		cs.log.Printf("stop typing for user %d in room %d: %v", c.session.User.Id, p.RoomId, err)
		cs.stats.Incr(MetricTypingFailures)
		return
	}

	cs.broadcastToRoom(p.RoomId, NewEvent(EventTypingStop, &TypingStopPayload{
		UserId: c.session.User.Id,
		RoomId: p.RoomId,
	}), c)
}
