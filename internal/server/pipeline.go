package server

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/nextdoorbuddy/neighborchat/internal/database"
	"github.com/nextdoorbuddy/neighborchat/internal/types"
)

// maxMessageLength bounds the content of a single chat message.
const maxMessageLength = 2000

// handleSendMessage persists the message and fans it out to every live
// room member. Delivery records are seeded at "sent" inside the insert
// transaction; a recipient's record is promoted to "delivered" only after
// the event was queued on at least one of their connections.
func (cs *ChatServer) handleSendMessage(c *Client, p *SendMessagePayload) {
	if !cs.db.IsMember(p.RoomId, c.session.User.Id) {
		c.queueEvent(ErrEvent(CodeNotAuthorized, "not a member of this room"))
		return
	}

	content := strings.TrimSpace(p.Content)
	if content == "" || len(content) > maxMessageLength {
		c.queueEvent(ErrEvent(CodeInvalidContent, "message content must be between 1 and 2000 characters"))
		return
	}

	msgType := p.MessageType
	if msgType == "" {
		msgType = types.MessageTypeText
	}
	if !types.ValidMessageType(msgType) {
		c.queueEvent(ErrEvent(CodeInvalidContent, "invalid message type"))
		return
	}

	msg, err := cs.db.CreateMessage(database.CreateMessageParams{
		RoomId:    p.RoomId,
		SenderId:  c.session.User.Id,
		Content:   content,
		Type:      msgType,
		ReplyToId: p.ReplyToId,
	})
	if err != nil {
		cs.log.Printf("create message in room %d: %v", p.RoomId, err)
		c.queueEvent(ErrEvent(CodeInternal, "could not send message"))
		return
	}

	members, err := cs.db.GetMembers(p.RoomId)
	if err != nil {
		cs.log.Printf("list members of room %d: %v", p.RoomId, err)
		return
	}

	ev := NewEvent(EventMessageReceived, ApiMessage(msg))

	for _, m := range members {
		if m.UserId == c.session.User.Id {
			continue
		}

		queued := false
		for _, conn := range cs.clientsForUser(m.UserId) {
			if conn.queueEvent(ev) {
				queued = true
			}
		}

		if queued {
			if err := cs.db.MarkDelivered(msg.Id, m.UserId); err != nil {
				cs.log.Printf("mark message %d delivered to user %d: %v", msg.Id, m.UserId, err)
				continue
			}
			cs.stats.Incr(MetricMessagesDelivered)
		} else {
			cs.stats.Incr(MetricMessagesQueued)
		}
	}

	// Echo back to the sender's connections, including this one, so all
	// their devices render the message with its persisted id.
	for _, conn := range cs.clientsForUser(c.session.User.Id) {
		conn.queueEvent(ev)
	}
}

func (cs *ChatServer) handleEditMessage(c *Client, p *EditMessagePayload) {
	content := strings.TrimSpace(p.Content)
	if content == "" || len(content) > maxMessageLength {
		c.queueEvent(ErrEvent(CodeInvalidContent, "message content must be between 1 and 2000 characters"))
		return
	}

	msg, err := cs.db.GetMessageById(p.MessageId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.queueEvent(ErrEvent(CodeNotFound, "message not found"))
			return
		}
		cs.log.Printf("load message %d: %v", p.MessageId, err)
		c.queueEvent(ErrEvent(CodeInternal, "could not edit message"))
		return
	}

	if msg.SenderId != c.session.User.Id || msg.IsDeleted {
		c.queueEvent(ErrEvent(CodeNotAuthorized, "only the sender can edit a message"))
		return
	}

	updated, err := cs.db.UpdateMessageContent(p.MessageId, c.session.User.Id, content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.queueEvent(ErrEvent(CodeNotAuthorized, "only the sender can edit a message"))
			return
		}
		cs.log.Printf("update message %d: %v", p.MessageId, err)
		c.queueEvent(ErrEvent(CodeInternal, "could not edit message"))
		return
	}

	cs.broadcastToRoom(updated.RoomId, NewEvent(EventMessageUpdated, ApiMessage(updated)), nil)
}

// handleDeleteMessage tombstones the message. The content row survives;
// readers see a deletion marker instead of the original body.
func (cs *ChatServer) handleDeleteMessage(c *Client, p *DeleteMessagePayload) {
	msg, err := cs.db.GetMessageById(p.MessageId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.queueEvent(ErrEvent(CodeNotFound, "message not found"))
			return
		}
		cs.log.Printf("load message %d: %v", p.MessageId, err)
		c.queueEvent(ErrEvent(CodeInternal, "could not delete message"))
		return
	}

	deleted, err := cs.db.SoftDeleteMessage(p.MessageId, c.session.User.Id)
	if err != nil {
		cs.log.Printf("delete message %d: %v", p.MessageId, err)
		c.queueEvent(ErrEvent(CodeInternal, "could not delete message"))
		return
	}
	if !deleted {
		c.queueEvent(ErrEvent(CodeNotAuthorized, "only the sender can delete a message"))
		return
	}

	cs.broadcastToRoom(msg.RoomId, NewEvent(EventMessageDeleted, &MessageDeletedPayload{
		MessageId: msg.Id,
		RoomId:    msg.RoomId,
	}), nil)
}

// handleMarkRead advances delivery records to "read" and moves the
// member's last-read cursor. Read receipts are best effort: failures are
// logged and swallowed, never surfaced to the client.
func (cs *ChatServer) handleMarkRead(c *Client, p *MarkReadPayload) {
	if !cs.db.IsMember(p.RoomId, c.session.User.Id) {
		return
	}

	if len(p.MessageIds) > 0 {
		if err := cs.db.MarkMessagesRead(p.MessageIds, c.session.User.Id); err != nil {
			cs.log.Printf("mark messages read for user %d: %v", c.session.User.Id, err)
			return
		}
	}

	if err := cs.db.UpdateLastRead(p.RoomId, c.session.User.Id); err != nil {
		cs.log.Printf("update last read for user %d in room %d: %v", c.session.User.Id, p.RoomId, err)
	}
}
