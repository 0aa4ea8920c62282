package server

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/nextdoorbuddy/neighborchat/internal/database"
	"github.com/nextdoorbuddy/neighborchat/internal/types"
)

// maxReactionLength bounds a reaction token (an emoji or a short code).
const maxReactionLength = 32

func (cs *ChatServer) handleAddReaction(c *Client, p *ReactionPayload) {
	reaction := strings.TrimSpace(p.Reaction)
	if reaction == "" || len(reaction) > maxReactionLength {
		c.queueEvent(ErrEvent(CodeInvalidContent, "invalid reaction"))
		return
	}

	msg, ok := cs.reactableMessage(c, p.MessageId)
	if !ok {
		return
	}

	r, err := cs.db.AddReaction(p.MessageId, c.session.User.Id, reaction)
	if err != nil {
		cs.log.Printf("add reaction to message %d: %v", p.MessageId, err)
		c.queueEvent(ErrEvent(CodeInternal, "could not add reaction"))
		return
	}
	if r == nil {
		// Same user, message and token: already recorded, nothing to announce.
		return
	}

	added := ApiReaction(*r)
	added.User = &types.User{
		Id:          c.session.User.Id,
		DisplayName: c.session.User.DisplayName,
	}

	cs.broadcastToRoom(msg.RoomId, NewEvent(EventReactionAdded, added), nil)
}

func (cs *ChatServer) handleRemoveReaction(c *Client, p *ReactionPayload) {
	msg, ok := cs.reactableMessage(c, p.MessageId)
	if !ok {
		return
	}

	removed, err := cs.db.RemoveReaction(p.MessageId, c.session.User.Id, p.Reaction)
	if err != nil {
		cs.log.Printf("remove reaction from message %d: %v", p.MessageId, err)
		c.queueEvent(ErrEvent(CodeInternal, "could not remove reaction"))
		return
	}
	if !removed {
		return
	}

	cs.broadcastToRoom(msg.RoomId, NewEvent(EventReactionRemoved, &ReactionRemovedPayload{
		MessageId: p.MessageId,
		UserId:    c.session.User.Id,
		Reaction:  p.Reaction,
	}), nil)
}

// reactableMessage loads the target message and checks the user may react
// to it: the message must exist and the user must belong to its room.
func (cs *ChatServer) reactableMessage(c *Client, messageId int) (msg database.Message, ok bool) {
	m, err := cs.db.GetMessageById(messageId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.queueEvent(ErrEvent(CodeNotFound, "message not found"))
			return msg, false
		}
		cs.log.Printf("load message %d: %v", messageId, err)
		c.queueEvent(ErrEvent(CodeInternal, "could not load message"))
		return msg, false
	}

	if !cs.db.IsMember(m.RoomId, c.session.User.Id) {
		c.queueEvent(ErrEvent(CodeNotAuthorized, "not a member of this room"))
		return msg, false
	}

	return m, true
}
