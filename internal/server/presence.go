package server

import (
	"github.com/nextdoorbuddy/neighborchat/internal/types"
)

func (cs *ChatServer) handleUpdatePresence(c *Client, p *PresencePayload) {
	if !types.ValidPresenceStatus(p.Status) {
		c.queueEvent(ErrEvent(CodeInvalidContent, "invalid presence status"))
		return
	}

	cs.setStatus(c, p.Status)
}

// setStatus records the user's presence and fans the change out to the
// neighborhood. Presence is best effort: a failed write is logged and
// counted but the connection carries on.
func (cs *ChatServer) setStatus(c *Client, status string) {
	p, err := cs.db.UpsertPresence(c.session.User.Id, status, c.session.ConnRef)
	if err != nil {
		cs.log.Printf("upsert presence for user %d: %v", c.session.User.Id, err)
		cs.stats.Incr(MetricPresenceFailures)
		return
	}

	presence := ApiPresence(p)
	presence.User = &types.User{
		Id:          c.session.User.Id,
		DisplayName: c.session.User.DisplayName,
	}

	cs.broadcastToNeighborhood(c.session.User.NeighborhoodId,
		NewEvent(EventUserPresenceUpdated, presence), c)
}

// setOffline runs when the user's last connection goes away.
func (cs *ChatServer) setOffline(c *Client) {
	if err := cs.db.SetOffline(c.session.User.Id); err != nil {
		cs.log.Printf("set user %d offline: %v", c.session.User.Id, err)
		cs.stats.Incr(MetricPresenceFailures)
		return
	}

	cs.broadcastToNeighborhood(c.session.User.NeighborhoodId,
		NewEvent(EventUserPresenceUpdated, types.Presence{
			UserId:   c.session.User.Id,
			Status:   types.StatusOffline,
			LastSeen: Now(),
			User: &types.User{
				Id:          c.session.User.Id,
				DisplayName: c.session.User.DisplayName,
			},
		}), nil)
}
