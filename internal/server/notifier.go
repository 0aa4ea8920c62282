package server

// notifyUndelivered pushes a single summary of everything the user missed
// while offline. It runs once per connection, right after session
// establishment, and promotes the summarized messages to "delivered" only
// if the notification actually made it onto the send buffer.
func (cs *ChatServer) notifyUndelivered(c *Client) {
	missed, err := cs.db.UndeliveredMessages(c.session.User.Id)
	if err != nil {
		cs.log.Printf("load undelivered messages for user %d: %v", c.session.User.Id, err)
		return
	}
	if len(missed) == 0 {
		return
	}

	ev := NewEvent(EventUndeliveredMessages, &UndeliveredPayload{
		Count:    len(missed),
		Messages: ApiMessages(missed),
	})

	if !c.queueEvent(ev) {
		return
	}

	if err := cs.db.MarkAllDelivered(c.session.User.Id); err != nil {
		cs.log.Printf("mark all delivered for user %d: %v", c.session.User.Id, err)
		return
	}

	// one increment per promoted message, matching live delivery
	for range missed {
		cs.stats.Incr(MetricMessagesDelivered)
	}
}
