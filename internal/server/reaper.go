package server

import "time"

const (
	// reaperInterval is how often the background sweep runs.
	reaperInterval = time.Minute
	// presenceStaleAfter is how long a presence row may sit untouched
	// before the user is considered gone without a clean disconnect.
	presenceStaleAfter = 5 * time.Minute
	// typingTTL is how long a typing indicator survives without a
	// refreshing start_typing event.
	typingTTL = 10 * time.Second
)

// runReaper sweeps stale presence and typing rows left behind by
// connections that never said goodbye. It blocks until Shutdown closes the
// stop channel.
func (cs *ChatServer) runReaper() {
	defer close(cs.done)

	ticker := time.NewTicker(reaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.sweep()
		case <-cs.stop:
			return
		}
	}
}

func (cs *ChatServer) sweep() {
	if n, err := cs.db.ExpireStalePresence(presenceStaleAfter); err != nil {
		cs.log.Printf("expire stale presence: %v", err)
		cs.stats.Incr(MetricReaperErrors)
	} else if n > 0 {
		cs.log.Printf("marked %d stale presence records offline", n)
	}

	if n, err := cs.db.ExpireStaleTyping(typingTTL); err != nil {
		cs.log.Printf("expire stale typing: %v", err)
		cs.stats.Incr(MetricReaperErrors)
	} else if n > 0 {
		cs.log.Printf("cleared %d expired typing indicators", n)
	}
}
