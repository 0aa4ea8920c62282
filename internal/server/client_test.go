package server

import (
	"testing"

	"github.com/nextdoorbuddy/neighborchat/internal/testutil"
	"github.com/nextdoorbuddy/neighborchat/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestClient_queueEvent(t *testing.T) {
	t.Run("queues when buffer has room", func(t *testing.T) {
		c := &Client{
			log:  testutil.TestLogger(t),
			send: make(chan *ServerEvent, 1),
		}

		ok := c.queueEvent(NewEvent(EventTypingStart, nil))
		assert.True(t, ok, "expected event to be queued")
		assert.Len(t, c.send, 1, "expected one event buffered")
	})

	t.Run("drops when buffer is full", func(t *testing.T) {
		c := &Client{
			log:     testutil.TestLogger(t),
			session: Session{User: types.User{Id: 1}},
			send:    make(chan *ServerEvent, 1),
		}

		assert.True(t, c.queueEvent(NewEvent(EventTypingStart, nil)), "first event should queue")
		assert.False(t, c.queueEvent(NewEvent(EventTypingStop, nil)), "second event should drop")
		assert.Len(t, c.send, 1, "expected buffer to hold only the first event")
	})
}

func TestClient_stopClient(t *testing.T) {
	c := &Client{
		log:  testutil.TestLogger(t),
		stop: make(chan struct{}),
	}

	c.stopClient()
	select {
	case <-c.stop:
	default:
		t.Error("expected stop channel to be closed")
	}

	// second call must not panic on the already-closed channel
	c.stopClient()
}
