package server

import (
	"errors"
	"testing"

	"github.com/nextdoorbuddy/neighborchat/internal/database"
	"github.com/nextdoorbuddy/neighborchat/internal/stats"
	"github.com/nextdoorbuddy/neighborchat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestChatServer_notifyUndelivered(t *testing.T) {
	t.Run("summarizes missed messages and promotes them", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("UndeliveredMessages", 1).Return([]database.Message{
			{Id: 41, RoomId: 5, SenderId: 2, Content: "first"},
			{Id: 42, RoomId: 5, SenderId: 2, Content: "second"},
		}, nil).Once()
		db.On("MarkAllDelivered", 1).Return(nil).Once()

		su := &stats.MockStatsUpdater{}
		defer su.AssertExpectations(t)
		su.On("Incr", MetricMessagesDelivered).Times(2)

		cs := newTestChatServer(t, db, su)
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.notifyUndelivered(client)

		ev := drainEvent(t, client)
		assert.Equal(t, EventUndeliveredMessages, ev.Type, "expected undelivered notification")
		payload := ev.Data.(*UndeliveredPayload)
		assert.Equal(t, 2, payload.Count, "expected missed message count")
		assert.Len(t, payload.Messages, 2, "expected both missed messages")
		assert.Equal(t, 41, payload.Messages[0].Id, "expected chronological order")
	})

	t.Run("silent when nothing was missed", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("UndeliveredMessages", 1).Return([]database.Message{}, nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.notifyUndelivered(client)

		assert.Len(t, client.send, 0, "expected no notification")
		db.AssertNotCalled(t, "MarkAllDelivered", mock.Anything)
	})

	t.Run("keeps sent status when the buffer is full", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("UndeliveredMessages", 1).Return([]database.Message{{Id: 41}}, nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})
		client.send = make(chan *ServerEvent) // unbuffered, queue always drops

		cs.notifyUndelivered(client)

		db.AssertNotCalled(t, "MarkAllDelivered", mock.Anything)
	})

	t.Run("load failure leaves messages untouched", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("UndeliveredMessages", 1).Return([]database.Message(nil), errors.New("db down")).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.notifyUndelivered(client)

		assert.Len(t, client.send, 0, "expected no notification on failure")
		db.AssertNotCalled(t, "MarkAllDelivered", mock.Anything)
	})
}
