package server

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/nextdoorbuddy/neighborchat/internal/database"
	"github.com/nextdoorbuddy/neighborchat/internal/stats"
	"github.com/nextdoorbuddy/neighborchat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestChatServer_handleSendMessage(t *testing.T) {
	t.Run("delivers to online recipient", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)

		su := &stats.MockStatsUpdater{}
		defer su.AssertExpectations(t)
		su.On("Incr", MetricActiveConnections).Times(2)
		su.On("Incr", MetricMessagesDelivered).Once()

		db.On("IsMember", 5, 1).Return(true).Once()
		db.On("CreateMessage", database.CreateMessageParams{
			RoomId:   5,
			SenderId: 1,
			Content:  "hello",
			Type:     types.MessageTypeText,
		}).Return(database.Message{Id: 42, RoomId: 5, SenderId: 1, Content: "hello", Type: types.MessageTypeText}, nil).Once()
		db.On("GetMembers", 5).Return([]database.Membership{
			{RoomId: 5, UserId: 1},
			{RoomId: 5, UserId: 2},
		}, nil).Once()
		db.On("MarkDelivered", 42, 2).Return(nil).Once()

		cs := newTestChatServer(t, db, su)

		sender := newTestClient(t, cs, types.User{Id: 1})
		recipient := newTestClient(t, cs, types.User{Id: 2})
		cs.RegisterClient(sender)
		cs.RegisterClient(recipient)

		cs.handleSendMessage(sender, &SendMessagePayload{RoomId: 5, Content: "hello"})

		ev := drainEvent(t, recipient)
		assert.Equal(t, EventMessageReceived, ev.Type, "expected message_received for recipient")
		msg, ok := ev.Data.(types.Message)
		assert.True(t, ok, "expected message payload")
		assert.Equal(t, 42, msg.Id, "expected persisted message id")

		echo := drainEvent(t, sender)
		assert.Equal(t, EventMessageReceived, echo.Type, "expected echo to sender")
	})

	t.Run("offline recipient keeps sent status", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)

		su := &stats.MockStatsUpdater{}
		defer su.AssertExpectations(t)
		su.On("Incr", MetricActiveConnections).Once()
		su.On("Incr", MetricMessagesQueued).Once()

		db.On("IsMember", 5, 1).Return(true).Once()
		db.On("CreateMessage", mock.Anything).
			Return(database.Message{Id: 42, RoomId: 5, SenderId: 1, Content: "hello", Type: types.MessageTypeText}, nil).Once()
		db.On("GetMembers", 5).Return([]database.Membership{
			{RoomId: 5, UserId: 1},
			{RoomId: 5, UserId: 2},
		}, nil).Once()

		cs := newTestChatServer(t, db, su)

		sender := newTestClient(t, cs, types.User{Id: 1})
		cs.RegisterClient(sender)

		cs.handleSendMessage(sender, &SendMessagePayload{RoomId: 5, Content: "hello"})

		db.AssertNotCalled(t, "MarkDelivered", 42, 2)
		assert.Len(t, sender.send, 1, "expected echo to sender only")
	})

	t.Run("rejects non-member without persisting", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("IsMember", 5, 1).Return(false).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		sender := newTestClient(t, cs, types.User{Id: 1})

		cs.handleSendMessage(sender, &SendMessagePayload{RoomId: 5, Content: "hello"})

		assertErrorEvent(t, sender, CodeNotAuthorized)
		db.AssertNotCalled(t, "CreateMessage", mock.Anything)
	})

	t.Run("rejects invalid content", func(t *testing.T) {
		tcases := []struct {
			name    string
			payload SendMessagePayload
		}{
			{name: "empty", payload: SendMessagePayload{RoomId: 5, Content: "   "}},
			{name: "too long", payload: SendMessagePayload{RoomId: 5, Content: strings.Repeat("a", maxMessageLength+1)}},
			{name: "bad type", payload: SendMessagePayload{RoomId: 5, Content: "hi", MessageType: "carrier-pigeon"}},
			{name: "system type reserved", payload: SendMessagePayload{RoomId: 5, Content: "hi", MessageType: types.MessageTypeSystem}},
		}

		for _, tc := range tcases {
			t.Run(tc.name, func(t *testing.T) {
				db := &database.MockNeighborChatRepository{}
				defer db.AssertExpectations(t)
				db.On("IsMember", 5, 1).Return(true).Once()

				cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
				sender := newTestClient(t, cs, types.User{Id: 1})

				cs.handleSendMessage(sender, &tc.payload)

				assertErrorEvent(t, sender, CodeInvalidContent)
				db.AssertNotCalled(t, "CreateMessage", mock.Anything)
			})
		}
	})

	t.Run("persist failure yields internal error and no fanout", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("IsMember", 5, 1).Return(true).Once()
		db.On("CreateMessage", mock.Anything).Return(database.Message{}, errors.New("db down")).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		sender := newTestClient(t, cs, types.User{Id: 1})

		cs.handleSendMessage(sender, &SendMessagePayload{RoomId: 5, Content: "hello"})

		assertErrorEvent(t, sender, CodeInternal)
		db.AssertNotCalled(t, "GetMembers", 5)
	})
}

func TestChatServer_handleEditMessage(t *testing.T) {
	t.Run("sender edits own message", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("GetMessageById", 42).Return(database.Message{Id: 42, RoomId: 5, SenderId: 1}, nil).Once()
		db.On("UpdateMessageContent", 42, 1, "revised").
			Return(database.Message{Id: 42, RoomId: 5, SenderId: 1, Content: "revised", IsEdited: true}, nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		sender := newTestClient(t, cs, types.User{Id: 1})
		other := newTestClient(t, cs, types.User{Id: 2})
		cs.attachRoomConn(sender, 5)
		cs.attachRoomConn(other, 5)

		cs.handleEditMessage(sender, &EditMessagePayload{MessageId: 42, Content: "revised"})

		ev := drainEvent(t, other)
		assert.Equal(t, EventMessageUpdated, ev.Type, "expected message_updated broadcast")
		msg := ev.Data.(types.Message)
		assert.True(t, msg.IsEdited, "expected edited flag set")
		assert.Equal(t, "revised", msg.Content, "expected updated content")
	})

	t.Run("rejects non-sender", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("GetMessageById", 42).Return(database.Message{Id: 42, RoomId: 5, SenderId: 2}, nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.handleEditMessage(client, &EditMessagePayload{MessageId: 42, Content: "revised"})

		assertErrorEvent(t, client, CodeNotAuthorized)
		db.AssertNotCalled(t, "UpdateMessageContent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects deleted message", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("GetMessageById", 42).Return(database.Message{Id: 42, RoomId: 5, SenderId: 1, IsDeleted: true}, nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.handleEditMessage(client, &EditMessagePayload{MessageId: 42, Content: "revised"})

		assertErrorEvent(t, client, CodeNotAuthorized)
	})

	t.Run("unknown message", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("GetMessageById", 42).Return(database.Message{}, sql.ErrNoRows).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.handleEditMessage(client, &EditMessagePayload{MessageId: 42, Content: "revised"})

		assertErrorEvent(t, client, CodeNotFound)
	})
}

func TestChatServer_handleDeleteMessage(t *testing.T) {
	t.Run("sender deletes own message", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("GetMessageById", 42).Return(database.Message{Id: 42, RoomId: 5, SenderId: 1}, nil).Once()
		db.On("SoftDeleteMessage", 42, 1).Return(true, nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		sender := newTestClient(t, cs, types.User{Id: 1})
		other := newTestClient(t, cs, types.User{Id: 2})
		cs.attachRoomConn(sender, 5)
		cs.attachRoomConn(other, 5)

		cs.handleDeleteMessage(sender, &DeleteMessagePayload{MessageId: 42})

		ev := drainEvent(t, other)
		assert.Equal(t, EventMessageDeleted, ev.Type, "expected message_deleted broadcast")
		payload := ev.Data.(*MessageDeletedPayload)
		assert.Equal(t, 42, payload.MessageId, "expected deleted message id")
		assert.Equal(t, 5, payload.RoomId, "expected room id on tombstone event")
	})

	t.Run("rejects non-sender", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("GetMessageById", 42).Return(database.Message{Id: 42, RoomId: 5, SenderId: 2}, nil).Once()
		db.On("SoftDeleteMessage", 42, 1).Return(false, nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.handleDeleteMessage(client, &DeleteMessagePayload{MessageId: 42})

		assertErrorEvent(t, client, CodeNotAuthorized)
	})
}

func TestChatServer_handleMarkRead(t *testing.T) {
	t.Run("advances read state", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("IsMember", 5, 1).Return(true).Once()
		db.On("MarkMessagesRead", []int{41, 42}, 1).Return(nil).Once()
		db.On("UpdateLastRead", 5, 1).Return(nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.handleMarkRead(client, &MarkReadPayload{RoomId: 5, MessageIds: []int{41, 42}})

		assert.Len(t, client.send, 0, "expected no events for read receipts")
	})

	t.Run("ignores non-member silently", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("IsMember", 5, 1).Return(false).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.handleMarkRead(client, &MarkReadPayload{RoomId: 5, MessageIds: []int{41}})

		assert.Len(t, client.send, 0, "expected no error event for non-member mark read")
		db.AssertNotCalled(t, "MarkMessagesRead", mock.Anything, mock.Anything)
		db.AssertNotCalled(t, "UpdateLastRead", mock.Anything, mock.Anything)
	})

	t.Run("cursor still advances without explicit ids", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("IsMember", 5, 1).Return(true).Once()
		db.On("UpdateLastRead", 5, 1).Return(nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.handleMarkRead(client, &MarkReadPayload{RoomId: 5})

		db.AssertNotCalled(t, "MarkMessagesRead", mock.Anything, mock.Anything)
	})
}
