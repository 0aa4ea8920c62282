package server

import (
	"database/sql"
	"testing"

	"github.com/nextdoorbuddy/neighborchat/internal/database"
	"github.com/nextdoorbuddy/neighborchat/internal/stats"
	"github.com/nextdoorbuddy/neighborchat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestChatServer_handleJoinRoom(t *testing.T) {
	t.Run("member comes live in room", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("IsMember", 5, 1).Return(true).Once()
		db.On("GetMembership", 5, 1).
			Return(database.Membership{RoomId: 5, UserId: 1, Role: types.RoleMember, DisplayName: "alice"}, nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1, DisplayName: "alice"})
		other := newTestClient(t, cs, types.User{Id: 2})
		cs.attachRoomConn(other, 5)

		cs.handleJoinRoom(client, &RoomPayload{RoomId: 5})

		assert.Contains(t, cs.rooms[5], client, "expected connection attached to room")

		ev := drainEvent(t, other)
		assert.Equal(t, EventUserJoinedRoom, ev.Type, "expected user_joined_room broadcast")
		m := ev.Data.(types.RoomMembership)
		assert.Equal(t, 1, m.UserId, "expected joining user id")
		assert.Equal(t, "alice", m.User.DisplayName, "expected display name on membership")
	})

	t.Run("rejects non-member", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("IsMember", 5, 1).Return(false).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.handleJoinRoom(client, &RoomPayload{RoomId: 5})

		assertErrorEvent(t, client, CodeNotAuthorized)
		assert.NotContains(t, cs.rooms[5], client, "expected connection not attached")
		db.AssertNotCalled(t, "GetMembership", mock.Anything, mock.Anything)
	})
}

func TestChatServer_handleLeaveRoom(t *testing.T) {
	t.Run("membership removed and connections detached", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("RemoveMember", 5, 1).Return(nil).Once()

		su := &stats.MockStatsUpdater{}
		su.On("Incr", MetricActiveConnections).Times(2)

		cs := newTestChatServer(t, db, su)
		client := newTestClient(t, cs, types.User{Id: 1})
		other := newTestClient(t, cs, types.User{Id: 2})
		cs.RegisterClient(client)
		cs.RegisterClient(other)
		cs.attachRoomConn(client, 5)
		cs.attachRoomConn(other, 5)

		cs.handleLeaveRoom(client, &RoomPayload{RoomId: 5})

		assert.NotContains(t, cs.rooms[5], client, "expected leaver detached from room")
		assert.Contains(t, cs.rooms[5], other, "expected other member to remain")

		ev := drainEvent(t, other)
		assert.Equal(t, EventUserLeftRoom, ev.Type, "expected user_left_room broadcast")
		payload := ev.Data.(*UserLeftRoomPayload)
		assert.Equal(t, 1, payload.UserId, "expected leaving user id")
	})

	t.Run("rejects non-member", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("RemoveMember", 5, 1).Return(sql.ErrNoRows).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		client := newTestClient(t, cs, types.User{Id: 1})

		cs.handleLeaveRoom(client, &RoomPayload{RoomId: 5})

		assertErrorEvent(t, client, CodeNotAuthorized)
	})
}
