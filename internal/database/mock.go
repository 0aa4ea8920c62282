package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockNeighborChatRepository struct {
	mock.Mock
}

func (m *MockNeighborChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockNeighborChatRepository) GetUserById(id int) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockNeighborChatRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockNeighborChatRepository) GetRoomById(id int) (Room, error) {
	args := m.Called(id)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockNeighborChatRepository) ListRoomsForUser(userId int) ([]Room, error) {
	args := m.Called(userId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockNeighborChatRepository) ListRoomsByNeighborhood(neighborhoodId int) ([]Room, error) {
	args := m.Called(neighborhoodId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockNeighborChatRepository) FindDirectRoom(userA, userB int) (Room, error) {
	args := m.Called(userA, userB)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockNeighborChatRepository) DeactivateRoom(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockNeighborChatRepository) AddMember(roomId, userId int, role string) (Membership, error) {
	args := m.Called(roomId, userId, role)
	return args.Get(0).(Membership), args.Error(1)
}
func (m *MockNeighborChatRepository) RemoveMember(roomId, userId int) error {
	args := m.Called(roomId, userId)
	return args.Error(0)
}
func (m *MockNeighborChatRepository) IsMember(roomId, userId int) bool {
	args := m.Called(roomId, userId)
	return args.Bool(0)
}
func (m *MockNeighborChatRepository) GetMembership(roomId, userId int) (Membership, error) {
	args := m.Called(roomId, userId)
	return args.Get(0).(Membership), args.Error(1)
}
func (m *MockNeighborChatRepository) GetMembers(roomId int) ([]Membership, error) {
	args := m.Called(roomId)
	return args.Get(0).([]Membership), args.Error(1)
}
func (m *MockNeighborChatRepository) UpdateLastRead(roomId, userId int) error {
	args := m.Called(roomId, userId)
	return args.Error(0)
}
func (m *MockNeighborChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockNeighborChatRepository) GetMessageById(id int) (Message, error) {
	args := m.Called(id)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockNeighborChatRepository) UpdateMessageContent(messageId, senderId int, content string) (Message, error) {
	args := m.Called(messageId, senderId, content)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockNeighborChatRepository) SoftDeleteMessage(messageId, senderId int) (bool, error) {
	args := m.Called(messageId, senderId)
	return args.Bool(0), args.Error(1)
}
func (m *MockNeighborChatRepository) GetMessages(roomId, limit int, before, after time.Time) ([]Message, error) {
	args := m.Called(roomId, limit, before, after)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockNeighborChatRepository) ListReactionsForMessages(messageIds []int) ([]Reaction, error) {
	args := m.Called(messageIds)
	return args.Get(0).([]Reaction), args.Error(1)
}
func (m *MockNeighborChatRepository) UnreadCount(roomId, userId int) (int, error) {
	args := m.Called(roomId, userId)
	return args.Int(0), args.Error(1)
}
func (m *MockNeighborChatRepository) MarkDelivered(messageId, recipientId int) error {
	args := m.Called(messageId, recipientId)
	return args.Error(0)
}
func (m *MockNeighborChatRepository) MarkMessagesRead(messageIds []int, userId int) error {
	args := m.Called(messageIds, userId)
	return args.Error(0)
}
func (m *MockNeighborChatRepository) UndeliveredMessages(userId int) ([]Message, error) {
	args := m.Called(userId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockNeighborChatRepository) MarkAllDelivered(userId int) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockNeighborChatRepository) AddReaction(messageId, userId int, reaction string) (*Reaction, error) {
	args := m.Called(messageId, userId, reaction)
	if r, ok := args.Get(0).(*Reaction); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockNeighborChatRepository) RemoveReaction(messageId, userId int, reaction string) (bool, error) {
	args := m.Called(messageId, userId, reaction)
	return args.Bool(0), args.Error(1)
}
func (m *MockNeighborChatRepository) UpsertPresence(userId int, status, connectionRef string) (Presence, error) {
	args := m.Called(userId, status, connectionRef)
	return args.Get(0).(Presence), args.Error(1)
}
func (m *MockNeighborChatRepository) SetOffline(userId int) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockNeighborChatRepository) ListNeighborhoodPresence(neighborhoodId int, onlineOnly bool) ([]Presence, error) {
	args := m.Called(neighborhoodId, onlineOnly)
	return args.Get(0).([]Presence), args.Error(1)
}
func (m *MockNeighborChatRepository) ExpireStalePresence(olderThan time.Duration) (int64, error) {
	args := m.Called(olderThan)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockNeighborChatRepository) StartTyping(roomId, userId int) (TypingRecord, error) {
	args := m.Called(roomId, userId)
	return args.Get(0).(TypingRecord), args.Error(1)
}
func (m *MockNeighborChatRepository) StopTyping(roomId, userId int) error {
	args := m.Called(roomId, userId)
	return args.Error(0)
}
func (m *MockNeighborChatRepository) ClearTypingForUser(userId int) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockNeighborChatRepository) ExpireStaleTyping(olderThan time.Duration) (int64, error) {
	args := m.Called(olderThan)
	return args.Get(0).(int64), args.Error(1)
}
