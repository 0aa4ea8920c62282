package database

import "time"

type NeighborChatRepository interface {
	Ping() error

	GetUserById(id int) (User, error)

	CreateRoom(params CreateRoomParams) (Room, error)
	GetRoomById(id int) (Room, error)
	ListRoomsForUser(userId int) ([]Room, error)
	ListRoomsByNeighborhood(neighborhoodId int) ([]Room, error)
	FindDirectRoom(userA, userB int) (Room, error)
	DeactivateRoom(id int) error

	AddMember(roomId, userId int, role string) (Membership, error)
	RemoveMember(roomId, userId int) error
	IsMember(roomId, userId int) bool
	GetMembership(roomId, userId int) (Membership, error)
	GetMembers(roomId int) ([]Membership, error)
	UpdateLastRead(roomId, userId int) error

	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessageById(id int) (Message, error)
	UpdateMessageContent(messageId, senderId int, content string) (Message, error)
	SoftDeleteMessage(messageId, senderId int) (bool, error)
	GetMessages(roomId, limit int, before, after time.Time) ([]Message, error)
	ListReactionsForMessages(messageIds []int) ([]Reaction, error)
	UnreadCount(roomId, userId int) (int, error)

	MarkDelivered(messageId, recipientId int) error
	MarkMessagesRead(messageIds []int, userId int) error
	UndeliveredMessages(userId int) ([]Message, error)
	MarkAllDelivered(userId int) error

	AddReaction(messageId, userId int, reaction string) (*Reaction, error)
	RemoveReaction(messageId, userId int, reaction string) (bool, error)

	UpsertPresence(userId int, status, connectionRef string) (Presence, error)
	SetOffline(userId int) error
	ListNeighborhoodPresence(neighborhoodId int, onlineOnly bool) ([]Presence, error)
	ExpireStalePresence(olderThan time.Duration) (int64, error)

	StartTyping(roomId, userId int) (TypingRecord, error)
	StopTyping(roomId, userId int) error
	ClearTypingForUser(userId int) error
	ExpireStaleTyping(olderThan time.Duration) (int64, error)
}
