package database

import "time"

type User struct {
	Id             int
	DisplayName    string
	EmailAddress   string
	NeighborhoodId int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Room struct {
	Id             int
	Name           string
	Description    string
	NeighborhoodId int
	RoomType       string
	CreatedBy      int
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	MemberCount    int
	UnreadCount    int
	LastMessage    *Message
}

type Membership struct {
	Id          int
	RoomId      int
	UserId      int
	Role        string
	JoinedAt    time.Time
	LastReadAt  time.Time
	IsMuted     bool
	DisplayName string
}

type Message struct {
	Id                int
	RoomId            int
	SenderId          int
	Content           string
	Type              string
	ReplyToId         int
	IsEdited          bool
	IsDeleted         bool
	DeletedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	SenderDisplayName string
}

type Reaction struct {
	Id          int
	MessageId   int
	UserId      int
	Reaction    string
	CreatedAt   time.Time
	DisplayName string
}

type Presence struct {
	UserId        int
	Status        string
	LastSeen      time.Time
	ConnectionRef string
	UpdatedAt     time.Time
	DisplayName   string
}

type TypingRecord struct {
	Id        int
	RoomId    int
	UserId    int
	StartedAt time.Time
}

type CreateRoomParams struct {
	Name           string
	Description    string
	NeighborhoodId int
	RoomType       string
	CreatedBy      int
	MemberIds      []int
}

type CreateMessageParams struct {
	RoomId    int
	SenderId  int
	Content   string
	Type      string
	ReplyToId int
}
