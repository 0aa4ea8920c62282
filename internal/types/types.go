package types

import (
	"time"
)

const (
	RoomTypeGroup  = "group"
	RoomTypeDirect = "direct"
)

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusBusy    = "busy"
	StatusOffline = "offline"
)

const (
	DeliveryStatusSent      = "sent"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusRead      = "read"
)

type User struct {
	Id             int    `json:"id"`
	DisplayName    string `json:"display_name"`
	EmailAddress   string `json:"email_address,omitempty"`
	NeighborhoodId int    `json:"neighborhood_id"`
}

type ChatRoom struct {
	Id             int       `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	NeighborhoodId int       `json:"neighborhood_id"`
	RoomType       string    `json:"room_type"`
	CreatedBy      int       `json:"created_by,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
	MemberCount    int       `json:"member_count,omitempty"`
	UnreadCount    int       `json:"unread_count"`
	LastMessage    *Message  `json:"last_message,omitempty"`
}

type RoomMembership struct {
	Id         int       `json:"id"`
	RoomId     int       `json:"room_id"`
	UserId     int       `json:"user_id"`
	Role       string    `json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
	LastReadAt time.Time `json:"last_read_at"`
	IsMuted    bool      `json:"is_muted"`
	User       *User     `json:"user,omitempty"`
}

type Message struct {
	Id        int        `json:"id"`
	RoomId    int        `json:"room_id"`
	SenderId  int        `json:"sender_id,omitempty"`
	Content   string     `json:"content"`
	Type      string     `json:"message_type"`
	ReplyToId int        `json:"reply_to_id,omitempty"`
	IsEdited  bool       `json:"is_edited"`
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Sender    *User      `json:"sender,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
}

type Reaction struct {
	Id        int       `json:"id"`
	MessageId int       `json:"message_id"`
	UserId    int       `json:"user_id"`
	Reaction  string    `json:"reaction"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	User      *User     `json:"user,omitempty"`
}

type Presence struct {
	UserId        int       `json:"user_id"`
	Status        string    `json:"status"`
	LastSeen      time.Time `json:"last_seen"`
	ConnectionRef string    `json:"connection_ref,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
	User          *User     `json:"user,omitempty"`
}

type TypingIndicator struct {
	RoomId    int       `json:"room_id"`
	UserId    int       `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
	User      *User     `json:"user,omitempty"`
}

// ValidRoomType reports whether t names a known room type.
func ValidRoomType(t string) bool {
	return t == RoomTypeGroup || t == RoomTypeDirect
}

// ValidMessageType reports whether t names a message type a client is
// allowed to send. System messages are created server-side only.
func ValidMessageType(t string) bool {
	return t == MessageTypeText || t == MessageTypeImage || t == MessageTypeFile
}

// ValidPresenceStatus reports whether s names a known presence status.
func ValidPresenceStatus(s string) bool {
	return s == StatusOnline || s == StatusAway || s == StatusBusy || s == StatusOffline
}
