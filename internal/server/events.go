package server

import (
	"encoding/json"
	"time"

	"github.com/nextdoorbuddy/neighborchat/internal/types"
)

// Client-to-server event types.
const (
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventSendMessage    = "send_message"
	EventEditMessage    = "edit_message"
	EventDeleteMessage  = "delete_message"
	EventStartTyping    = "start_typing"
	EventStopTyping     = "stop_typing"
	EventMarkRead       = "mark_messages_read"
	EventAddReaction    = "add_reaction"
	EventRemoveReaction = "remove_reaction"
	EventUpdatePresence = "update_presence"
)

// Server-to-client event types.
const (
	EventMessageReceived      = "message_received"
	EventMessageUpdated       = "message_updated"
	EventMessageDeleted       = "message_deleted"
	EventUserJoinedRoom       = "user_joined_room"
	EventUserLeftRoom         = "user_left_room"
	EventTypingStart          = "typing_start"
	EventTypingStop           = "typing_stop"
	EventUserPresenceUpdated  = "user_presence_updated"
	EventReactionAdded        = "message_reaction_added"
	EventReactionRemoved      = "message_reaction_removed"
	EventUndeliveredMessages  = "undelivered_messages_notification"
	EventError                = "error"
)

// Error codes carried on error events and handshake rejections.
const (
	CodeAuthMissing      = "AUTH_MISSING"
	CodeAuthInvalid      = "AUTH_INVALID"
	CodeAuthUserNotFound = "AUTH_USER_NOT_FOUND"
	CodeNotAuthorized    = "NOT_AUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidContent   = "INVALID_CONTENT"
	CodeInternal         = "INTERNAL"
)

// ClientEvent is the envelope for everything a client sends over the
// gateway.
type ClientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ServerEvent is the envelope for everything pushed to a client.
type ServerEvent struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type SendMessagePayload struct {
	RoomId      int    `json:"room_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type,omitempty"`
	ReplyToId   int    `json:"reply_to_id,omitempty"`
}

type EditMessagePayload struct {
	MessageId int    `json:"message_id"`
	Content   string `json:"content"`
}

type DeleteMessagePayload struct {
	MessageId int `json:"message_id"`
}

type RoomPayload struct {
	RoomId int `json:"room_id"`
}

type MarkReadPayload struct {
	RoomId     int   `json:"room_id"`
	MessageIds []int `json:"message_ids"`
}

type ReactionPayload struct {
	MessageId int    `json:"message_id"`
	Reaction  string `json:"reaction"`
}

type PresencePayload struct {
	Status string `json:"status"`
}

type MessageDeletedPayload struct {
	MessageId int `json:"message_id"`
	RoomId    int `json:"room_id"`
}

type UserLeftRoomPayload struct {
	UserId int `json:"user_id"`
	RoomId int `json:"room_id"`
}

type TypingStopPayload struct {
	UserId int `json:"user_id"`
	RoomId int `json:"room_id"`
}

type ReactionRemovedPayload struct {
	MessageId int    `json:"message_id"`
	UserId    int    `json:"user_id"`
	Reaction  string `json:"reaction"`
}

type UndeliveredPayload struct {
	Count    int             `json:"count"`
	Messages []types.Message `json:"messages"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func NewEvent(eventType string, data any) *ServerEvent {
	return &ServerEvent{
		Type:      eventType,
		Data:      data,
		Timestamp: Now(),
	}
}

func ErrEvent(code, message string) *ServerEvent {
	return NewEvent(EventError, ErrorPayload{Message: message, Code: code})
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
