package server

import (
	"github.com/nextdoorbuddy/neighborchat/internal/database"
	"github.com/nextdoorbuddy/neighborchat/internal/types"
)

// Converters from repository rows to the wire representation. The api
// package reuses these so REST responses and gateway events agree on
// shape.

func ApiUser(u database.User) types.User {
	return types.User{
		Id:             u.Id,
		DisplayName:    u.DisplayName,
		EmailAddress:   u.EmailAddress,
		NeighborhoodId: u.NeighborhoodId,
	}
}

func ApiRoom(r database.Room) types.ChatRoom {
	room := types.ChatRoom{
		Id:             r.Id,
		Name:           r.Name,
		Description:    r.Description,
		NeighborhoodId: r.NeighborhoodId,
		RoomType:       r.RoomType,
		CreatedBy:      r.CreatedBy,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		MemberCount:    r.MemberCount,
		UnreadCount:    r.UnreadCount,
	}
	if r.LastMessage != nil {
		last := ApiMessage(*r.LastMessage)
		room.LastMessage = &last
	}
	return room
}

func ApiMembership(m database.Membership) types.RoomMembership {
	return types.RoomMembership{
		Id:         m.Id,
		RoomId:     m.RoomId,
		UserId:     m.UserId,
		Role:       m.Role,
		JoinedAt:   m.JoinedAt,
		LastReadAt: m.LastReadAt,
		IsMuted:    m.IsMuted,
		User: &types.User{
			Id:          m.UserId,
			DisplayName: m.DisplayName,
		},
	}
}

func ApiMessage(m database.Message) types.Message {
	msg := types.Message{
		Id:        m.Id,
		RoomId:    m.RoomId,
		SenderId:  m.SenderId,
		Content:   m.Content,
		Type:      m.Type,
		ReplyToId: m.ReplyToId,
		IsEdited:  m.IsEdited,
		IsDeleted: m.IsDeleted,
		DeletedAt: m.DeletedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.SenderDisplayName != "" {
		msg.Sender = &types.User{
			Id:          m.SenderId,
			DisplayName: m.SenderDisplayName,
		}
	}
	return msg
}

func ApiReaction(r database.Reaction) types.Reaction {
	return types.Reaction{
		Id:        r.Id,
		MessageId: r.MessageId,
		UserId:    r.UserId,
		Reaction:  r.Reaction,
		CreatedAt: r.CreatedAt,
		User: &types.User{
			Id:          r.UserId,
			DisplayName: r.DisplayName,
		},
	}
}

func ApiPresence(p database.Presence) types.Presence {
	return types.Presence{
		UserId:    p.UserId,
		Status:    p.Status,
		LastSeen:  p.LastSeen,
		UpdatedAt: p.UpdatedAt,
		User: &types.User{
			Id:          p.UserId,
			DisplayName: p.DisplayName,
		},
	}
}

func ApiMessages(rows []database.Message) []types.Message {
	msgs := make([]types.Message, len(rows))
	for i, m := range rows {
		msgs[i] = ApiMessage(m)
	}
	return msgs
}
