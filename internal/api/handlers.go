package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nextdoorbuddy/neighborchat/internal/database"
	"github.com/nextdoorbuddy/neighborchat/internal/server"
	"github.com/nextdoorbuddy/neighborchat/internal/types"
	"github.com/teris-io/shortid"
)

const (
	maxRoomNameLength = 100
	defaultPageSize   = 50
	maxPageSize       = 100
)

type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RoomType    string `json:"room_type"`
	MemberIds   []int  `json:"member_ids"`
}

type MarkReadRequest struct {
	MessageIds []int `json:"message_ids"`
}

type RoomDetailResponse struct {
	Room     types.ChatRoom         `json:"room"`
	Members  []types.RoomMembership `json:"members"`
	Messages []types.Message        `json:"messages"`
}

type UnreadCountResponse struct {
	RoomId      int `json:"room_id"`
	UnreadCount int `json:"unread_count"`
}

func (s *NeighborChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *NeighborChatApp) writeError(w http.ResponseWriter, errResp *ApiError) {
	if errResp.Err != nil {
		s.log.Println(errResp.Error())
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func pathId(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))

	return id, err == nil && id > 0
}

func (s *NeighborChatApp) getRooms(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError(CodeAuthInvalid))
		return
	}

	dbRooms, err := s.db.ListRoomsForUser(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	rooms := make([]types.ChatRoom, len(dbRooms))
	for i, room := range dbRooms {
		rooms[i] = server.ApiRoom(room)
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *NeighborChatApp) getAvailableRooms(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	dbRooms, err := s.db.ListRoomsByNeighborhood(user.NeighborhoodId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	rooms := make([]types.ChatRoom, len(dbRooms))
	for i, room := range dbRooms {
		rooms[i] = server.ApiRoom(room)
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *NeighborChatApp) createRoom(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	if req.RoomType == "" {
		req.RoomType = types.RoomTypeGroup
	}
	if !types.ValidRoomType(req.RoomType) {
		s.writeError(w, NewBadRequestError("invalid room type"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	if req.RoomType == types.RoomTypeDirect {
		s.createDirectRoom(w, user, &req)
		return
	}

	if req.Name == "" || len(req.Name) > maxRoomNameLength {
		s.writeError(w, NewBadRequestError("room name must be between 1 and 100 characters"))
		return
	}

	room, err := s.db.CreateRoom(database.CreateRoomParams{
		Name:           req.Name,
		Description:    req.Description,
		NeighborhoodId: user.NeighborhoodId,
		RoomType:       req.RoomType,
		CreatedBy:      user.Id,
		MemberIds:      req.MemberIds,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, server.ApiRoom(room))
}

// createDirectRoom deduplicates on the membership pair: if the two users
// already share a direct room it is returned as-is, regardless of what
// the room happens to be named.
func (s *NeighborChatApp) createDirectRoom(w http.ResponseWriter, user database.User, req *CreateRoomRequest) {
	if len(req.MemberIds) != 1 || req.MemberIds[0] == user.Id {
		s.writeError(w, NewBadRequestError("direct room requires exactly one other member"))
		return
	}
	other := req.MemberIds[0]

	existing, err := s.db.FindDirectRoom(user.Id, other)
	if err == nil {
		s.writeJson(w, http.StatusOK, server.ApiRoom(existing))
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	room, err := s.db.CreateRoom(database.CreateRoomParams{
		Name:           req.Name,
		Description:    req.Description,
		NeighborhoodId: user.NeighborhoodId,
		RoomType:       types.RoomTypeDirect,
		CreatedBy:      user.Id,
		MemberIds:      []int{other},
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, server.ApiRoom(room))
}

func (s *NeighborChatApp) getRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError(CodeAuthInvalid))
		return
	}

	roomId, ok := pathId(r)
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	if !s.db.IsMember(roomId, userId) {
		s.writeError(w, NewForbiddenError())
		return
	}

	dbRoom, err := s.db.GetRoomById(roomId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	dbMembers, err := s.db.GetMembers(roomId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	members := make([]types.RoomMembership, len(dbMembers))
	for i, m := range dbMembers {
		members[i] = server.ApiMembership(m)
	}

	dbMessages, err := s.db.GetMessages(roomId, defaultPageSize, time.Time{}, time.Time{})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	messages, err := s.withReactions(dbMessages)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, RoomDetailResponse{
		Room:     server.ApiRoom(dbRoom),
		Members:  members,
		Messages: messages,
	})
}

func (s *NeighborChatApp) joinRoom(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	roomId, ok := pathId(r)
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	room, err := s.db.GetRoomById(roomId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	if !room.IsActive {
		s.writeError(w, NewNotFoundError())
		return
	}
	if room.RoomType == types.RoomTypeDirect || room.NeighborhoodId != user.NeighborhoodId {
		s.writeError(w, NewForbiddenError())
		return
	}

	membership, err := s.db.AddMember(roomId, user.Id, types.RoleMember)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, server.ApiMembership(membership))
}

func (s *NeighborChatApp) leaveRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError(CodeAuthInvalid))
		return
	}

	roomId, ok := pathId(r)
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	if err := s.db.RemoveMember(roomId, userId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

// deactivateRoom archives a room so it stops appearing in listings and
// rejects new joins. Only a room admin may archive it; history is kept.
func (s *NeighborChatApp) deactivateRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError(CodeAuthInvalid))
		return
	}

	roomId, ok := pathId(r)
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	membership, err := s.db.GetMembership(roomId, userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewForbiddenError())
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}
	if membership.Role != types.RoleAdmin {
		s.writeError(w, NewForbiddenError())
		return
	}

	if err := s.db.DeactivateRoom(roomId); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *NeighborChatApp) getMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError(CodeAuthInvalid))
		return
	}

	roomId, ok := pathId(r)
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	if !s.db.IsMember(roomId, userId) {
		s.writeError(w, NewForbiddenError())
		return
	}

	limit := defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, NewBadRequestError("invalid limit"))
			return
		}
		limit = min(n, maxPageSize)
	}

	var before, after time.Time
	if v := r.URL.Query().Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, NewBadRequestError("invalid before timestamp"))
			return
		}
		before = t
	}
	if v := r.URL.Query().Get("after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, NewBadRequestError("invalid after timestamp"))
			return
		}
		after = t
	}

	dbMessages, err := s.db.GetMessages(roomId, limit, before, after)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	messages, err := s.withReactions(dbMessages)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *NeighborChatApp) getMembers(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError(CodeAuthInvalid))
		return
	}

	roomId, ok := pathId(r)
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	if !s.db.IsMember(roomId, userId) {
		s.writeError(w, NewForbiddenError())
		return
	}

	dbMembers, err := s.db.GetMembers(roomId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	members := make([]types.RoomMembership, len(dbMembers))
	for i, m := range dbMembers {
		members[i] = server.ApiMembership(m)
	}

	s.writeJson(w, http.StatusOK, members)
}

func (s *NeighborChatApp) getUnreadCount(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError(CodeAuthInvalid))
		return
	}

	roomId, ok := pathId(r)
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	if !s.db.IsMember(roomId, userId) {
		s.writeError(w, NewForbiddenError())
		return
	}

	count, err := s.db.UnreadCount(roomId, userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, UnreadCountResponse{RoomId: roomId, UnreadCount: count})
}

func (s *NeighborChatApp) markRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError(CodeAuthInvalid))
		return
	}

	roomId, ok := pathId(r)
	if !ok {
		s.writeError(w, NewBadRequestError("invalid room id"))
		return
	}

	if !s.db.IsMember(roomId, userId) {
		s.writeError(w, NewForbiddenError())
		return
	}

	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, NewBadRequestError(""))
		return
	}

	if len(req.MessageIds) > 0 {
		if err := s.db.MarkMessagesRead(req.MessageIds, userId); err != nil {
			s.writeError(w, NewInternalServerError(err))
			return
		}
	}

	if err := s.db.UpdateLastRead(roomId, userId); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *NeighborChatApp) getOnlineUsers(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeError(w, errResp)
		return
	}

	dbPresences, err := s.db.ListNeighborhoodPresence(user.NeighborhoodId, true)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	presences := make([]types.Presence, len(dbPresences))
	for i, p := range dbPresences {
		presences[i] = server.ApiPresence(p)
	}

	s.writeJson(w, http.StatusOK, presences)
}

func (s *NeighborChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError(CodeAuthInvalid))
		return
	}

	user, err := s.db.GetUserById(userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewUnauthorizedError(CodeAuthUserNotFound))
			return
		}
		s.writeError(w, NewInternalServerError(err))
		return
	}

	connRef, err := shortid.Generate()
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(server.ApiUser(user), connRef, conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
	s.cs.EstablishSession(client)
}

// currentUser resolves the authenticated user's full record, needed by
// handlers that scope results to the caller's neighborhood.
func (s *NeighborChatApp) currentUser(r *http.Request) (database.User, *ApiError) {
	userId, ok := UserId(r.Context())
	if !ok {
		return database.User{}, NewUnauthorizedError(CodeAuthInvalid)
	}

	user, err := s.db.GetUserById(userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.User{}, NewUnauthorizedError(CodeAuthUserNotFound)
		}
		return database.User{}, NewInternalServerError(err)
	}

	return user, nil
}

func (s *NeighborChatApp) withReactions(rows []database.Message) ([]types.Message, error) {
	messages := server.ApiMessages(rows)
	if len(messages) == 0 {
		return messages, nil
	}

	ids := make([]int, len(messages))
	for i, m := range messages {
		ids[i] = m.Id
	}

	reactions, err := s.db.ListReactionsForMessages(ids)
	if err != nil {
		return nil, err
	}

	byMessage := make(map[int][]types.Reaction)
	for _, r := range reactions {
		byMessage[r.MessageId] = append(byMessage[r.MessageId], server.ApiReaction(r))
	}

	for i := range messages {
		messages[i].Reactions = byMessage[messages[i].Id]
	}

	return messages, nil
}
