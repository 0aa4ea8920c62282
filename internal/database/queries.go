package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

func (db *PgNeighborChatRepository) GetUserById(id int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, display_name, email, neighborhood_id, created_at, updated_at "+
			"FROM users WHERE id = $1 LIMIT 1",
		id,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.DisplayName,
		&u.EmailAddress,
		&u.NeighborhoodId,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgNeighborChatRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(
		"INSERT INTO chat_rooms (name, description, neighborhood_id, room_type, created_by) "+
			"VALUES ($1, $2, $3, $4, $5) "+
			"RETURNING id, name, description, neighborhood_id, room_type, created_by, is_active, created_at, updated_at",
		params.Name,
		params.Description,
		params.NeighborhoodId,
		params.RoomType,
		params.CreatedBy,
	)

	var r Room
	if err := row.Scan(
		&r.Id,
		&r.Name,
		&r.Description,
		&r.NeighborhoodId,
		&r.RoomType,
		&r.CreatedBy,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return Room{}, fmt.Errorf("insert room: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO chat_room_members (chat_room_id, user_id, role) VALUES ($1, $2, $3)",
		r.Id, params.CreatedBy, "admin",
	); err != nil {
		return Room{}, fmt.Errorf("insert creator membership: %w", err)
	}

	for _, memberId := range params.MemberIds {
		if memberId == params.CreatedBy {
			continue
		}
		if _, err := tx.Exec(
			"INSERT INTO chat_room_members (chat_room_id, user_id, role) VALUES ($1, $2, $3) "+
				"ON CONFLICT (chat_room_id, user_id) DO NOTHING",
			r.Id, memberId, "member",
		); err != nil {
			return Room{}, fmt.Errorf("insert membership for user %d: %w", memberId, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Room{}, fmt.Errorf("commit tx: %w", err)
	}

	return r, nil
}

func (db *PgNeighborChatRepository) GetRoomById(id int) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT cr.id, cr.name, cr.description, cr.neighborhood_id, cr.room_type, "+
			"COALESCE(cr.created_by, 0), cr.is_active, cr.created_at, cr.updated_at, "+
			"(SELECT COUNT(*) FROM chat_room_members WHERE chat_room_id = cr.id) "+
			"FROM chat_rooms cr WHERE cr.id = $1 LIMIT 1",
		id,
	)

	var r Room
	err := row.Scan(
		&r.Id,
		&r.Name,
		&r.Description,
		&r.NeighborhoodId,
		&r.RoomType,
		&r.CreatedBy,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.MemberCount,
	)

	return r, err
}

func (db *PgNeighborChatRepository) ListRoomsForUser(userId int) ([]Room, error) {
	rows, err := db.conn.Query(
		"SELECT cr.id, cr.name, cr.description, cr.neighborhood_id, cr.room_type, "+
			"COALESCE(cr.created_by, 0), cr.is_active, cr.created_at, cr.updated_at, "+
			"(SELECT COUNT(*) FROM chat_room_members WHERE chat_room_id = cr.id), "+
			"(SELECT COUNT(*) FROM messages m WHERE m.chat_room_id = cr.id "+
			"AND m.created_at > crm.last_read_at AND m.sender_id != $1 AND NOT m.is_deleted), "+
			"lm.id, lm.content, lm.created_at, lm.display_name "+
			"FROM chat_rooms cr "+
			"JOIN chat_room_members crm ON crm.chat_room_id = cr.id AND crm.user_id = $1 "+
			"LEFT JOIN LATERAL ("+
			"SELECT m.id, m.content, m.created_at, COALESCE(u.display_name, '') AS display_name "+
			"FROM messages m LEFT JOIN users u ON u.id = m.sender_id "+
			"WHERE m.chat_room_id = cr.id AND NOT m.is_deleted "+
			"ORDER BY m.created_at DESC LIMIT 1"+
			") lm ON true "+
			"WHERE cr.is_active "+
			"ORDER BY cr.updated_at DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		var lmId sql.NullInt64
		var lmContent, lmSender sql.NullString
		var lmCreatedAt sql.NullTime
		if err := rows.Scan(
			&r.Id,
			&r.Name,
			&r.Description,
			&r.NeighborhoodId,
			&r.RoomType,
			&r.CreatedBy,
			&r.IsActive,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.MemberCount,
			&r.UnreadCount,
			&lmId,
			&lmContent,
			&lmCreatedAt,
			&lmSender,
		); err != nil {
			return nil, err
		}
		if lmId.Valid {
			r.LastMessage = &Message{
				Id:                int(lmId.Int64),
				RoomId:            r.Id,
				Content:           lmContent.String,
				CreatedAt:         lmCreatedAt.Time,
				SenderDisplayName: lmSender.String,
			}
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

func (db *PgNeighborChatRepository) ListRoomsByNeighborhood(neighborhoodId int) ([]Room, error) {
	rows, err := db.conn.Query(
		"SELECT cr.id, cr.name, cr.description, cr.neighborhood_id, cr.room_type, "+
			"COALESCE(cr.created_by, 0), cr.is_active, cr.created_at, cr.updated_at, "+
			"(SELECT COUNT(*) FROM chat_room_members WHERE chat_room_id = cr.id) "+
			"FROM chat_rooms cr "+
			"WHERE cr.neighborhood_id = $1 AND cr.is_active "+
			"ORDER BY cr.updated_at DESC",
		neighborhoodId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(
			&r.Id,
			&r.Name,
			&r.Description,
			&r.NeighborhoodId,
			&r.RoomType,
			&r.CreatedBy,
			&r.IsActive,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.MemberCount,
		); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

// FindDirectRoom looks up an existing direct room by the stored membership
// pair. The room's name is never consulted.
func (db *PgNeighborChatRepository) FindDirectRoom(userA, userB int) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT cr.id, cr.name, cr.description, cr.neighborhood_id, cr.room_type, "+
			"COALESCE(cr.created_by, 0), cr.is_active, cr.created_at, cr.updated_at, "+
			"(SELECT COUNT(*) FROM chat_room_members WHERE chat_room_id = cr.id) "+
			"FROM chat_rooms cr "+
			"JOIN chat_room_members a ON a.chat_room_id = cr.id AND a.user_id = $1 "+
			"JOIN chat_room_members b ON b.chat_room_id = cr.id AND b.user_id = $2 "+
			"WHERE cr.room_type = 'direct' AND cr.is_active "+
			"ORDER BY cr.id LIMIT 1",
		userA, userB,
	)

	var r Room
	err := row.Scan(
		&r.Id,
		&r.Name,
		&r.Description,
		&r.NeighborhoodId,
		&r.RoomType,
		&r.CreatedBy,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.MemberCount,
	)

	return r, err
}

func (db *PgNeighborChatRepository) DeactivateRoom(id int) error {
	_, err := db.conn.Exec(
		"UPDATE chat_rooms SET is_active = false, updated_at = now() WHERE id = $1",
		id,
	)
	return err
}

func (db *PgNeighborChatRepository) AddMember(roomId, userId int, role string) (Membership, error) {
	row := db.conn.QueryRow(
		"INSERT INTO chat_room_members (chat_room_id, user_id, role) VALUES ($1, $2, $3) "+
			"ON CONFLICT (chat_room_id, user_id) DO UPDATE SET role = chat_room_members.role "+
			"RETURNING id, chat_room_id, user_id, role, joined_at, last_read_at, is_muted",
		roomId, userId, role,
	)

	var m Membership
	if err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.UserId,
		&m.Role,
		&m.JoinedAt,
		&m.LastReadAt,
		&m.IsMuted,
	); err != nil {
		return Membership{}, err
	}

	if err := db.conn.QueryRow(
		"SELECT display_name FROM users WHERE id = $1", userId,
	).Scan(&m.DisplayName); err != nil && err != sql.ErrNoRows {
		return Membership{}, err
	}

	return m, nil
}

func (db *PgNeighborChatRepository) RemoveMember(roomId, userId int) error {
	res, err := db.conn.Exec(
		"DELETE FROM chat_room_members WHERE chat_room_id = $1 AND user_id = $2",
		roomId, userId,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgNeighborChatRepository) IsMember(roomId, userId int) bool {
	var exists bool
	err := db.conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM chat_room_members WHERE chat_room_id = $1 AND user_id = $2)",
		roomId, userId,
	).Scan(&exists)

	return err == nil && exists
}

func (db *PgNeighborChatRepository) GetMembership(roomId, userId int) (Membership, error) {
	row := db.conn.QueryRow(
		"SELECT crm.id, crm.chat_room_id, crm.user_id, crm.role, crm.joined_at, "+
			"crm.last_read_at, crm.is_muted, u.display_name "+
			"FROM chat_room_members crm "+
			"JOIN users u ON u.id = crm.user_id "+
			"WHERE crm.chat_room_id = $1 AND crm.user_id = $2 LIMIT 1",
		roomId, userId,
	)

	var m Membership
	err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.UserId,
		&m.Role,
		&m.JoinedAt,
		&m.LastReadAt,
		&m.IsMuted,
		&m.DisplayName,
	)

	return m, err
}

func (db *PgNeighborChatRepository) GetMembers(roomId int) ([]Membership, error) {
	rows, err := db.conn.Query(
		"SELECT crm.id, crm.chat_room_id, crm.user_id, crm.role, crm.joined_at, "+
			"crm.last_read_at, crm.is_muted, u.display_name "+
			"FROM chat_room_members crm "+
			"JOIN users u ON u.id = crm.user_id "+
			"WHERE crm.chat_room_id = $1 "+
			"ORDER BY crm.joined_at ASC",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(
			&m.Id,
			&m.RoomId,
			&m.UserId,
			&m.Role,
			&m.JoinedAt,
			&m.LastReadAt,
			&m.IsMuted,
			&m.DisplayName,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func (db *PgNeighborChatRepository) UpdateLastRead(roomId, userId int) error {
	_, err := db.conn.Exec(
		"UPDATE chat_room_members SET last_read_at = now() WHERE chat_room_id = $1 AND user_id = $2",
		roomId, userId,
	)
	return err
}

// CreateMessage persists the message, bumps the room's updated_at and seeds
// a delivery record at 'sent' for every other room member, all in one
// transaction. Records are promoted to 'delivered' individually as live
// connections accept the push.
func (db *PgNeighborChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Message{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var replyTo any
	if params.ReplyToId != 0 {
		replyTo = params.ReplyToId
	}

	row := tx.QueryRow(
		"INSERT INTO messages (chat_room_id, sender_id, content, message_type, reply_to_id) "+
			"VALUES ($1, $2, $3, $4, $5) "+
			"RETURNING id, chat_room_id, sender_id, content, message_type, "+
			"COALESCE(reply_to_id, 0), is_edited, is_deleted, deleted_at, created_at, updated_at",
		params.RoomId,
		params.SenderId,
		params.Content,
		params.Type,
		replyTo,
	)

	var m Message
	if err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.SenderId,
		&m.Content,
		&m.Type,
		&m.ReplyToId,
		&m.IsEdited,
		&m.IsDeleted,
		&m.DeletedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.Exec(
		"UPDATE chat_rooms SET updated_at = now() WHERE id = $1",
		params.RoomId,
	); err != nil {
		return Message{}, fmt.Errorf("touch room: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO message_deliveries (message_id, user_id, status) "+
			"SELECT $1, user_id, 'sent' FROM chat_room_members "+
			"WHERE chat_room_id = $2 AND user_id != $3",
		m.Id, params.RoomId, params.SenderId,
	); err != nil {
		return Message{}, fmt.Errorf("seed deliveries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Message{}, fmt.Errorf("commit tx: %w", err)
	}

	if err := db.conn.QueryRow(
		"SELECT display_name FROM users WHERE id = $1", params.SenderId,
	).Scan(&m.SenderDisplayName); err != nil && err != sql.ErrNoRows {
		return Message{}, err
	}

	return m, nil
}

func (db *PgNeighborChatRepository) GetMessageById(id int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT m.id, m.chat_room_id, COALESCE(m.sender_id, 0), m.content, m.message_type, "+
			"COALESCE(m.reply_to_id, 0), m.is_edited, m.is_deleted, m.deleted_at, "+
			"m.created_at, m.updated_at, COALESCE(u.display_name, '') "+
			"FROM messages m "+
			"LEFT JOIN users u ON u.id = m.sender_id "+
			"WHERE m.id = $1 LIMIT 1",
		id,
	)

	var m Message
	err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.SenderId,
		&m.Content,
		&m.Type,
		&m.ReplyToId,
		&m.IsEdited,
		&m.IsDeleted,
		&m.DeletedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.SenderDisplayName,
	)

	return m, err
}

func (db *PgNeighborChatRepository) UpdateMessageContent(messageId, senderId int, content string) (Message, error) {
	row := db.conn.QueryRow(
		"UPDATE messages SET content = $1, is_edited = true, updated_at = now() "+
			"WHERE id = $2 AND sender_id = $3 AND NOT is_deleted "+
			"RETURNING id",
		content, messageId, senderId,
	)

	var id int
	if err := row.Scan(&id); err != nil {
		return Message{}, err
	}

	return db.GetMessageById(id)
}

func (db *PgNeighborChatRepository) SoftDeleteMessage(messageId, senderId int) (bool, error) {
	res, err := db.conn.Exec(
		"UPDATE messages SET is_deleted = true, deleted_at = now(), updated_at = now() "+
			"WHERE id = $1 AND sender_id = $2 AND NOT is_deleted",
		messageId, senderId,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// GetMessages returns up to limit non-deleted messages in chronological
// order, optionally bounded by before/after timestamps.
func (db *PgNeighborChatRepository) GetMessages(roomId, limit int, before, after time.Time) ([]Message, error) {
	query := "SELECT m.id, m.chat_room_id, COALESCE(m.sender_id, 0), m.content, m.message_type, " +
		"COALESCE(m.reply_to_id, 0), m.is_edited, m.is_deleted, m.deleted_at, " +
		"m.created_at, m.updated_at, COALESCE(u.display_name, '') " +
		"FROM messages m " +
		"LEFT JOIN users u ON u.id = m.sender_id " +
		"WHERE m.chat_room_id = $1 AND NOT m.is_deleted"

	args := []any{roomId}
	if !before.IsZero() {
		args = append(args, before)
		query += fmt.Sprintf(" AND m.created_at < $%d", len(args))
	}
	if !after.IsZero() {
		args = append(args, after)
		query += fmt.Sprintf(" AND m.created_at > $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY m.created_at DESC LIMIT $%d", len(args))

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.Id,
			&m.RoomId,
			&m.SenderId,
			&m.Content,
			&m.Type,
			&m.ReplyToId,
			&m.IsEdited,
			&m.IsDeleted,
			&m.DeletedAt,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.SenderDisplayName,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// query is newest-first, callers want chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (db *PgNeighborChatRepository) ListReactionsForMessages(messageIds []int) ([]Reaction, error) {
	if len(messageIds) == 0 {
		return nil, nil
	}

	rows, err := db.conn.Query(
		"SELECT mr.id, mr.message_id, mr.user_id, mr.reaction, mr.created_at, u.display_name "+
			"FROM message_reactions mr "+
			"JOIN users u ON u.id = mr.user_id "+
			"WHERE mr.message_id = ANY($1) "+
			"ORDER BY mr.created_at ASC",
		pq.Array(messageIds),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reactions []Reaction
	for rows.Next() {
		var r Reaction
		if err := rows.Scan(
			&r.Id,
			&r.MessageId,
			&r.UserId,
			&r.Reaction,
			&r.CreatedAt,
			&r.DisplayName,
		); err != nil {
			return nil, err
		}
		reactions = append(reactions, r)
	}

	return reactions, rows.Err()
}

func (db *PgNeighborChatRepository) UnreadCount(roomId, userId int) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(m.id) FROM messages m "+
			"JOIN chat_room_members crm ON crm.chat_room_id = m.chat_room_id AND crm.user_id = $2 "+
			"WHERE m.chat_room_id = $1 AND m.created_at > crm.last_read_at "+
			"AND m.sender_id != $2 AND NOT m.is_deleted",
		roomId, userId,
	).Scan(&count)

	return count, err
}

// MarkDelivered promotes a single delivery record from 'sent' to
// 'delivered'. Records already at 'delivered' or 'read' are left alone.
func (db *PgNeighborChatRepository) MarkDelivered(messageId, recipientId int) error {
	_, err := db.conn.Exec(
		"UPDATE message_deliveries SET status = 'delivered', delivered_at = now() "+
			"WHERE message_id = $1 AND user_id = $2 AND status = 'sent'",
		messageId, recipientId,
	)
	return err
}

func (db *PgNeighborChatRepository) MarkMessagesRead(messageIds []int, userId int) error {
	if len(messageIds) == 0 {
		return nil
	}

	_, err := db.conn.Exec(
		"UPDATE message_deliveries SET status = 'read', read_at = now() "+
			"WHERE message_id = ANY($1) AND user_id = $2 AND status != 'read'",
		pq.Array(messageIds), userId,
	)
	return err
}

func (db *PgNeighborChatRepository) UndeliveredMessages(userId int) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT m.id, m.chat_room_id, COALESCE(m.sender_id, 0), m.content, m.message_type, "+
			"COALESCE(m.reply_to_id, 0), m.is_edited, m.is_deleted, m.deleted_at, "+
			"m.created_at, m.updated_at, COALESCE(u.display_name, '') "+
			"FROM message_deliveries md "+
			"JOIN messages m ON m.id = md.message_id "+
			"LEFT JOIN users u ON u.id = m.sender_id "+
			"WHERE md.user_id = $1 AND md.status = 'sent' AND NOT m.is_deleted "+
			"ORDER BY m.created_at ASC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.Id,
			&m.RoomId,
			&m.SenderId,
			&m.Content,
			&m.Type,
			&m.ReplyToId,
			&m.IsEdited,
			&m.IsDeleted,
			&m.DeletedAt,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.SenderDisplayName,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (db *PgNeighborChatRepository) MarkAllDelivered(userId int) error {
	_, err := db.conn.Exec(
		"UPDATE message_deliveries SET status = 'delivered', delivered_at = now() "+
			"WHERE user_id = $1 AND status = 'sent'",
		userId,
	)
	return err
}

// AddReaction inserts the (message, user, reaction) triple. A nil Reaction
// with nil error means the triple already existed.
func (db *PgNeighborChatRepository) AddReaction(messageId, userId int, reaction string) (*Reaction, error) {
	row := db.conn.QueryRow(
		"INSERT INTO message_reactions (message_id, user_id, reaction) VALUES ($1, $2, $3) "+
			"ON CONFLICT (message_id, user_id, reaction) DO NOTHING "+
			"RETURNING id, message_id, user_id, reaction, created_at",
		messageId, userId, reaction,
	)

	var r Reaction
	err := row.Scan(&r.Id, &r.MessageId, &r.UserId, &r.Reaction, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := db.conn.QueryRow(
		"SELECT display_name FROM users WHERE id = $1", userId,
	).Scan(&r.DisplayName); err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return &r, nil
}

func (db *PgNeighborChatRepository) RemoveReaction(messageId, userId int, reaction string) (bool, error) {
	res, err := db.conn.Exec(
		"DELETE FROM message_reactions WHERE message_id = $1 AND user_id = $2 AND reaction = $3",
		messageId, userId, reaction,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (db *PgNeighborChatRepository) UpsertPresence(userId int, status, connectionRef string) (Presence, error) {
	row := db.conn.QueryRow(
		"INSERT INTO user_presence (user_id, status, connection_ref, last_seen, updated_at) "+
			"VALUES ($1, $2, $3, now(), now()) "+
			"ON CONFLICT (user_id) DO UPDATE SET "+
			"status = EXCLUDED.status, connection_ref = EXCLUDED.connection_ref, "+
			"last_seen = now(), updated_at = now() "+
			"RETURNING user_id, status, COALESCE(connection_ref, ''), last_seen, updated_at",
		userId, status, connectionRef,
	)

	var p Presence
	err := row.Scan(&p.UserId, &p.Status, &p.ConnectionRef, &p.LastSeen, &p.UpdatedAt)

	return p, err
}

func (db *PgNeighborChatRepository) SetOffline(userId int) error {
	_, err := db.conn.Exec(
		"UPDATE user_presence SET status = 'offline', connection_ref = NULL, "+
			"last_seen = now(), updated_at = now() WHERE user_id = $1",
		userId,
	)
	return err
}

func (db *PgNeighborChatRepository) ListNeighborhoodPresence(neighborhoodId int, onlineOnly bool) ([]Presence, error) {
	query := "SELECT up.user_id, up.status, COALESCE(up.connection_ref, ''), up.last_seen, up.updated_at, u.display_name " +
		"FROM user_presence up " +
		"JOIN users u ON u.id = up.user_id " +
		"WHERE u.neighborhood_id = $1"
	if onlineOnly {
		query += " AND up.status != 'offline'"
	}
	query += " ORDER BY up.last_seen DESC"

	rows, err := db.conn.Query(query, neighborhoodId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presences []Presence
	for rows.Next() {
		var p Presence
		if err := rows.Scan(
			&p.UserId,
			&p.Status,
			&p.ConnectionRef,
			&p.LastSeen,
			&p.UpdatedAt,
			&p.DisplayName,
		); err != nil {
			return nil, err
		}
		presences = append(presences, p)
	}

	return presences, rows.Err()
}

func (db *PgNeighborChatRepository) ExpireStalePresence(olderThan time.Duration) (int64, error) {
	res, err := db.conn.Exec(
		"UPDATE user_presence SET status = 'offline', connection_ref = NULL, updated_at = now() "+
			"WHERE last_seen < $1 AND status != 'offline'",
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (db *PgNeighborChatRepository) StartTyping(roomId, userId int) (TypingRecord, error) {
	row := db.conn.QueryRow(
		"INSERT INTO typing_indicators (chat_room_id, user_id, started_at) "+
			"VALUES ($1, $2, now()) "+
			"ON CONFLICT (chat_room_id, user_id) DO UPDATE SET started_at = now() "+
			"RETURNING id, chat_room_id, user_id, started_at",
		roomId, userId,
	)

	var t TypingRecord
	err := row.Scan(&t.Id, &t.RoomId, &t.UserId, &t.StartedAt)

	return t, err
}

func (db *PgNeighborChatRepository) StopTyping(roomId, userId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM typing_indicators WHERE chat_room_id = $1 AND user_id = $2",
		roomId, userId,
	)
	return err
}

func (db *PgNeighborChatRepository) ClearTypingForUser(userId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM typing_indicators WHERE user_id = $1",
		userId,
	)
	return err
}

func (db *PgNeighborChatRepository) ExpireStaleTyping(olderThan time.Duration) (int64, error) {
	res, err := db.conn.Exec(
		"DELETE FROM typing_indicators WHERE started_at < $1",
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
