package database

import (
	"database/sql"
)

type PgNeighborChatRepository struct {
	conn *sql.DB
}

func NewPgNeighborChatRepository(dsn string) (*PgNeighborChatRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgNeighborChatRepository{conn: db}, nil
}

func (db *PgNeighborChatRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgNeighborChatRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
