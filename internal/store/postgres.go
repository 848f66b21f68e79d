package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contact_messages (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			body TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS contact_messages_status_idx ON contact_messages (status);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate contact_messages: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveContactMessage(ctx context.Context, msg ContactMessage) (ContactMessage, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.Status == "" {
		msg.Status = StatusReceived
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO contact_messages(id, name, email, body, status)
		VALUES($1,$2,$3,$4,$5)
		RETURNING created_at`,
		msg.ID, msg.Name, msg.Email, msg.Body, msg.Status)
	if err := row.Scan(&msg.CreatedAt); err != nil {
		return ContactMessage{}, fmt.Errorf("insert contact message: %w", err)
	}
	return msg, nil
}

func (s *PostgresStore) GetContactMessage(ctx context.Context, id uuid.UUID) (ContactMessage, error) {
	var msg ContactMessage
	row := s.db.QueryRowContext(ctx, `SELECT id, name, email, body, status, created_at FROM contact_messages WHERE id=$1`, id)
	if err := row.Scan(&msg.ID, &msg.Name, &msg.Email, &msg.Body, &msg.Status, &msg.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ContactMessage{}, ErrMessageNotFound
		}
		return ContactMessage{}, fmt.Errorf("failed to get contact message %s: %w", id, err)
	}
	return msg, nil
}

func (s *PostgresStore) UpdateContactStatus(ctx context.Context, id uuid.UUID, status MessageStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE contact_messages SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
