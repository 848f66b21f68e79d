package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NoOpStore accepts contact messages and keeps nothing, like a form with no backend.
type NoOpStore struct{}

func NewNoOp() *NoOpStore {
	return &NoOpStore{}
}

func (NoOpStore) SaveContactMessage(_ context.Context, msg ContactMessage) (ContactMessage, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.Status == "" {
		msg.Status = StatusReceived
	}
	msg.CreatedAt = time.Now()
	return msg, nil
}

func (NoOpStore) GetContactMessage(context.Context, uuid.UUID) (ContactMessage, error) {
	return ContactMessage{}, ErrMessageNotFound
}

func (NoOpStore) UpdateContactStatus(context.Context, uuid.UUID, MessageStatus) error {
	return nil
}

func (NoOpStore) Close() error {
	return nil
}
