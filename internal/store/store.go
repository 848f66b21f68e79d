package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type MessageStatus string

const (
	StatusReceived  MessageStatus = "received"
	StatusDelivered MessageStatus = "delivered"
	StatusFailed    MessageStatus = "failed"
)

var ErrMessageNotFound = errors.New("contact message not found")

// ContactMessage is a submission from the contact page.
type ContactMessage struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Body      string
	Status    MessageStatus
	CreatedAt time.Time
}

// Store defines persistence for contact submissions.
type Store interface {
	SaveContactMessage(ctx context.Context, msg ContactMessage) (ContactMessage, error)
	GetContactMessage(ctx context.Context, id uuid.UUID) (ContactMessage, error)
	UpdateContactStatus(ctx context.Context, id uuid.UUID, status MessageStatus) error
	Close() error
}
