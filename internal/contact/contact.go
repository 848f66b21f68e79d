// Package contact handles submissions from the contact page.
package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"loveletter/internal/queue"
	"loveletter/internal/store"
)

const (
	enqueueAttempts = 3
	enqueueBackoff  = 200 * time.Millisecond
)

// Form is the contact form as posted by the browser.
type Form struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ValidationError carries per-field messages keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range []string{"name", "email", "message"} {
		if msg, ok := e.Fields[f]; ok {
			parts = append(parts, f+": "+msg)
		}
	}
	return "invalid contact form: " + strings.Join(parts, "; ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims surrounding whitespace from every field.
func (f Form) Normalize() Form {
	return Form{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Message: strings.TrimSpace(f.Message),
	}
}

// Validate checks required fields and the email format.
func (f Form) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = "is required"
		case "email":
			fields[name] = "must be a valid email address"
		case "max":
			fields[name] = "is too long"
		default:
			fields[name] = "is invalid"
		}
	}
	return &ValidationError{Fields: fields}
}

// Service persists contact messages and hands them to the notifier.
type Service struct {
	store store.Store
	queue queue.Queue
	log   *slog.Logger
}

func NewService(st store.Store, q queue.Queue, log *slog.Logger) *Service {
	return &Service{store: st, queue: q, log: log}
}

// Submit validates the form, stores the message and enqueues a notify task.
func (s *Service) Submit(ctx context.Context, form Form) (store.ContactMessage, error) {
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return store.ContactMessage{}, err
	}

	msg, err := s.store.SaveContactMessage(ctx, store.ContactMessage{
		Name:   form.Name,
		Email:  form.Email,
		Body:   form.Message,
		Status: store.StatusReceived,
	})
	if err != nil {
		return store.ContactMessage{}, fmt.Errorf("save contact message: %w", err)
	}
	log := s.log.With("message_id", msg.ID)

	body, err := json.Marshal(queue.ContactNotifyPayload{MessageID: msg.ID})
	if err != nil {
		return msg, fmt.Errorf("marshal notify payload: %w", err)
	}
	task := queue.Task{Type: queue.TaskTypeContactNotify, Payload: body}
	if err := queue.EnqueueWithRetry(ctx, s.queue, task, enqueueAttempts, enqueueBackoff); err != nil {
		if upErr := s.store.UpdateContactStatus(ctx, msg.ID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark contact message failed", "err", upErr)
		}
		return msg, fmt.Errorf("enqueue contact notification: %w", err)
	}

	log.Info("contact message received")
	return msg, nil
}
