package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"loveletter/internal/queue"
	"loveletter/internal/store"
)

func notifyTask(t *testing.T, id uuid.UUID) queue.Task {
	t.Helper()
	body, err := json.Marshal(queue.ContactNotifyPayload{MessageID: id})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return queue.Task{ID: uuid.New(), Type: queue.TaskTypeContactNotify, Payload: body}
}

func TestHandleNotify(t *testing.T) {
	msgID := uuid.New()
	msg := store.ContactMessage{ID: msgID, Name: "Ana", Email: "ana@example.com", Body: "hello", Status: store.StatusReceived}

	tests := []struct {
		name    string
		task    func(*testing.T) queue.Task
		setup   func(*store.MockStore)
		wantErr bool
	}{
		{
			name: "delivers and marks delivered",
			task: func(t *testing.T) queue.Task { return notifyTask(t, msgID) },
			setup: func(s *store.MockStore) {
				s.On("GetContactMessage", mock.Anything, msgID).Return(msg, nil).Once()
				s.On("UpdateContactStatus", mock.Anything, msgID, store.StatusDelivered).Return(nil).Once()
			},
		},
		{
			name: "already delivered is skipped",
			task: func(t *testing.T) queue.Task { return notifyTask(t, msgID) },
			setup: func(s *store.MockStore) {
				delivered := msg
				delivered.Status = store.StatusDelivered
				s.On("GetContactMessage", mock.Anything, msgID).Return(delivered, nil).Once()
			},
		},
		{
			name: "missing message is dropped",
			task: func(t *testing.T) queue.Task { return notifyTask(t, msgID) },
			setup: func(s *store.MockStore) {
				s.On("GetContactMessage", mock.Anything, msgID).Return(store.ContactMessage{}, store.ErrMessageNotFound).Once()
			},
		},
		{
			name: "store errors are retried",
			task: func(t *testing.T) queue.Task { return notifyTask(t, msgID) },
			setup: func(s *store.MockStore) {
				s.On("GetContactMessage", mock.Anything, msgID).Return(store.ContactMessage{}, errors.New("db down")).Once()
			},
			wantErr: true,
		},
		{
			name: "status update failure is retried",
			task: func(t *testing.T) queue.Task { return notifyTask(t, msgID) },
			setup: func(s *store.MockStore) {
				s.On("GetContactMessage", mock.Anything, msgID).Return(msg, nil).Once()
				s.On("UpdateContactStatus", mock.Anything, msgID, store.StatusDelivered).Return(errors.New("db down")).Once()
			},
			wantErr: true,
		},
		{
			name: "malformed payload is dropped",
			task: func(t *testing.T) queue.Task {
				return queue.Task{Type: queue.TaskTypeContactNotify, Payload: []byte("{")}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(store.MockStore)
			if tt.setup != nil {
				tt.setup(st)
			}
			log := slog.New(slog.NewTextHandler(io.Discard, nil))

			err := handleNotify(context.Background(), st, log, tt.task(t))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			st.AssertExpectations(t)
		})
	}
}

func TestHandleNotifyLogsMessage(t *testing.T) {
	msgID := uuid.New()
	st := new(store.MockStore)
	st.On("GetContactMessage", mock.Anything, msgID).
		Return(store.ContactMessage{ID: msgID, Name: "Ana", Email: "ana@example.com", Body: "hello"}, nil).Once()
	st.On("UpdateContactStatus", mock.Anything, msgID, store.StatusDelivered).Return(nil).Once()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	assert.NoError(t, handleNotify(context.Background(), st, log, notifyTask(t, msgID)))
	assert.Contains(t, buf.String(), `"email":"ana@example.com"`)
	assert.Contains(t, buf.String(), `"attempt":1`)
}
