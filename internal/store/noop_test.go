package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpStore(t *testing.T) {
	s := NewNoOp()
	ctx := context.Background()

	saved, err := s.SaveContactMessage(ctx, ContactMessage{Name: "Ana", Email: "ana@example.com", Body: "hi"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, StatusReceived, saved.Status)
	assert.False(t, saved.CreatedAt.IsZero())

	_, err = s.GetContactMessage(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	assert.NoError(t, s.UpdateContactStatus(ctx, saved.ID, StatusDelivered))
	assert.NoError(t, s.Close())
}
