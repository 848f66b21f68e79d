package letter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"loveletter/internal/cache"
	"loveletter/internal/llm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("  we met at a bookshop in Lisbon \n")

	assert.True(t, strings.HasPrefix(prompt, "Generate a romantic and heartfelt love letter (between 100-500 words) based on this context: we met at a bookshop in Lisbon. "))
	assert.True(t, strings.HasSuffix(prompt, "Avoid clichés and generic expressions."))
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name        string
		description string
		nilClient   bool
		setup       func(*llm.MockClient)
		want        string
		wantErr     error
	}{
		{
			name:        "success",
			description: "ten years together",
			setup: func(m *llm.MockClient) {
				m.On("Generate", mock.Anything, BuildPrompt("ten years together")).
					Return("  My darling,\nTen years...  ", nil).Once()
			},
			want: "My darling,\nTen years...",
		},
		{
			name:        "empty description does not call the model",
			description: "   \n\t",
			wantErr:     ErrEmptyDescription,
		},
		{
			name:        "too long",
			description: strings.Repeat("♥", 101),
			wantErr:     ErrDescriptionTooLong,
		},
		{
			name:        "missing api key",
			description: "hello",
			nilClient:   true,
			wantErr:     ErrAPIKeyMissing,
		},
		{
			name:        "upstream failure",
			description: "hello",
			setup: func(m *llm.MockClient) {
				m.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()
			},
			wantErr: ErrGenerationFailed,
		},
		{
			name:        "blank upstream text",
			description: "hello",
			setup: func(m *llm.MockClient) {
				m.On("Generate", mock.Anything, mock.Anything).Return("   ", nil).Once()
			},
			wantErr: ErrGenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(llm.MockClient)
			if tt.setup != nil {
				tt.setup(client)
			}
			var c llm.Client = client
			if tt.nilClient {
				c = nil
			}
			svc := NewService(c, nil, discardLogger(), Options{MaxRunes: 100})

			got, err := svc.Generate(context.Background(), tt.description)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			client.AssertExpectations(t)
		})
	}
}

func TestGenerateAppliesTimeout(t *testing.T) {
	client := new(llm.MockClient)
	client.On("Generate", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= time.Second
	}), mock.Anything).Return("letter", nil).Once()

	svc := NewService(client, nil, discardLogger(), Options{Timeout: time.Second})
	_, err := svc.Generate(context.Background(), "x")

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestGenerateUsesCache(t *testing.T) {
	const model = "gemini-1.5-flash"
	key := cache.Key(model, "rainy sundays")

	t.Run("hit skips the model", func(t *testing.T) {
		client := new(llm.MockClient)
		c := new(cache.MockCache)
		c.On("GetLetter", mock.Anything, key).Return(&cache.Letter{Text: "cached letter"}, nil).Once()

		svc := NewService(client, c, discardLogger(), Options{Model: model, CacheTTL: time.Hour})
		got, err := svc.Generate(context.Background(), "rainy sundays")

		require.NoError(t, err)
		assert.Equal(t, "cached letter", got)
		client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		c.AssertExpectations(t)
	})

	t.Run("miss stores the result", func(t *testing.T) {
		client := new(llm.MockClient)
		client.On("Generate", mock.Anything, mock.Anything).Return("fresh letter", nil).Once()
		c := new(cache.MockCache)
		c.On("GetLetter", mock.Anything, key).Return(nil, nil).Once()
		c.On("SetLetter", mock.Anything, key, mock.MatchedBy(func(l *cache.Letter) bool {
			return l.Text == "fresh letter" && l.Model == model
		}), time.Hour).Return(nil).Once()

		svc := NewService(client, c, discardLogger(), Options{Model: model, CacheTTL: time.Hour})
		got, err := svc.Generate(context.Background(), "rainy sundays")

		require.NoError(t, err)
		assert.Equal(t, "fresh letter", got)
		client.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("cache errors do not fail generation", func(t *testing.T) {
		client := new(llm.MockClient)
		client.On("Generate", mock.Anything, mock.Anything).Return("fresh letter", nil).Once()
		c := new(cache.MockCache)
		c.On("GetLetter", mock.Anything, key).Return(nil, errors.New("redis down")).Once()
		c.On("SetLetter", mock.Anything, key, mock.Anything, time.Hour).Return(errors.New("redis down")).Once()

		svc := NewService(client, c, discardLogger(), Options{Model: model, CacheTTL: time.Hour})
		got, err := svc.Generate(context.Background(), "rainy sundays")

		require.NoError(t, err)
		assert.Equal(t, "fresh letter", got)
	})
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"api key", ErrAPIKeyMissing, "API key not configured. Please add your Gemini API key to continue."},
		{"wrapped failure hides upstream detail", errors.Join(ErrGenerationFailed, errors.New("500 from upstream")), "An error occurred while generating the love letter"},
		{"unknown error", errors.New("boom"), "An error occurred while generating the love letter"},
		{"too long", ErrDescriptionTooLong, "description is too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
