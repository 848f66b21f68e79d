package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Client generates free text for a prompt. Providers are pluggable.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
