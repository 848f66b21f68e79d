package llm

import (
	"context"
	"fmt"
)

// StubClient returns a canned letter. It lets the site run locally without a key.
type StubClient struct{}

func (StubClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("My dearest,\n\nEvery word here was written for you (%d characters of context).\n\nForever yours", len(prompt)), nil
}
