// Package letter implements the love letter generation flow: validate the
// description, ask the configured text generator, and report either the letter
// or one of a small set of user-facing errors.
package letter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"loveletter/internal/cache"
	"loveletter/internal/llm"
)

var (
	// ErrEmptyDescription means there is nothing to send; no request is made.
	ErrEmptyDescription = errors.New("description is required")
	// ErrDescriptionTooLong rejects descriptions over the configured rune limit.
	ErrDescriptionTooLong = errors.New("description is too long")
	// ErrAPIKeyMissing is returned when no generator is configured.
	ErrAPIKeyMissing = errors.New("API key not configured. Please add your Gemini API key to continue.")
	// ErrGenerationFailed wraps every upstream failure.
	ErrGenerationFailed = errors.New("An error occurred while generating the love letter")
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxRunes = 2000
)

// Options tune a Service. Zero values fall back to defaults.
type Options struct {
	Model    string
	Timeout  time.Duration
	MaxRunes int
	CacheTTL time.Duration
}

// Service generates letters through an llm.Client, optionally memoized in a cache.
type Service struct {
	llm   llm.Client
	cache cache.Cache
	log   *slog.Logger
	opts  Options
}

// NewService wires a Service. client may be nil when no API key is configured;
// Generate then reports ErrAPIKeyMissing. A nil cache disables caching.
func NewService(client llm.Client, c cache.Cache, log *slog.Logger, opts Options) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRunes <= 0 {
		opts.MaxRunes = defaultMaxRunes
	}
	return &Service{llm: client, cache: c, log: log, opts: opts}
}

// Generate returns a love letter for description.
func (s *Service) Generate(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrEmptyDescription
	}
	if utf8.RuneCountInString(description) > s.opts.MaxRunes {
		return "", ErrDescriptionTooLong
	}
	if s.llm == nil {
		return "", ErrAPIKeyMissing
	}

	key := cache.Key(s.opts.Model, description)
	if cached, err := s.cache.GetLetter(ctx, key); err != nil {
		s.log.Warn("letter cache lookup failed", "err", err)
	} else if cached != nil && cached.Text != "" {
		s.log.Debug("letter cache hit")
		return cached.Text, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	text, err := s.llm.Generate(reqCtx, BuildPrompt(description))
	if err != nil {
		s.log.Error("letter generation failed", "err", err, "duration_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.log.Error("letter generation returned no text")
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, llm.ErrEmptyResponse)
	}
	s.log.Info("letter generated", "duration_ms", time.Since(start).Milliseconds(), "chars", len(text))

	if s.opts.CacheTTL > 0 {
		entry := &cache.Letter{Text: text, Model: s.opts.Model, GeneratedAt: time.Now().UTC()}
		if err := s.cache.SetLetter(ctx, key, entry, s.opts.CacheTTL); err != nil {
			s.log.Warn("letter cache store failed", "err", err)
		}
	}
	return text, nil
}

// UserMessage maps a Generate error onto the text shown inline to the user.
// Upstream detail never reaches the page; it is logged by Generate.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, sentinel := range []error{ErrEmptyDescription, ErrDescriptionTooLong, ErrAPIKeyMissing} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ErrGenerationFailed.Error()
}
