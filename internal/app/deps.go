package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"loveletter/internal/cache"
	"loveletter/internal/config"
	"loveletter/internal/contact"
	"loveletter/internal/httputil"
	"loveletter/internal/letter"
	"loveletter/internal/llm"
	"loveletter/internal/logger"
	"loveletter/internal/queue"
	"loveletter/internal/ratelimit"
	"loveletter/internal/store"
)

// Deps bundles common runtime dependencies for the binaries. The notifier only
// gets Store and Queue; see BuildNotifier.
type Deps struct {
	Config         config.Config
	Log            *slog.Logger
	Store          store.Store
	Queue          queue.Queue
	Cache          cache.Cache
	Limiter        ratelimit.Limiter
	TrustedProxies *httputil.TrustedProxies
	Letters        *letter.Service
	Contacts       *contact.Service

	closers []func() error
}

// Close releases connections opened by Build.
func (d Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build loads env, config, and everything the web binary serves.
func Build(ctx context.Context) (Deps, error) {
	cfg, log, err := load()
	if err != nil {
		return Deps{}, err
	}
	return BuildWith(ctx, cfg, log)
}

// BuildNotifier loads env and config and builds only what the notifier consumes.
func BuildNotifier(ctx context.Context) (Deps, error) {
	cfg, log, err := load()
	if err != nil {
		return Deps{}, err
	}
	return BuildNotifierWith(ctx, cfg, log)
}

func load() (config.Config, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel, cfg.LogFormat), nil
}

// BuildNotifierWith assembles the store and queue only. The LLM client, letter
// cache and rate limiter are left unset.
func BuildNotifierWith(_ context.Context, cfg config.Config, log *slog.Logger) (Deps, error) {
	deps := Deps{Config: cfg, Log: log}
	if err := deps.buildMessaging(cfg, log); err != nil {
		return Deps{}, err
	}
	return deps, nil
}

// BuildWith assembles dependencies from an already loaded config.
func BuildWith(ctx context.Context, cfg config.Config, log *slog.Logger) (Deps, error) {
	deps := Deps{Config: cfg, Log: log}

	trusted, err := httputil.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return Deps{}, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	deps.TrustedProxies = trusted

	if err := deps.buildMessaging(cfg, log); err != nil {
		return Deps{}, err
	}
	st, q := deps.Store, deps.Queue

	c := buildCache(cfg, log)
	deps.Cache = c
	deps.closers = append(deps.closers, c.Close)

	limiter, err := buildLimiter(cfg, log)
	if err != nil {
		_ = deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	if limiter != nil {
		deps.Limiter = limiter
		deps.closers = append(deps.closers, limiter.Close)
	}

	client, err := buildLLM(ctx, cfg, log)
	if err != nil {
		_ = deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	deps.Letters = letter.NewService(client, c, log, letter.Options{
		Model:    cfg.LLMModel,
		Timeout:  cfg.GenerateTimeout,
		MaxRunes: cfg.MaxDescription,
		CacheTTL: cfg.CacheTTL,
	})
	deps.Contacts = contact.NewService(st, q, log)
	return deps, nil
}

// buildMessaging sets Store and Queue, closing what it opened on failure.
func (d *Deps) buildMessaging(cfg config.Config, log *slog.Logger) error {
	st, err := buildStore(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	d.Store = st
	d.closers = append(d.closers, st.Close)

	q, closeQueue, err := buildQueue(cfg, log)
	if err != nil {
		_ = d.Close()
		return fmt.Errorf("failed to initialize queue: %w", err)
	}
	d.Queue = q
	d.closers = append(d.closers, closeQueue)
	return nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "none", "":
		log.Info("contact store disabled; submissions are acknowledged and dropped")
		return store.NewNoOp(), nil
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: none, postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, func() error, error) {
	switch cfg.QueueProvider {
	case "none", "":
		log.Info("queue disabled; contact notifications are dropped")
		return queue.NewNoOp(log), func() error { return nil }, nil
	case "nats":
		if cfg.QueueURL == "" {
			return nil, nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL, nats.Name("loveletter"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nc.Drain, nil
	default:
		return nil, nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid options: none, nats)", cfg.QueueProvider)
	}
}

// buildCache falls back to the no-op cache when Redis is unreachable; caching is an optimization.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis cache unavailable; continuing without cache", "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis letter cache", "ttl", cfg.CacheTTL)
		return c
	case "none", "":
		return cache.NewNoOpCache()
	default:
		log.Warn("unknown CACHE_PROVIDER; continuing without cache", "provider", cfg.CacheProvider)
		return cache.NewNoOpCache()
	}
}

func buildLimiter(cfg config.Config, log *slog.Logger) (*ratelimit.FixedWindowLimiter, error) {
	if cfg.RateLimit <= 0 {
		return nil, nil
	}
	l, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "loveletter:ratelimit", cfg.RateLimit, cfg.RateLimitWindow)
	if err != nil {
		return nil, err
	}
	log.Info("rate limiting letter generation", "limit", cfg.RateLimit, "window", cfg.RateLimitWindow)
	return l, nil
}

// buildLLM returns a nil client when the provider's API key is missing. The site
// still starts and generation reports letter.ErrAPIKeyMissing.
func buildLLM(ctx context.Context, cfg config.Config, log *slog.Logger) (llm.Client, error) {
	if cfg.LLMProvider != "stub" && cfg.APIKey() == "" {
		switch cfg.LLMProvider {
		case "gemini", "openai", "anthropic":
		default:
			return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: gemini, openai, anthropic, stub)", cfg.LLMProvider)
		}
		log.Warn("LLM API key not configured; letter generation disabled", "provider", cfg.LLMProvider)
		return nil, nil
	}

	model := cfg.LLMModel
	if cfg.LLMProvider != "gemini" && model == llm.DefaultGeminiModel {
		// LLM_MODEL left at its default; let the provider pick its own.
		model = ""
	}

	switch cfg.LLMProvider {
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiKey, model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		log.Info("using Gemini LLM client", "model", cfg.LLMModel)
		return client, nil
	case "openai":
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(model))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", model)
		return client, nil
	case "anthropic":
		client, err := llm.NewAnthropicClient(cfg.AnthropicKey, model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Anthropic client: %w", err)
		}
		log.Info("using Anthropic LLM client", "model", model)
		return client, nil
	case "stub":
		log.Warn("using stub LLM client; letters are canned")
		return llm.StubClient{}, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: gemini, openai, anthropic, stub)", cfg.LLMProvider)
	}
}
