package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the web site and the notifier.
type Config struct {
	// Server
	Port       int    `env:"PORT" envDefault:"8080"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8081"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "text"

	// Site content
	SupportURL   string `env:"SUPPORT_URL" envDefault:"https://roihacks.gumroad.com/coffee"`
	ContactEmail string `env:"CONTACT_EMAIL" envDefault:"contact@ailovelettergenerator.com"`
	SocialHandle string `env:"SOCIAL_HANDLE" envDefault:"@AILoveLetterGen"`

	// LLM
	LLMProvider     string        `env:"LLM_PROVIDER" envDefault:"gemini"` // "gemini", "openai", "anthropic" or "stub"
	GeminiKey       string        `env:"GEMINI_API_KEY"`
	OpenAIKey       string        `env:"OPENAI_API_KEY"`
	AnthropicKey    string        `env:"ANTHROPIC_API_KEY"`
	LLMModel        string        `env:"LLM_MODEL" envDefault:"gemini-1.5-flash"`
	GenerateTimeout time.Duration `env:"GENERATE_TIMEOUT" envDefault:"30s"`
	MaxDescription  int           `env:"MAX_DESCRIPTION_RUNES" envDefault:"2000"`

	// Cache & rate limiting (both Redis backed)
	CacheProvider   string        `env:"CACHE_PROVIDER" envDefault:"none"` // "none" or "redis"
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"24h"`
	RateLimit       int           `env:"RATE_LIMIT" envDefault:"0"` // requests per window per client IP, 0 disables
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	TrustedProxies  []string      `env:"TRUSTED_PROXIES" envSeparator:","` // CIDRs or IPs whose X-Forwarded-For is believed

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"none"` // "none" or "postgres"
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"none"` // "none" or "nats"
	QueueURL      string `env:"QUEUE_URL"`
}

// APIKey returns the key for the configured LLM provider.
func (c Config) APIKey() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIKey
	case "anthropic":
		return c.AnthropicKey
	default:
		return c.GeminiKey
	}
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
