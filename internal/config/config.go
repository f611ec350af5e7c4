package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string
	Environment    string

	// Webhook authentication. At least one of the two secrets must be set
	// unless AllowUnsignedWebhooks is enabled (development only).
	WebhookSigningSecret  string
	WebhookAPIKey         string
	AllowUnsignedWebhooks bool

	// Platform identity used for system-alias redirection.
	PlatformDomain string
	OperatorEmail  string
	AliasRulesPath string

	MaxPayloadBytes    int64
	RateLimitPerMinute int
	SelfHealAccounts   bool

	// Collaborator endpoints. Empty URL disables the integration.
	RelayAPIURL      string
	RelayAPIKey      string
	PaymentAPIURL    string
	PaymentAPIKey    string
	NotifyAPIURL     string
	NotifyAPIKey     string
	ClassifierAPIURL string
	ClassifierAPIKey string
	AvatarAPIURL     string

	EffectTimeoutSeconds int
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		HTTPListenAddr: getEnv("HTTP_LISTEN_ADDR", ":8085"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ServiceName:    getEnv("SERVICE_NAME", "ingest-api"),
		Environment:    getEnv("ENVIRONMENT", "development"),

		WebhookSigningSecret:  getEnv("WEBHOOK_SIGNING_SECRET", ""),
		WebhookAPIKey:         getEnv("WEBHOOK_API_KEY", ""),
		AllowUnsignedWebhooks: getEnvBool("ALLOW_UNSIGNED_WEBHOOKS", false),

		PlatformDomain: getEnv("PLATFORM_DOMAIN", "zenbox.email"),
		OperatorEmail:  getEnv("OPERATOR_EMAIL", "concierge@zenbox.email"),
		AliasRulesPath: getEnv("ALIAS_RULES_PATH", ""),

		MaxPayloadBytes:    getEnvInt64("MAX_PAYLOAD_BYTES", 25*1024*1024),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		SelfHealAccounts:   getEnvBool("SELF_HEAL_ACCOUNTS", true),

		RelayAPIURL:      getEnv("RELAY_API_URL", ""),
		RelayAPIKey:      getEnv("RELAY_API_KEY", ""),
		PaymentAPIURL:    getEnv("PAYMENT_API_URL", ""),
		PaymentAPIKey:    getEnv("PAYMENT_API_KEY", ""),
		NotifyAPIURL:     getEnv("NOTIFY_API_URL", ""),
		NotifyAPIKey:     getEnv("NOTIFY_API_KEY", ""),
		ClassifierAPIURL: getEnv("CLASSIFIER_API_URL", ""),
		ClassifierAPIKey: getEnv("CLASSIFIER_API_KEY", ""),
		AvatarAPIURL:     getEnv("AVATAR_API_URL", ""),

		EffectTimeoutSeconds: getEnvInt("EFFECT_TIMEOUT_SECONDS", 5),
	}

	return cfg, nil
}

// Validate checks that the fields required by the given service are set.
func (c *Config) Validate(service string) error {
	var missing []string

	switch service {
	case "ingest-api":
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if c.HTTPListenAddr == "" {
			missing = append(missing, "HTTP_LISTEN_ADDR")
		}
		if c.WebhookSigningSecret == "" && c.WebhookAPIKey == "" && !c.AllowUnsignedWebhooks {
			missing = append(missing, "WEBHOOK_SIGNING_SECRET or WEBHOOK_API_KEY")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.AllowUnsignedWebhooks && c.Environment == "production" {
		return fmt.Errorf("ALLOW_UNSIGNED_WEBHOOKS must not be set in production")
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.MaxPayloadBytes <= 0 {
		return fmt.Errorf("MAX_PAYLOAD_BYTES must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
