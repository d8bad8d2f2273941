package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. All backends are optional:
// without a Postgres DSN the service runs on in-memory stores, and the Kafka
// and Redis relays are skipped when unconfigured.
type Server struct {
	Addr     string
	LogLevel string

	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	KafkaTopic   string

	// MintAuthority is the base58 identity permitted to initialize the mint
	// registry. Empty means the first signer to initialize becomes authority.
	MintAuthority string

	// FeedLimit caps the Redis recent-activity feed length.
	FeedLimit int

	// RelayInterval is how often the event relay drains the outbox.
	RelayInterval time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("VEILPAY_ADDR", ":8080"),
		LogLevel:      envOr("VEILPAY_LOG_LEVEL", "info"),
		PostgresDSN:   os.Getenv("VEILPAY_POSTGRES_DSN"),
		RedisURL:      os.Getenv("VEILPAY_REDIS_URL"),
		KafkaTopic:    envOr("VEILPAY_KAFKA_TOPIC", "veilpay.events"),
		MintAuthority: os.Getenv("VEILPAY_MINT_AUTHORITY"),
		FeedLimit:     100,
		RelayInterval: 2 * time.Second,
	}
	if brokers := os.Getenv("VEILPAY_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
