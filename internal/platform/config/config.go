package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr string

	// CartTokenKey signs the cart session token. The token pins a browser
	// session to its cart key; it does not authenticate a user.
	CartTokenKey string

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig

	// CouponValidatorURL, when set, routes coupon validation to the remote
	// promotions service instead of the in-process rule store.
	CouponValidatorURL string

	// DiscountTiersJSON is an inline tier table used when Postgres is not
	// configured. Empty means no tier discounts.
	DiscountTiersJSON string
}

// RedisConfig holds snapshot store connection settings. An empty URL means
// Redis is not configured and the engine degrades to in-memory snapshots.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds the DSN for the externally owned promotions tables
// (discount tiers, coupon rules). Empty means in-memory stores.
type PostgresConfig struct {
	URL string
}

// KafkaConfig holds the audit event broker settings. Empty brokers means
// audit events go to the in-memory sink.
type KafkaConfig struct {
	Brokers    string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("TROLLEY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	tokenKey := os.Getenv("CART_TOKEN_KEY")
	if tokenKey == "" {
		// Use a default for development - should be overridden in production
		tokenKey = "dev-secret-key-change-in-production"
	}

	auditTopic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "trolley.cart-events"
	}

	return Server{
		Addr:         addr,
		CartTokenKey: tokenKey,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:    os.Getenv("KAFKA_BROKERS"),
			AuditTopic: auditTopic,
		},
		CouponValidatorURL: os.Getenv("COUPON_VALIDATOR_URL"),
		DiscountTiersJSON:  os.Getenv("DISCOUNT_TIERS"),
	}
}

func envInt(key string, fallback int) int {
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

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
