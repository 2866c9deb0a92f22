package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"solecart/pkg/domain"
)

// ConfigPath is the default config location, relative to the working directory.
const ConfigPath = "config.yaml"

const (
	CartStoreMemory   = "memory"
	CartStoreRedis    = "redis"
	CartStorePostgres = "postgres"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                   string           `yaml:"port"`
	LogLevel               string           `yaml:"logLevel"`
	JWTSecret              string           `yaml:"jwtSecret"`
	JWTIssuer              string           `yaml:"jwtIssuer"`
	JWTAudience            string           `yaml:"jwtAudience"`
	JWTLeeway              string           `yaml:"jwtLeeway"`
	CartStore              string           `yaml:"cartStore"`
	RedisAddr              string           `yaml:"redisAddr"`
	RedisPassword          string           `yaml:"redisPassword"`
	DatabaseURL            string           `yaml:"databaseURL"`
	CartRateLimitPerMinute int              `yaml:"cartRateLimitPerMinute"`
	TrustedProxies         []string         `yaml:"trustedProxies"`
	CORSAllowedOrigins     []string         `yaml:"corsAllowedOrigins"`
	Products               []domain.Product `yaml:"products"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("CART_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("CART_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWTIssuer = v
	}
	if v := os.Getenv("JWT_AUDIENCE"); v != "" {
		cfg.JWTAudience = v
	}
	if v := os.Getenv("CART_STORE"); v != "" {
		cfg.CartStore = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("CART_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CartRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("CART_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
	if v := os.Getenv("CART_CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitCSV(v)
	}
	cfg.CartStore = strings.ToLower(strings.TrimSpace(cfg.CartStore))
	if cfg.CartStore == "" {
		cfg.CartStore = CartStoreMemory
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or CART_PORT)")
	}
	if len(cfg.JWTSecret) < 16 {
		return errors.New("config: jwtSecret must be at least 16 bytes (set in config.yaml or JWT_SECRET)")
	}
	if _, err := ParseJWTLeeway(cfg.JWTLeeway); err != nil {
		return err
	}
	switch cfg.CartStore {
	case CartStoreMemory:
	case CartStoreRedis:
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required when cartStore is redis")
		}
	case CartStorePostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("config: databaseURL is required when cartStore is postgres")
		}
	default:
		return fmt.Errorf("config: unsupported cartStore %q (memory, redis or postgres)", cfg.CartStore)
	}
	if cfg.CartRateLimitPerMinute < 0 {
		return errors.New("config: cartRateLimitPerMinute must not be negative")
	}
	if cfg.CartRateLimitPerMinute > 0 && cfg.RedisAddr == "" {
		return errors.New("config: cartRateLimitPerMinute requires redisAddr")
	}
	seen := make(map[string]struct{}, len(cfg.Products))
	for i, p := range cfg.Products {
		id, ok := p.ResolveID()
		if !ok {
			return fmt.Errorf("config: products[%d] has no productId", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("config: duplicate product %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ParseJWTLeeway parses the optional jwtLeeway duration. Empty means default.
func ParseJWTLeeway(leewayStr string) (time.Duration, error) {
	if leewayStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(leewayStr)
	if err != nil {
		return 0, fmt.Errorf("invalid jwtLeeway duration: %w", err)
	}
	return dur, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
