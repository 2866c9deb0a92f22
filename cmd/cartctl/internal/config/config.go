package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location, relative to the working directory.
const ConfigPath = "cartctl.yaml"

const (
	StorageFile  = "file"
	StorageRedis = "redis"

	defaultBackendURL  = "http://localhost:8086"
	defaultLogLevel    = "warn"
	defaultRedisPrefix = "solecart:cartctl"
	defaultHTTPTimeout = 10 * time.Second
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	BackendURL    string `yaml:"backendURL" validate:"required,http_url"`
	LogLevel      string `yaml:"logLevel" validate:"omitempty,oneof=debug info warn warning error"`
	Storage       string `yaml:"storage" validate:"required,oneof=file redis"`
	DataFile      string `yaml:"dataFile" validate:"required_if=Storage file"`
	RedisAddr     string `yaml:"redisAddr" validate:"required_if=Storage redis,omitempty,hostname_port"`
	RedisPassword string `yaml:"redisPassword"`
	RedisPrefix   string `yaml:"redisPrefix"`
	HTTPTimeout   string `yaml:"httpTimeout"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() FileConfig {
	return FileConfig{
		BackendURL:  defaultBackendURL,
		LogLevel:    defaultLogLevel,
		Storage:     StorageFile,
		DataFile:    defaultDataFile(),
		RedisPrefix: defaultRedisPrefix,
		HTTPTimeout: defaultHTTPTimeout.String(),
	}
}

// Load reads config from path on top of Defaults. A missing file is not an error.
func Load(path string) (FileConfig, error) {
	cfg := Defaults()
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	// Override with environment variables
	if v := os.Getenv("CARTCTL_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("CARTCTL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CARTCTL_STORAGE"); v != "" {
		cfg.Storage = v
	}
	if v := os.Getenv("CARTCTL_DATA_FILE"); v != "" {
		cfg.DataFile = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the timeout format.
func Validate(cfg FileConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q validation (value %q)", yamlName(fe.StructField()), fe.Tag(), fmt.Sprint(fe.Value()))
		}
		return fmt.Errorf("config: %w", err)
	}
	if _, err := cfg.Timeout(); err != nil {
		return err
	}
	return nil
}

// Timeout parses httpTimeout. Empty means the default.
func (c FileConfig) Timeout() (time.Duration, error) {
	if strings.TrimSpace(c.HTTPTimeout) == "" {
		return defaultHTTPTimeout, nil
	}
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil {
		return 0, fmt.Errorf("config: invalid httpTimeout: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("config: httpTimeout must be positive")
	}
	return d, nil
}

func yamlName(field string) string {
	if field == "" {
		return field
	}
	name := strings.ToLower(field[:1]) + field[1:]
	switch field {
	case "BackendURL":
		return "backendURL"
	case "HTTPTimeout":
		return "httpTimeout"
	}
	return name
}

func defaultDataFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".solecart", "cart.json")
	}
	return filepath.Join(home, ".solecart", "cart.json")
}
