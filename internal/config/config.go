package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type StorageType string

const (
	StorageTypeMemory StorageType = "memory"
	StorageTypeRedis  StorageType = "redis"
	StorageTypeSQLite StorageType = "sqlite"
)

// Bcrypt cost bounds, mirrored from golang.org/x/crypto/bcrypt.
const (
	minBcryptCost = 4
	maxBcryptCost = 31
)

// Config holds the configuration for quizdeck.
type Config struct {
	// LogLevel is the default log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// Storage holds the key-value storage configuration.
	Storage *StorageConfig `yaml:"storage" mapstructure:"storage"`
	// Quiz holds the quiz session configuration.
	Quiz *QuizConfig `yaml:"quiz" mapstructure:"quiz"`
	// Auth holds the authentication configuration.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// StorageConfig holds the configuration of the key-value store backend.
type StorageConfig struct {
	// Type is the backend to use (e.g., "memory", "redis", "sqlite").
	Type StorageType `yaml:"type" mapstructure:"type"`
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// RedisURL is the address of the redis server if using redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// Namespace is prepended to every storage key.
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

// QuizConfig holds the quiz session configuration.
type QuizConfig struct {
	// FeedbackDelay is how long the answer feedback stays visible before the next question.
	FeedbackDelay time.Duration `yaml:"feedback_delay" mapstructure:"feedback_delay"`
	// LeaderboardLimit is the default number of leaderboard entries.
	LeaderboardLimit int `yaml:"leaderboard_limit" mapstructure:"leaderboard_limit"`
}

// AuthConfig holds the authentication configuration.
type AuthConfig struct {
	// BcryptCost is the cost used when hashing passwords.
	BcryptCost int `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
	// MinPasswordLength is the minimum accepted password length on signup.
	MinPasswordLength int `yaml:"min_password_length" mapstructure:"min_password_length"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// A missing config file is not an error; defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("QUIZDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.quizdeck")
		v.AddConfigPath("/etc/quizdeck")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("No config file found, using defaults")
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	// Storage defaults
	v.SetDefault("storage.type", StorageTypeSQLite)
	v.SetDefault("storage.path", "./data/quizdeck.db")
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("storage.namespace", "")

	// Quiz defaults
	v.SetDefault("quiz.feedback_delay", "1500ms")
	v.SetDefault("quiz.leaderboard_limit", 10)

	// Auth defaults
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.min_password_length", 6)

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "robohash")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing quizdeck config")
	}

	if c.Storage == nil {
		return fmt.Errorf("missing storage config")
	}
	switch c.Storage.Type {
	case StorageTypeMemory:
	case StorageTypeSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required when sqlite storage is used")
		}
	case StorageTypeRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when redis storage is used") //nolint:staticcheck
		}
	case "":
		return fmt.Errorf("storage type is required")
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	if c.Quiz == nil {
		return fmt.Errorf("missing quiz config")
	}
	if c.Quiz.FeedbackDelay < 0 {
		return fmt.Errorf("quiz feedback delay must not be negative")
	}
	if c.Quiz.LeaderboardLimit <= 0 {
		return fmt.Errorf("leaderboard limit must be greater than 0")
	}

	if c.Auth == nil {
		return fmt.Errorf("missing auth config")
	}
	if c.Auth.BcryptCost < minBcryptCost || c.Auth.BcryptCost > maxBcryptCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", minBcryptCost, maxBcryptCost)
	}
	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("minimum password length must be at least 1")
	}

	if c.Gravatar != nil && c.Gravatar.Enabled {
		if c.Gravatar.Size < 1 || c.Gravatar.Size > 2048 {
			return fmt.Errorf("gravatar size must be between 1 and 2048")
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if c.Storage != nil {
		c.Storage.Type = StorageType(strings.ToLower(strings.TrimSpace(string(c.Storage.Type))))
		c.Storage.Path = strings.TrimSpace(c.Storage.Path)
		c.Storage.RedisURL = strings.TrimSpace(c.Storage.RedisURL)
		c.Storage.Namespace = strings.TrimSpace(c.Storage.Namespace)
	}
}
