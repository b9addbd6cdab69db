package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the bot
type Config struct {
	Telegram  TelegramConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Logging   LoggingConfig
	Downloads DownloadsConfig
	Platforms PlatformsConfig
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken    string
	BotUsername string
}

// DatabaseConfig holds statistics database configuration
type DatabaseConfig struct {
	Path string
}

// KafkaConfig holds Kafka event stream configuration.
// The event stream is optional; when disabled, download events
// are only persisted to the local statistics database.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// DownloadsConfig holds download orchestration settings
type DownloadsConfig struct {
	MaxPerUser      int         `yaml:"max_per_user"`
	PrivilegedIDs   []int64     `yaml:"privileged_ids"`
	SearchResults   int         `yaml:"search_results"`
	FallbackHeights []int       `yaml:"fallback_heights"`
	GalleryTimeout  int         `yaml:"gallery_timeout_seconds"`
	Audio           AudioConfig `yaml:"audio"`
}

// AudioConfig holds audio extraction presets
type AudioConfig struct {
	Format    string            `yaml:"format"`
	Bitrate   string            `yaml:"bitrate"`
	Qualities map[string]string `yaml:"qualities"`
}

// PlatformConfig holds per-platform retry policy and error messaging
type PlatformConfig struct {
	RetryAttempts int     `yaml:"retry_attempts"`
	BackoffBase   float64 `yaml:"backoff_base"`
	ErrorMessage  string  `yaml:"error_message"`
}

// PlatformsConfig holds retry configuration for every supported platform
type PlatformsConfig struct {
	YouTube   PlatformConfig `yaml:"youtube"`
	TikTok    PlatformConfig `yaml:"tiktok"`
	Instagram PlatformConfig `yaml:"instagram"`
}

// ByName returns the platform config for a platform name, defaulting to YouTube
func (p *PlatformsConfig) ByName(name string) PlatformConfig {
	switch name {
	case "tiktok":
		return p.TikTok
	case "instagram":
		return p.Instagram
	default:
		return p.YouTube
	}
}

// presetsFile mirrors the structure of config.yaml
type presetsFile struct {
	Downloads DownloadsConfig `yaml:"downloads"`
	Platforms PlatformsConfig `yaml:"platforms"`
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config    *Config
	Telegram  *TelegramConfig
	Database  *DatabaseConfig
	Kafka     *KafkaConfig
	Logging   *LoggingConfig
	Downloads *DownloadsConfig
	Platforms *PlatformsConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:    cfg,
		Telegram:  &cfg.Telegram,
		Database:  &cfg.Database,
		Kafka:     &cfg.Kafka,
		Logging:   &cfg.Logging,
		Downloads: &cfg.Downloads,
		Platforms: &cfg.Platforms,
	}, nil
}

// Load loads configuration from environment variables and the optional
// config.yaml presets file (path taken from CONFIG_PATH, default "config.yaml")
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			BotUsername: getEnv("TELEGRAM_BOT_USERNAME", ""),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "data/media_bot_stats.db"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9093"), ","),
			Topic:   getEnv("KAFKA_TOPIC", "downloads.events"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Downloads: defaultDownloads(),
		Platforms: defaultPlatforms(),
	}

	if err := cfg.applyPresets(getEnv("CONFIG_PATH", "config.yaml")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyPresets overlays values from the YAML presets file when it exists
func (c *Config) applyPresets(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	presets := presetsFile{
		Downloads: c.Downloads,
		Platforms: c.Platforms,
	}
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.Downloads = presets.Downloads
	c.Platforms = presets.Platforms
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.Downloads.MaxPerUser < 1 {
		return fmt.Errorf("downloads.max_per_user must be at least 1")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when Kafka is enabled")
	}

	return nil
}

func defaultDownloads() DownloadsConfig {
	return DownloadsConfig{
		MaxPerUser:      1,
		SearchResults:   5,
		FallbackHeights: []int{1080, 720, 480, 360, 240},
		GalleryTimeout:  120,
		Audio: AudioConfig{
			Format:  "mp3",
			Bitrate: "192",
			Qualities: map[string]string{
				"high":   "bestaudio/best",
				"medium": "bestaudio[abr<=128]/bestaudio/best",
				"low":    "bestaudio[abr<=96]/bestaudio/best",
			},
		},
	}
}

func defaultPlatforms() PlatformsConfig {
	return PlatformsConfig{
		YouTube: PlatformConfig{
			RetryAttempts: 1,
			BackoffBase:   2,
			ErrorMessage:  "Не удалось загрузить контент с YouTube. Попробуйте позже",
		},
		TikTok: PlatformConfig{
			RetryAttempts: 3,
			BackoffBase:   2,
			ErrorMessage:  "Не удалось загрузить видео из TikTok. Попробуйте позже",
		},
		Instagram: PlatformConfig{
			RetryAttempts: 3,
			BackoffBase:   2,
			ErrorMessage:  "Не удалось загрузить контент из Instagram. Попробуйте позже",
		},
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool gets boolean environment variable with default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
