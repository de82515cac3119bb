package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Backend Backend `mapstructure:"backend" validate:"required"`
	Audio   Audio   `mapstructure:"audio" validate:"required"`
	Chat    Chat    `mapstructure:"chat"`
	History History `mapstructure:"history"`
	Logging Logging `mapstructure:"logging"`
}

// Backend configures the Agriculture Helper API endpoint. Timeouts are
// fixed configuration, not runtime-negotiated; the voice endpoint is
// allowed materially longer because transcription is slower than simple
// queries.
type Backend struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	VoiceTimeout   time.Duration `mapstructure:"voice_timeout" validate:"gt=0"`
}

type Audio struct {
	SampleRate    int           `mapstructure:"sample_rate" validate:"gt=0"`
	Channels      int           `mapstructure:"channels" validate:"eq=1"`
	ChunkInterval time.Duration `mapstructure:"chunk_interval" validate:"gt=0"`
	InputDevice   string        `mapstructure:"input_device"`
}

type Chat struct {
	Language string `mapstructure:"language" validate:"oneof=ja en"`
}

// History configures the optional local transcript store. Empty path
// disables persistence.
type History struct {
	Path string `mapstructure:"path"`
}

type Logging struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("AGRICHAT_CONFIG")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(configPath); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
		// Config file not found, use defaults and env vars
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks a configuration against its declared constraints. Load
// runs it automatically; callers that mutate the configuration afterwards,
// such as flag overrides, should run it again.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Backend
	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.request_timeout", "30s")
	v.SetDefault("backend.voice_timeout", "60s")

	// Audio capture: mono 16 kHz with 100ms chunk delivery
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.chunk_interval", "100ms")

	// Chat
	v.SetDefault("chat.language", "ja")

	// History store disabled unless a path is given
	v.SetDefault("history.path", "")

	// Logging
	v.SetDefault("logging.level", "info")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("backend.base_url", "AGRICHAT_BACKEND_URL")
	v.BindEnv("chat.language", "AGRICHAT_LANGUAGE")
	v.BindEnv("history.path", "AGRICHAT_HISTORY_PATH")
	v.BindEnv("logging.level", "AGRICHAT_LOG_LEVEL")
	v.BindEnv("logging.file", "AGRICHAT_LOG_FILE")
}
