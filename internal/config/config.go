package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Quiz    QuizConfig    `mapstructure:"quiz"`
	Credit  CreditConfig  `mapstructure:"credit"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	Mode        string `mapstructure:"mode"`
	FrontendURL string `mapstructure:"frontend_url"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

type SessionConfig struct {
	Name   string `mapstructure:"name"`
	Secret string `mapstructure:"secret"`
	MaxAge int    `mapstructure:"max_age"`
	Secure bool   `mapstructure:"secure"`
}

// GeminiConfig holds the model settings. APIKey is the hosting secret; when it
// is empty the caller must supply a key with each request.
type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type QuizConfig struct {
	Language string `mapstructure:"language"`
}

type CreditConfig struct {
	Welcome        float64 `mapstructure:"welcome"`
	UnitCost       float64 `mapstructure:"unit_cost"`
	WarnBelow      float64 `mapstructure:"warn_below"`
	ExhaustedBelow float64 `mapstructure:"exhausted_below"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
	File string `mapstructure:"file"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// LoadEnv loads a .env file when present. A missing file is not an error.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Println("WARN: .env file not found. Relying on system environment variables.")
			return
		}
		log.Printf("WARN: could not load .env file: %v", err)
		return
	}
	log.Println("INFO: .env file loaded")
}

// Load reads config.yaml from the given paths (optional), then environment
// variables, then defaults.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bind := map[string]string{
		"server.port":         "PORT",
		"server.mode":         "GIN_MODE",
		"server.frontend_url": "FRONTEND_URL",
		"session.secret":      "SESSION_SECRET",
		"gemini.api_key":      "GEMINI_API_KEY",
		"gemini.model":        "GEMINI_MODEL",
		"gemini.timeout":      "GEMINI_TIMEOUT",
		"quiz.language":       "QUIZ_LANGUAGE",
		"log.mode":            "LOG_MODE",
		"log.file":            "LOG_FILE",
		"tracing.enabled":     "OTEL_ENABLED",
	}
	for key, env := range bind {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if len(paths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.frontend_url", "http://localhost:5173")
	v.SetDefault("server.max_upload_mb", 32)

	v.SetDefault("session.name", "pdfquiz_session")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.max_age", 86400)
	v.SetDefault("session.secure", false)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.max_output_tokens", 2000)
	v.SetDefault("gemini.timeout", "120s")

	v.SetDefault("quiz.language", "Japanese")

	v.SetDefault("credit.welcome", 5.0)
	v.SetDefault("credit.unit_cost", 0.01)
	v.SetDefault("credit.warn_below", 1.0)
	v.SetDefault("credit.exhausted_below", 0.5)

	v.SetDefault("log.mode", "release")
	v.SetDefault("log.file", "logs/app.log")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "pdfquiz")
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("server.port must be set")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Gemini.Timeout <= 0 {
		return fmt.Errorf("gemini.timeout must be positive, got %s", c.Gemini.Timeout)
	}
	if c.Credit.UnitCost < 0 {
		return fmt.Errorf("credit.unit_cost must not be negative, got %v", c.Credit.UnitCost)
	}
	return nil
}

// MaxUploadBytes is the multipart memory limit for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
