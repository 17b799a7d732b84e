// Package config reads agent settings from the environment. Credentials are only
// checked where they are used, so a missing key never stops the process.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/dbconfig"
	"github.com/mcdev12/mailagent/go/internal/mailerr"
)

const (
	DefaultModelName = "gemini-2.5-flash"
	DefaultSMTPHost  = "smtp.gmail.com"
	DefaultSMTPPort  = 587
)

// LLMConfig holds language-model settings.
type LLMConfig struct {
	APIKey    string
	ModelName string
	UseMock   bool
}

// SMTPConfig holds mail relay settings. Email doubles as the login identity and the From address.
type SMTPConfig struct {
	Host     string
	Port     int
	Email    string
	Password string
}

// Config is the full set of process settings.
type Config struct {
	LLM          LLMConfig
	SMTP         SMTPConfig
	Port         string
	LogLevel     string
	StyleConfig  string
	NATSURL      string
	Database     dbconfig.Config
	DeliveryMode string
}

// LoadDotEnv loads a .env file if one exists. A missing file is only logged.
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}
}

// NewFromEnv reads every setting from the environment, applying defaults. It never fails.
func NewFromEnv() Config {
	return Config{
		LLM: LLMConfig{
			APIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			ModelName: strings.TrimSpace(getEnv("GEMINI_MODEL_NAME", DefaultModelName)),
			UseMock:   os.Getenv("AGENT_USE_MOCK_LLM") == "1",
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", DefaultSMTPHost),
			Port:     getEnvAsInt("SMTP_PORT", DefaultSMTPPort),
			Email:    strings.TrimSpace(os.Getenv("SMTP_EMAIL")),
			Password: strings.TrimSpace(os.Getenv("SMTP_PASSWORD")),
		},
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StyleConfig:  os.Getenv("STYLE_CONFIG"),
		NATSURL:      os.Getenv("NATS_URL"),
		Database:     dbconfig.NewConfigFromEnv(),
		DeliveryMode: getEnv("DELIVERY_MODE", "smtp"),
	}
}

// Validate reports a config error when no API key is set.
func (c LLMConfig) Validate() error {
	if c.APIKey == "" {
		return mailerr.New(mailerr.KindConfig, "llm", "GEMINI_API_KEY is missing. Put it in a .env file.")
	}
	return nil
}

// Configured reports whether generation is available.
func (c LLMConfig) Configured() bool {
	return c.APIKey != ""
}

// Validate reports a config error when the sender identity or secret is missing.
func (c SMTPConfig) Validate() error {
	if c.Email == "" || c.Password == "" {
		return mailerr.New(mailerr.KindConfig, "smtp", "SMTP credentials missing. Set SMTP_EMAIL and SMTP_PASSWORD in .env.")
	}
	return nil
}

// Configured reports whether delivery is available.
func (c SMTPConfig) Configured() bool {
	return c.Email != "" && c.Password != ""
}

// Addr returns host:port of the relay.
func (c SMTPConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-numeric value")
	}
	return fallback
}
