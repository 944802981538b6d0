package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/interview-teleprompter-go/internal/constants"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

type Config struct {
	Server   ServerConfig
	Profile  ProfileConfig
	Capture  CaptureConfig
	STT      STTConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Logging  LoggingConfig
	Control  ControlConfig
}

type ServerConfig struct {
	Host string
	Port int
	// PublicHost overrides the LAN address encoded in the pairing QR code.
	PublicHost     string
	AllowedOrigins []string
	Debug          bool
}

type ProfileConfig struct {
	Name string
	// File, when set, is a YAML profile loaded instead of the built-in Name.
	File string
}

type CaptureConfig struct {
	Enabled         bool
	AutoStart       bool
	ListenTimeout   time.Duration
	PhraseTimeLimit time.Duration
	SilenceRMS      float64
}

type STTConfig struct {
	Language       string
	EnableFallback bool
	OpenAI         OpenAIConfig
	Gemini         GeminiConfig
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type LoggingConfig struct {
	Level string
	File  string
}

type ControlConfig struct {
	SocketPath string
}

// Load reads .env from the working directory (when present) and the environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit env file. A missing default .env is not an
// error; a missing explicit file is.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvInt("SERVER_PORT", 8000),
			PublicHost:     getEnv("SERVER_PUBLIC_HOST", ""),
			AllowedOrigins: parseCommaSeparated(getEnv("SERVER_ALLOWED_ORIGINS", "*")),
			Debug:          getEnvBool("SERVER_DEBUG", false),
		},
		Profile: ProfileConfig{
			Name: strings.ToLower(getEnv("TELEPROMPTER_PROFILE", profile.DefaultName)),
			File: getEnv("TELEPROMPTER_PROFILE_FILE", ""),
		},
		Capture: CaptureConfig{
			Enabled:         getEnvBool("CAPTURE_ENABLED", true),
			AutoStart:       getEnvBool("CAPTURE_AUTO_START", false),
			ListenTimeout:   getEnvDuration("CAPTURE_LISTEN_TIMEOUT", constants.CaptureConfig.ListenTimeout),
			PhraseTimeLimit: getEnvDuration("CAPTURE_PHRASE_LIMIT", constants.CaptureConfig.PhraseTimeLimit),
			SilenceRMS:      getEnvFloat("CAPTURE_SILENCE_RMS", constants.CaptureConfig.SilenceRMS),
		},
		STT: STTConfig{
			Language:       getEnv("STT_LANGUAGE", constants.STTConfig.Language),
			EnableFallback: getEnvBool("STT_ENABLE_FALLBACK", true),
			OpenAI: OpenAIConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				Model:   getEnv("OPENAI_STT_MODEL", constants.STTConfig.DefaultOpenAIModel),
				BaseURL: getEnv("OPENAI_BASE_URL", ""),
			},
			Gemini: GeminiConfig{
				APIKey: getEnv("GEMINI_API_KEY", ""),
				Model:  getEnv("GEMINI_STT_MODEL", constants.STTConfig.DefaultGeminiModel),
			},
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Enabled:  getEnvBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "teleprompter"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "teleprompter"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Control: ControlConfig{
			SocketPath: getEnv("CONTROL_SOCKET", "/tmp/teleprompter.sock"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Profile.File != "" {
		if _, err := os.Stat(c.Profile.File); err != nil {
			return fmt.Errorf("TELEPROMPTER_PROFILE_FILE: %w", err)
		}
	} else if !util.Contains(profile.Names(), c.Profile.Name) {
		return fmt.Errorf("TELEPROMPTER_PROFILE must be one of %s, got %q", strings.Join(profile.Names(), ", "), c.Profile.Name)
	}
	if c.Capture.ListenTimeout <= 0 {
		return fmt.Errorf("CAPTURE_LISTEN_TIMEOUT must be positive")
	}
	if c.Capture.PhraseTimeLimit <= 0 {
		return fmt.Errorf("CAPTURE_PHRASE_LIMIT must be positive")
	}
	if c.Capture.Enabled && c.STT.OpenAI.APIKey == "" && c.STT.Gemini.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY or GEMINI_API_KEY is required when capture is enabled")
	}
	if c.Control.SocketPath == "" {
		return fmt.Errorf("CONTROL_SOCKET is required")
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("1500ms") or bare seconds ("2").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
