package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Shipped defaults that must not survive into a real deployment.
const (
	DefaultJWTSecret     = "change-me"
	DefaultAdminPassword = "admin"
)

// Config is the process configuration. Engine settings (tax rate, numbering,
// thresholds) live in the settings table, not here.
type Config struct {
	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath   string `env:"DB_PATH" envDefault:"billing.db"`
	DBDSN    string `env:"DB_DSN"`
	SQLLog   bool   `env:"SQL_LOG" envDefault:"false"`

	HTTPAddr    string   `env:"HTTP_ADDR" envDefault:":8080"`
	BaseURL     string   `env:"BASE_URL" envDefault:"http://localhost:8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	JWTSecret         string        `env:"JWT_SECRET" envDefault:"change-me"`
	JWTTTL            time.Duration `env:"JWT_TTL" envDefault:"24h"`
	AdminUsername     string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword     string        `env:"ADMIN_PASSWORD" envDefault:"admin"`
	AllowRegistration bool          `env:"ALLOW_REGISTRATION" envDefault:"false"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash-001"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file and decodes the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Warnings lists insecure defaults still in effect. Callers log them at
// startup.
func (c *Config) Warnings() []string {
	var out []string
	if c.JWTSecret == DefaultJWTSecret {
		out = append(out, "JWT_SECRET is the built-in default; tokens can be forged by anyone who knows it")
	}
	if c.AdminPassword == DefaultAdminPassword {
		out = append(out, "ADMIN_PASSWORD is the built-in default; change it before exposing the server")
	}
	return out
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case "mysql":
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required for the mysql driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}
