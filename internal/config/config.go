package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name    string `envconfig:"APP_NAME" default:"Back office"`
		Port    int    `envconfig:"PORT" default:"8080"`
		BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"backoffice"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"text"`
		File   string `envconfig:"LOG_FILE"`
	}

	Auth struct {
		JWTSecret        string        `envconfig:"JWT_SECRET" required:"true"`
		JWTTTL           time.Duration `envconfig:"JWT_TTL" default:"12h"`
		ResetTokenTTL    time.Duration `envconfig:"RESET_TOKEN_TTL" default:"1h"`
		LockoutThreshold int           `envconfig:"LOCKOUT_THRESHOLD" default:"5"`
		LockoutWindow    time.Duration `envconfig:"LOCKOUT_WINDOW" default:"15m"`
	}

	Redis struct {
		// URL is optional; lockout state stays in memory without it.
		URL string `envconfig:"REDIS_URL"`
	}

	PDF struct {
		ChromiumPath string        `envconfig:"CHROMIUM_PATH"`
		Timeout      time.Duration `envconfig:"PDF_TIMEOUT" default:"30s"`
	}

	Sales struct {
		ConversionMode string `envconfig:"CONVERSION_MODE" default:"shared"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
