package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Configuration holds everything the process needs. All values come from env;
// a .env file is loaded first when present (dev convenience).
type Configuration struct {
	ApiPort   string `envconfig:"PORT" default:"8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Messaging gateway (WHAPI)
	WhapiToken  string `envconfig:"WHAPI_TOKEN" required:"true"`
	WebhookHost string `envconfig:"WEBHOOK_HOST" default:"localhost"`

	// OpenAI
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" required:"true"`
	Proxy        string `envconfig:"PROXY" default:""`

	// Bot
	AdminNumber int64  `envconfig:"ADMIN_NUMBER" required:"true"`
	Timezone    string `envconfig:"TIMEZONE" default:"UTC"`
	WorkDir     string `envconfig:"WORK_DIR" default:""`

	Database string `envconfig:"DATABASE" default:"sqlite3"` // "sqlite3" or "postgres"
	DbPath   string `envconfig:"DB_PATH" default:"db/database.db"`
	DbHost   string `envconfig:"DB_HOST" default:""`
	DbPort   string `envconfig:"DB_PORT" default:"5432"`
	DbUser   string `envconfig:"DB_USER" default:""`
	DbName   string `envconfig:"DB_NAME" default:""`
	DbPass   string `envconfig:"DB_PASS" default:""`
}

// Load reads the configuration from the environment. Absence of a required
// value is a fatal startup condition surfaced as an error here.
func Load() (Configuration, error) {
	_ = godotenv.Load()

	var c Configuration
	if err := envconfig.Process("", &c); err != nil {
		return Configuration{}, fmt.Errorf("parsing config: %w", err)
	}

	if c.WorkDir == "" {
		c.WorkDir = os.TempDir()
	}
	return c, nil
}

// ApplyTimezone sets the process timezone from config.
func (c Configuration) ApplyTimezone() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	time.Local = loc
	return os.Setenv("TZ", c.Timezone)
}
