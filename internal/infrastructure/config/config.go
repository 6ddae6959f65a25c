package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string `env:"PORT,           default=8080"`
	Env           string `env:"ENV,            default=development"`
	SessionSecret string `env:"SESSION_SECRET, default=dev-session-secret"`
	LogLevel      string `env:"LOG_LEVEL,      default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Identity IdentityConfig
	Root     RootConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=worksheet_system"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=5s"`
}

// IdentityConfig selects the credential backend. When both Firebase fields
// are set the Firebase driver is used; otherwise accounts are kept locally.
type IdentityConfig struct {
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseAPIKey          string `env:"FIREBASE_API_KEY"`
}

// UseFirebase reports whether the Firebase identity driver is configured.
func (c IdentityConfig) UseFirebase() bool {
	return c.FirebaseCredentialsFile != "" && c.FirebaseAPIKey != ""
}

// RootConfig describes the bootstrap administrator ensured at startup.
type RootConfig struct {
	Email    string `env:"ROOT_EMAIL,    default=root@system.local"`
	Password string `env:"ROOT_PASSWORD, default=Root123!"`
	Name     string `env:"ROOT_NAME,     default=System Root"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
