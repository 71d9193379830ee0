package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/amingeek/task-manager/internal/crypto"
	"github.com/amingeek/task-manager/internal/utils"
)

// EnvPrefix is prepended to every environment variable, e.g. TASKMANAGER_API_URL.
const EnvPrefix = "TASKMANAGER"

// Config holds client and reference-backend settings.
type Config struct {
	Environment    string        `mapstructure:"ENVIRONMENT"`
	APIURL         string        `mapstructure:"API_URL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	SessionDir     string        `mapstructure:"SESSION_DIR"`
	SessionKeyHex  string        `mapstructure:"SESSION_KEY_HEX"`
	LogPath        string        `mapstructure:"LOG_PATH"`

	// Reference backend
	ServerPort string        `mapstructure:"SERVER_PORT"`
	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	TokenTTL   time.Duration `mapstructure:"TOKEN_TTL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", utils.EnvProd)
	v.SetDefault("API_URL", "http://localhost:8080/api")
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	v.SetDefault("SESSION_DIR", utils.DefaultSessionDir())
	v.SetDefault("SESSION_KEY_HEX", "")
	v.SetDefault("LOG_PATH", utils.DefaultLogPath())
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
}

// LoadConfig reads <path>/.env into the environment, then an optional <path>/config.*
// file, then TASKMANAGER_* environment variables. Later sources win.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API_URL %q", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.SessionKeyHex != "" {
		if _, err := crypto.ParseMasterKey(c.SessionKeyHex); err != nil {
			return fmt.Errorf("invalid SESSION_KEY_HEX: %w", err)
		}
	}
	return nil
}

// SessionKey returns the derived session-file key, or nil when encryption is off.
func (c *Config) SessionKey() ([]byte, error) {
	if c.SessionKeyHex == "" {
		return nil, nil
	}
	mk, err := crypto.ParseMasterKey(c.SessionKeyHex)
	if err != nil {
		return nil, err
	}
	return crypto.DeriveSessionKey(mk, nil)
}
