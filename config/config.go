package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	ServerPort       string      `mapstructure:"SERVER_PORT"`
	GinMode          string      `mapstructure:"GIN_MODE"`
	LogLevel         string      `mapstructure:"LOG_LEVEL"`
	CatalogPath      string      `mapstructure:"CATALOG_PATH"`
	ShuffleQuestions bool        `mapstructure:"SHUFFLE_QUESTIONS"`
	DB               DBConfig    `mapstructure:"DB"`
	Admin            AdminConfig `mapstructure:"ADMIN"`
}

// DBConfig selects the record store.
type DBConfig struct {
	Driver string `mapstructure:"DRIVER"` // sqlite | postgres
	DSN    string `mapstructure:"DSN"`
}

// AdminConfig holds the admin export credentials. No secret has a default.
type AdminConfig struct {
	Password      string        `mapstructure:"PASSWORD"`
	PasswordHash  string        `mapstructure:"PASSWORD_HASH"` // bcrypt, used when PASSWORD is empty
	JWTSigningKey string        `mapstructure:"JWT_SIGNING_KEY"`
	Issuer        string        `mapstructure:"ISSUER"`
	TokenTTL      time.Duration `mapstructure:"TOKEN_TTL"`
}

const EnvPrefix = "PITFALLS"

// LoadConfig loads configuration from defaults, config.yaml and environment
// variables, in increasing precedence. A .env file in the working directory
// is loaded into the environment first when present.
func LoadConfig(searchPaths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("SERVER_PORT", ":8080")
	v.SetDefault("GIN_MODE", "release") // gin.DebugMode, gin.ReleaseMode, gin.TestMode
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CATALOG_PATH", "")
	v.SetDefault("SHUFFLE_QUESTIONS", true)
	v.SetDefault("DB.DRIVER", "sqlite")
	v.SetDefault("DB.DSN", "")
	v.SetDefault("ADMIN.PASSWORD", "")
	v.SetDefault("ADMIN.PASSWORD_HASH", "")
	v.SetDefault("ADMIN.JWT_SIGNING_KEY", "")
	v.SetDefault("ADMIN.ISSUER", "pitfalls-server")
	v.SetDefault("ADMIN.TOKEN_TTL", "30m")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("fatal error config file: %w", err)
		}
	}

	// Override with environment variables (e.g., PITFALLS_ADMIN_PASSWORD)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot check for us.
func (c *Config) Validate() error {
	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("unsupported GIN_MODE %q (want debug, release or test)", c.GinMode)
	}
	switch c.DB.Driver {
	case "sqlite":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("DB.DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB.DRIVER %q (want sqlite or postgres)", c.DB.Driver)
	}
	if c.Admin.TokenTTL <= 0 {
		return fmt.Errorf("ADMIN.TOKEN_TTL must be positive")
	}
	return nil
}
