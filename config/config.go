// Package config reads the console's settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/princinho/sahoadmin/utils"
	"github.com/rs/zerolog"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var ErrMissingAPIURL = errors.New("API_URL is required")

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    string
	APIURL  string

	AllowedOrigins []string

	StoreDriver   string
	StorePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	TokenTTL       time.Duration
	RefreshLead    time.Duration
	RequestTimeout time.Duration
	SettleDelay    time.Duration

	LogLevel zerolog.Level
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		AppName:        utils.GetEnv("APP_NAME", "saho admin"),
		Env:            utils.GetEnv("APP_ENV", EnvDevelopment),
		Host:           utils.GetEnv("HOST", "127.0.0.1"),
		Port:           utils.GetEnv("PORT", "3000"),
		APIURL:         strings.TrimRight(utils.GetEnv("API_URL", ""), "/"),
		AllowedOrigins: utils.SplitList(os.Getenv("ALLOWED_ORIGINS")),
		StoreDriver:    strings.ToLower(utils.GetEnv("STORE_DRIVER", "file")),
		StorePath:      utils.GetEnv("STORE_PATH", ""),
		RedisAddr:      utils.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        utils.ParseIntDefault(os.Getenv("REDIS_DB"), 0),
		RedisPrefix:    utils.GetEnv("REDIS_PREFIX", "sahoadmin"),
		TokenTTL:       utils.MinutesEnv("TOKEN_TTL_MINUTES", 30),
		RefreshLead:    utils.MinutesEnv("REFRESH_LEAD_MINUTES", 5),
		RequestTimeout: utils.DurationEnv("REQUEST_TIMEOUT", 15*time.Second),
		SettleDelay:    utils.DurationEnv("GUARD_SETTLE_DELAY", 200*time.Millisecond),
		LogLevel:       zerolog.InfoLevel,
	}

	if lvl, err := zerolog.ParseLevel(utils.GetEnv("LOG_LEVEL", "info")); err == nil && lvl != zerolog.NoLevel {
		cfg.LogLevel = lvl
	}
	if cfg.APIURL == "" {
		return cfg, ErrMissingAPIURL
	}
	return cfg, nil
}

// Addr is the listen address. The console holds the operator's admin
// session, so it listens on loopback unless HOST says otherwise. A PORT
// that already carries a host wins.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return net.JoinHostPort(c.Host, c.Port)
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}
