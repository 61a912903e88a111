package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Name string
		Env  string
	} `mapstructure:"app"`

	HTTP struct {
		Port string
	} `mapstructure:"http"`

	Postgres struct {
		URL          string
		MaxOpenConns int           `mapstructure:"max_open_conns"`
		MaxIdleConns int           `mapstructure:"max_idle_conns"`
		ConnMaxLife  time.Duration `mapstructure:"conn_max_lifetime"`
	} `mapstructure:"postgres"`

	// SQLite is a local development fallback used when no postgres url is set.
	SQLite struct {
		Path string
	} `mapstructure:"sqlite"`

	Redis struct {
		URL string
	} `mapstructure:"redis"`

	JWT struct {
		Secret string
		TTL    time.Duration
	} `mapstructure:"jwt"`

	Log struct {
		Level  string
		Format string
	} `mapstructure:"log"`

	Usage struct {
		MaxRetries int           `mapstructure:"max_retries"`
		LockTTL    time.Duration `mapstructure:"lock_ttl"`
	} `mapstructure:"usage"`

	Plans struct {
		File string
	} `mapstructure:"plans"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	// Mail is disabled when Host is empty; notifications are then only logged.
	Mail struct {
		Host       string
		Port       int
		Username   string
		Password   string
		From       string
		FromName   string `mapstructure:"from_name"`
		UseSSL     bool   `mapstructure:"use_ssl"`
		RequireTLS bool   `mapstructure:"require_tls"`
		BaseURL    string `mapstructure:"base_url"`
	} `mapstructure:"mail"`
}

// legacy env names still honored next to the KHAJA_ prefixed ones
var envAliases = map[string]string{
	"http.port":     "PORT",
	"postgres.url":  "POSTGRES_URL",
	"redis.url":     "REDIS_URL",
	"jwt.secret":    "JWT_SECRET",
	"log.level":     "LOG_LEVEL",
	"plans.file":    "PLANS_FILE",
	"mail.password": "SMTP_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "khaja")
	v.SetDefault("app.env", "development")
	v.SetDefault("http.port", "8080")
	v.SetDefault("postgres.url", "")
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("sqlite.path", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("usage.max_retries", 3)
	v.SetDefault("usage.lock_ttl", 5*time.Second)
	v.SetDefault("plans.file", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.from_name", "Khaja")
	v.SetDefault("mail.use_ssl", false)
	v.SetDefault("mail.require_tls", true)
	v.SetDefault("mail.base_url", "http://localhost:3000")
}

// Load reads .env, then config/khaja.yml (optional), then KHAJA_* environment variables.
func Load() (Config, error) {
	return LoadFrom("config/khaja.yml")
}

func LoadFrom(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("KHAJA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		envKey := "KHAJA_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, alias); err != nil {
			return Config{}, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isMissingFile(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	if c.Usage.MaxRetries < 1 {
		c.Usage.MaxRetries = 1
	}
	return c, nil
}

func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
