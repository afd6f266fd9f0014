package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	App         AppConfig       `mapstructure:"app"`
	AppHost     string          `mapstructure:"host"`
	FrontendURL string          `mapstructure:"frontend_url"`
	DB          DBConfig        `mapstructure:"db"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	Suggest     SuggestConfig   `mapstructure:"suggest"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"ratelimit"`

	// Warnings collects problems that were patched over while loading.
	// They are logged once the logger exists.
	Warnings []string `mapstructure:"-"`
}

type AppConfig struct {
	Env       string `mapstructure:"env"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

type DBConfig struct {
	Source string `mapstructure:"source"`
}

type JWTConfig struct {
	AccessSecret  string `mapstructure:"access_secret"`
	RefreshSecret string `mapstructure:"refresh_secret"`
}

type SuggestConfig struct {
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	GeminiModel   string        `mapstructure:"gemini_model"`
	GeminiBaseURL string        `mapstructure:"gemini_base_url"`
	OEmbedURL     string        `mapstructure:"oembed_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	TitleTTL time.Duration `mapstructure:"title_ttl"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == EnvDevelopment
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return load("./configs", "/configs")
}

func load(paths ...string) (*Config, error) {
	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.App.Env = strings.ToLower(strings.TrimSpace(cfg.App.Env))

	if cfg.JWT.AccessSecret == "" {
		cfg.JWT.AccessSecret = randomSecret()
		cfg.Warnings = append(cfg.Warnings, "jwt.access_secret is not set, using a random per-process secret")
	}
	if cfg.JWT.RefreshSecret == "" {
		cfg.JWT.RefreshSecret = randomSecret()
		cfg.Warnings = append(cfg.Warnings, "jwt.refresh_secret is not set, using a random per-process secret")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.App.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("unknown app.env %q", c.App.Env)
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("jwt.access_secret and jwt.refresh_secret must differ")
	}
	if c.Suggest.Timeout <= 0 {
		return errors.New("suggest.timeout must be positive")
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("ratelimit values must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", EnvProduction)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("host", ":5000")
	v.SetDefault("frontend_url", "http://localhost:5173")
	v.SetDefault("db.source", "")
	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("suggest.gemini_api_key", "")
	v.SetDefault("suggest.gemini_model", "gemini-pro")
	v.SetDefault("suggest.gemini_base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("suggest.oembed_url", "https://www.youtube.com/oembed")
	v.SetDefault("suggest.timeout", 15*time.Second)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.title_ttl", time.Hour)
	v.SetDefault("ratelimit.rps", 1)
	v.SetDefault("ratelimit.burst", 10)
}

// bindLegacyEnv accepts the older unprefixed variable names.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("app.env", "APP_ENV", "NODE_ENV")
	_ = v.BindEnv("jwt.access_secret", "JWT_ACCESS_SECRET", "JWT_SECRET")
	_ = v.BindEnv("jwt.refresh_secret", "JWT_REFRESH_SECRET")
	_ = v.BindEnv("suggest.gemini_api_key", "SUGGEST_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("suggest.gemini_model", "SUGGEST_GEMINI_MODEL", "GEMINI_MODEL")
	_ = v.BindEnv("frontend_url", "FRONTEND_URL")
	_ = v.BindEnv("db.source", "DB_SOURCE", "DATABASE_URL")
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
