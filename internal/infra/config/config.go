package config

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddress string
	GRPCAddress string

	DatabaseURL  string
	StoreTimeout time.Duration
	StoreRetries int
	SeedPlans    bool

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
	Leeway          time.Duration

	PasswordHash    string
	BcryptCost      int
	HashConcurrency int

	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	AuthRateLimit  int
	AuthRateWindow time.Duration
	IPRateLimit    int
	IPRateBurst    int

	AllowedOrigins   []string
	AllowCredentials bool
	HTTPSCertFile    string
	HTTPSKeyFile     string

	LogLevel string
}

const (
	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

var envKeys = []string{
	"HTTP_ADDRESS", "GRPC_ADDRESS",
	"DATABASE_URL", "STORE_TIMEOUT", "STORE_RETRIES", "SEED_PLANS",
	"JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "JWT_ISSUER", "JWT_AUDIENCE", "JWT_LEEWAY",
	"PASSWORD_HASH", "BCRYPT_COST", "HASH_CONCURRENCY",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB", "AUTH_RATE_LIMIT", "AUTH_RATE_WINDOW",
	"IP_RATE_LIMIT", "IP_RATE_BURST",
	"ALLOWED_ORIGINS", "ALLOW_CREDENTIALS", "HTTPS_CERT_FILE", "HTTPS_KEY_FILE",
	"LOG_LEVEL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("STORE_TIMEOUT", 3*time.Second)
	v.SetDefault("STORE_RETRIES", 3)
	v.SetDefault("SEED_PLANS", true)
	v.SetDefault("ACCESS_TOKEN_TTL", 900*time.Second)
	v.SetDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("JWT_ISSUER", "crawl-back")
	v.SetDefault("JWT_AUDIENCE", "crawl-back")
	v.SetDefault("JWT_LEEWAY", time.Duration(0))
	v.SetDefault("PASSWORD_HASH", HashBcrypt)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("HASH_CONCURRENCY", runtime.NumCPU())
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AUTH_RATE_LIMIT", 20)
	v.SetDefault("AUTH_RATE_WINDOW", time.Minute)
	v.SetDefault("IP_RATE_LIMIT", 50)
	v.SetDefault("IP_RATE_BURST", 100)
	v.SetDefault("ALLOWED_ORIGINS", `["*"]`)
	v.SetDefault("ALLOW_CREDENTIALS", false)
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	origins, err := parseList(v.GetString("ALLOWED_ORIGINS"))
	if err != nil {
		return nil, fmt.Errorf("ALLOWED_ORIGINS: %w", err)
	}

	cfg := &Config{
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		GRPCAddress:      v.GetString("GRPC_ADDRESS"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		StoreTimeout:     v.GetDuration("STORE_TIMEOUT"),
		StoreRetries:     v.GetInt("STORE_RETRIES"),
		SeedPlans:        v.GetBool("SEED_PLANS"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  v.GetDuration("REFRESH_TOKEN_TTL"),
		Issuer:           v.GetString("JWT_ISSUER"),
		Audience:         v.GetString("JWT_AUDIENCE"),
		Leeway:           v.GetDuration("JWT_LEEWAY"),
		PasswordHash:     strings.ToLower(v.GetString("PASSWORD_HASH")),
		BcryptCost:       v.GetInt("BCRYPT_COST"),
		HashConcurrency:  v.GetInt("HASH_CONCURRENCY"),
		RedisAddress:     v.GetString("REDIS_ADDRESS"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		AuthRateLimit:    v.GetInt("AUTH_RATE_LIMIT"),
		AuthRateWindow:   v.GetDuration("AUTH_RATE_WINDOW"),
		IPRateLimit:      v.GetInt("IP_RATE_LIMIT"),
		IPRateBurst:      v.GetInt("IP_RATE_BURST"),
		AllowedOrigins:   origins,
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		HTTPSCertFile:    v.GetString("HTTPS_CERT_FILE"),
		HTTPSKeyFile:     v.GetString("HTTPS_KEY_FILE"),
		LogLevel:         v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return fmt.Errorf("DATABASE_URL is not set")
	case c.JWTSecret == "":
		return fmt.Errorf("JWT_SECRET is not set")
	case len(c.JWTSecret) < 16:
		return fmt.Errorf("JWT_SECRET must be at least 16 bytes")
	case c.AccessTokenTTL <= 0:
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %v", c.AccessTokenTTL)
	case c.RefreshTokenTTL <= 0:
		return fmt.Errorf("REFRESH_TOKEN_TTL must be positive, got %v", c.RefreshTokenTTL)
	case c.StoreTimeout <= 0:
		return fmt.Errorf("STORE_TIMEOUT must be positive, got %v", c.StoreTimeout)
	case c.PasswordHash != HashBcrypt && c.PasswordHash != HashArgon2id:
		return fmt.Errorf("PASSWORD_HASH must be %q or %q, got %q", HashBcrypt, HashArgon2id, c.PasswordHash)
	case (c.HTTPSCertFile == "") != (c.HTTPSKeyFile == ""):
		return fmt.Errorf("HTTPS_CERT_FILE and HTTPS_KEY_FILE must be set together")
	}
	if c.HashConcurrency < 1 {
		c.HashConcurrency = 1
	}
	if c.StoreRetries < 1 {
		c.StoreRetries = 1
	}
	return nil
}

// TLSEnabled reports whether both certificate files are configured.
func (c *Config) TLSEnabled() bool {
	return c.HTTPSCertFile != "" && c.HTTPSKeyFile != ""
}

// parseList accepts either a JSON array or a comma separated list.
func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
