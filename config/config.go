package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env          string `validate:"required"`
	Port         int    `validate:"min=1,max=65535"`
	Database     DatabaseConfig
	ServiceToken string
	Origins      []string
	Demo         DemoMember
	Session      SessionConfig
	Sync         SyncConfig
	RollbarToken string
	Mail         MailConfig
	R2           R2Config
}

type DatabaseConfig struct {
	Driver       string `validate:"oneof=postgres sqlite"`
	URL          string `validate:"required"`
	AutoMigrate  bool
	StoreTimeout time.Duration `validate:"gt=0"`
}

// DemoMember is the identity used when a request carries no X-User-ID.
type DemoMember struct {
	ID    string `validate:"required"`
	Name  string `validate:"required"`
	Email string `validate:"omitempty,email"`
}

type SessionConfig struct {
	IdleTTL time.Duration `validate:"gt=0"`
}

type SyncConfig struct {
	ProfileURL string        `validate:"omitempty,url"`
	RiskURL    string        `validate:"omitempty,url"`
	Interval   time.Duration `validate:"gt=0"`
}

type MailConfig struct {
	SendgridKey string
	From        string `validate:"omitempty,email"`
	AppName     string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Enabled reports whether churn report export has somewhere to go.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.Bucket != "" && c.AccessKeyID != ""
}

// Load reads .env (if present) and the environment, applies defaults, and validates.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Tests pass a map lookup.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	port, err := strconv.Atoi(get("PORT", "5200"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid PORT: %w", err)
	}
	storeTimeout, err := time.ParseDuration(get("STORE_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
	}
	idleTTL, err := time.ParseDuration(get("SESSION_IDLE_TTL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SESSION_IDLE_TTL: %w", err)
	}
	syncInterval, err := time.ParseDuration(get("SYNC_INTERVAL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	autoMigrate, err := strconv.ParseBool(get("AUTO_MIGRATE", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
	}

	var origins []string
	for _, o := range strings.Split(get("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	cfg := Config{
		Env:  get("APP_ENV", "development"),
		Port: port,
		Database: DatabaseConfig{
			Driver:       strings.ToLower(get("DB_DRIVER", "postgres")),
			URL:          get("DATABASE_URL", ""),
			AutoMigrate:  autoMigrate,
			StoreTimeout: storeTimeout,
		},
		ServiceToken: get("SERVICE_TOKEN", ""),
		Origins:      origins,
		Demo: DemoMember{
			ID:    get("DEMO_MEMBER_ID", "demo-user-123"),
			Name:  get("DEMO_MEMBER_NAME", "Demo User"),
			Email: get("DEMO_MEMBER_EMAIL", "demo@example.com"),
		},
		Session: SessionConfig{IdleTTL: idleTTL},
		Sync: SyncConfig{
			ProfileURL: get("PROFILE_SYNC_URL", ""),
			RiskURL:    get("RISK_FEED_URL", ""),
			Interval:   syncInterval,
		},
		RollbarToken: get("ROLLBAR_TOKEN", ""),
		Mail: MailConfig{
			SendgridKey: get("SENDGRID_API_KEY", ""),
			From:        get("MAIL_FROM", "noreply@example.com"),
			AppName:     get("APP_NAME", "The Hub"),
		},
		R2: R2Config{
			AccountID:       get("CLOUDFLARE_ACCOUNT_ID", ""),
			AccessKeyID:     get("R2_ACCESS_KEY_ID", ""),
			AccessKeySecret: get("R2_ACCESS_KEY_SECRET", ""),
			Bucket:          get("R2_BUCKET_NAME", ""),
			CDNBaseURL:      get("CDN_BASE_URL", ""),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
