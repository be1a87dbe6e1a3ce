package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/fastplanner/planner/pkg/httpx"
)

// minSecretLength matches the HS256 signer's minimum key size.
const minSecretLength = 16

var ErrWeakSecret = errors.New("JWT_SECRET must be at least 16 bytes")

type Config struct {
	JWTSecret string `env:"JWT_SECRET,required,unset"`
	Issuer    string `env:"JWT_ISSUER" envDefault:"planner"`

	DatabaseFile string `env:"DATABASE_FILE" envDefault:"planner.db"`
	PepperFile   string `env:"PEPPER_FILE"   envDefault:"pepper"`

	Env       string `env:"ENV"        envDefault:"dev"`  // dev, staging, prod
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"` // debug, info, warn, error
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json, text
	Port      int    `env:"PORT"       envDefault:"8080"`

	// ResetPasswordURL is the client page that receives ?token= from reset emails.
	ResetPasswordURL string `env:"RESET_PASSWORD_URL" envDefault:"http://localhost:3000/reset-password"`

	Mail MailConfig

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	ResetTokenTTL   time.Duration `env:"RESET_TOKEN_TTL"   envDefault:"30m"`
	InvitationTTL   time.Duration `env:"INVITATION_TTL"    envDefault:"168h"`

	RateLimit RateLimitConfig `envPrefix:"RATELIMIT_"`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

type MailConfig struct {
	Provider string `env:"MAIL_PROVIDER"  envDefault:"log"` // log, sendgrid, mailgun
	From     string `env:"MAIL_FROM"      envDefault:"no-reply@planner.local"`
	FromName string `env:"MAIL_FROM_NAME" envDefault:"Planner"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY,unset"`
	MailgunDomain  string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey  string `env:"MAILGUN_API_KEY,unset"`

	SendTimeout time.Duration `env:"MAIL_SEND_TIMEOUT" envDefault:"10s"`
}

// RateLimitConfig overrides the credential (AUTH) and per-user (API) limits.
type RateLimitConfig struct {
	AuthRequests int           `env:"AUTH_REQUESTS" envDefault:"5"`
	AuthWindow   time.Duration `env:"AUTH_WINDOW"   envDefault:"10m"`
	AuthBurst    int           `env:"AUTH_BURST"    envDefault:"5"`
	APIRequests  int           `env:"API_REQUESTS"  envDefault:"100"`
	APIWindow    time.Duration `env:"API_WINDOW"    envDefault:"15m"`
	APIBurst     int           `env:"API_BURST"     envDefault:"100"`
}

func (c RateLimitConfig) Auth() httpx.RateLimitConfig {
	return httpx.RateLimitConfig{RequestsPerWindow: c.AuthRequests, Window: c.AuthWindow, Burst: c.AuthBurst}
}

func (c RateLimitConfig) API() httpx.RateLimitConfig {
	return httpx.RateLimitConfig{RequestsPerWindow: c.APIRequests, Window: c.APIWindow, Burst: c.APIBurst}
}

// LoadConfig reads the environment. Secrets are removed from the process
// environment once parsed.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.JWTSecret) < minSecretLength {
		return ErrWeakSecret
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	for name, d := range map[string]time.Duration{
		"ACCESS_TOKEN_TTL":      c.AccessTokenTTL,
		"REFRESH_TOKEN_TTL":     c.RefreshTokenTTL,
		"RESET_TOKEN_TTL":       c.ResetTokenTTL,
		"INVITATION_TTL":        c.InvitationTTL,
		"HOUSEKEEPING_INTERVAL": c.HousekeepingInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.RateLimit.AuthRequests <= 0 || c.RateLimit.APIRequests <= 0 ||
		c.RateLimit.AuthWindow <= 0 || c.RateLimit.APIWindow <= 0 ||
		c.RateLimit.AuthBurst <= 0 || c.RateLimit.APIBurst <= 0 {
		return errors.New("rate limits must be positive")
	}
	return nil
}
