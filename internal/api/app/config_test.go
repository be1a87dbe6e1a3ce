package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "planner", cfg.Issuer)
	require.Equal(t, "planner.db", cfg.DatabaseFile)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "log", cfg.Mail.Provider)
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.InvitationTTL)
	require.Equal(t, 5, cfg.RateLimit.Auth().RequestsPerWindow)
	require.Equal(t, 15*time.Minute, cfg.RateLimit.API().Window)

	_, stillSet := os.LookupEnv("JWT_SECRET")
	require.False(t, stillSet, "secret should be removed from the environment")
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("PORT", "9090")
	t.Setenv("MAIL_PROVIDER", "mailgun")
	t.Setenv("MAILGUN_DOMAIN", "mg.example.com")
	t.Setenv("REFRESH_TOKEN_TTL", "24h")
	t.Setenv("RATELIMIT_AUTH_REQUESTS", "1000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "mailgun", cfg.Mail.Provider)
	require.Equal(t, "mg.example.com", cfg.Mail.MailgunDomain)
	require.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 1000, cfg.RateLimit.AuthRequests)
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"weak secret":    {"JWT_SECRET": "short"},
		"bad port":       {"JWT_SECRET": "0123456789abcdef0123", "PORT": "0"},
		"bad duration":   {"JWT_SECRET": "0123456789abcdef0123", "INVITATION_TTL": "soon"},
		"zero ttl":       {"JWT_SECRET": "0123456789abcdef0123", "RESET_TOKEN_TTL": "0s"},
		"zero limit":     {"JWT_SECRET": "0123456789abcdef0123", "RATELIMIT_API_REQUESTS": "0"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			if _, ok := vars["JWT_SECRET"]; !ok {
				// Register for restore, then clear.
				t.Setenv("JWT_SECRET", "")
				require.NoError(t, os.Unsetenv("JWT_SECRET"))
			}
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
