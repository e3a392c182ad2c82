package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	t.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)

	assert.Equal(t, BackendPostgres, cfg.Directory.Backend)
	assert.Zero(t, cfg.Directory.ReloadInterval)
	assert.Equal(t, TransportSES, cfg.Email.Transport)
	assert.Equal(t, 100, cfg.Query.DefaultPageSize)
	assert.False(t, cfg.Query.StrictParams)
	assert.Equal(t, "all", cfg.Query.MembershipMatch)

	assert.Equal(t, cfg.Auth.JWTSecret, cfg.ActionToken.Secret)
	assert.Equal(t, []ClaimMapping{{Action: "ct-verify-email", Attribute: "emailToValidate", Claim: "email"}}, cfg.ActionToken.Claims)
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("QUERY_DEFAULT_PAGE_SIZE", "20")
	t.Setenv("QUERY_STRICT_PARAMS", "true")
	t.Setenv("QUERY_MEMBERSHIP_MATCH", "ANY")
	t.Setenv("EMAIL_TRANSPORT", "smtp")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("PUBLIC_BASE_URL", "https://sso.example.com/")
	t.Setenv("ACTION_TOKEN_SECRET", "another-secret-for-action-tokens")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,127.0.0.1/32")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 20, cfg.Query.DefaultPageSize)
	assert.True(t, cfg.Query.StrictParams)
	assert.Equal(t, "any", cfg.Query.MembershipMatch)
	assert.Equal(t, TransportSMTP, cfg.Email.Transport)
	assert.Equal(t, 2525, cfg.Email.SMTPPort)
	assert.Equal(t, "https://sso.example.com", cfg.Email.PublicBaseURL)
	assert.Equal(t, "another-secret-for-action-tokens", cfg.ActionToken.Secret)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1/32"}, cfg.Server.TrustedProxies)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			env:     map[string]string{"DB_PASSWORD": "test"},
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "missing db password",
			env:     map[string]string{"JWT_SECRET": "test-secret-32-characters-long!"},
			wantErr: "DB_PASSWORD is required",
		},
		{
			name: "memory backend without fixture",
			env: map[string]string{
				"JWT_SECRET":        "test-secret-32-characters-long!",
				"DIRECTORY_BACKEND": "memory",
			},
			wantErr: "DIRECTORY_FIXTURE is required",
		},
		{
			name: "unknown backend",
			env: map[string]string{
				"JWT_SECRET":        "test-secret-32-characters-long!",
				"DIRECTORY_BACKEND": "ldap",
			},
			wantErr: "DIRECTORY_BACKEND must be",
		},
		{
			name: "unknown transport",
			env: map[string]string{
				"JWT_SECRET":      "test-secret-32-characters-long!",
				"DB_PASSWORD":     "test",
				"EMAIL_TRANSPORT": "carrier-pigeon",
			},
			wantErr: "EMAIL_TRANSPORT must be",
		},
		{
			name: "zero page size",
			env: map[string]string{
				"JWT_SECRET":              "test-secret-32-characters-long!",
				"DB_PASSWORD":             "test",
				"QUERY_DEFAULT_PAGE_SIZE": "0",
			},
			wantErr: "QUERY_DEFAULT_PAGE_SIZE must be positive",
		},
		{
			name: "unknown match mode",
			env: map[string]string{
				"JWT_SECRET":             "test-secret-32-characters-long!",
				"DB_PASSWORD":            "test",
				"QUERY_MEMBERSHIP_MATCH": "some",
			},
			wantErr: "QUERY_MEMBERSHIP_MATCH must be",
		},
		{
			name: "malformed claim mapping",
			env: map[string]string{
				"JWT_SECRET":          "test-secret-32-characters-long!",
				"DB_PASSWORD":         "test",
				"ACTION_TOKEN_CLAIMS": "ct-verify-email:emailToValidate",
			},
			wantErr: "must be action:attribute:claim",
		},
		{
			name: "weak secret",
			env: map[string]string{
				"JWT_SECRET":  "short",
				"DB_PASSWORD": "test",
			},
			wantErr: "JWT_SECRET must be at least 16 characters",
		},
		{
			name: "production without admin secret hash",
			env: map[string]string{
				"JWT_SECRET":  "production-secret-that-is-long-enough-1234",
				"DB_PASSWORD": "test",
				"ENV":         "production",
			},
			wantErr: "ADMIN_CLIENT_SECRET_HASH is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("DB_PASSWORD", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseClaimMappings(t *testing.T) {
	mappings, err := ParseClaimMappings(" ct-verify-email:emailToValidate:email , update-phone:pendingPhone:phone ,")
	require.NoError(t, err)
	assert.Equal(t, []ClaimMapping{
		{Action: "ct-verify-email", Attribute: "emailToValidate", Claim: "email"},
		{Action: "update-phone", Attribute: "pendingPhone", Claim: "phone"},
	}, mappings)

	mappings, err = ParseClaimMappings("")
	require.NoError(t, err)
	assert.Empty(t, mappings)

	_, err = ParseClaimMappings("a::c")
	assert.Error(t, err)
}
