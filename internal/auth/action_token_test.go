package auth

import (
	"testing"
	"time"

	"github.com/BradenHooton/realmadmin/internal/config"
	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyEmailMapping() []config.ClaimMapping {
	return []config.ClaimMapping{{Action: "ct-verify-email", Attribute: "emailToValidate", Claim: "email"}}
}

func TestActionTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewActionTokenIssuer(testSecret, "http://localhost:8080", verifyEmailMapping())
	user := &models.User{
		ID:         "u-1",
		Username:   "jdoe",
		Attributes: map[string][]string{"emailToValidate": {"new@example.com"}},
	}
	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	token, err := issuer.Issue(ActionTokenRequest{
		User:            user,
		RealmName:       "test",
		RequiredActions: []string{"UPDATE_PASSWORD", "ct-verify-email"},
		RedirectURI:     "http://localhost:8180/app",
		ClientID:        "account",
		ExpiresAt:       expires,
	})
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, []string{"UPDATE_PASSWORD", "ct-verify-email"}, claims.RequiredActions)
	assert.Equal(t, "http://localhost:8180/app", claims.RedirectURI)
	assert.Equal(t, "account", claims.ClientID)
	assert.Equal(t, "http://localhost:8080/realms/test", claims.Issuer)
	assert.Equal(t, map[string]string{"email": "new@example.com"}, claims.Extra)
	assert.True(t, expires.Equal(claims.ExpiresAt.Time))
}

func TestActionTokenIssuer_ExtraClaims(t *testing.T) {
	issuer := NewActionTokenIssuer(testSecret, "http://localhost:8080", verifyEmailMapping())

	tests := []struct {
		name    string
		attrs   map[string][]string
		actions []string
		want    map[string]string
	}{
		{"action absent", map[string][]string{"emailToValidate": {"x@example.com"}}, []string{"UPDATE_PASSWORD"}, nil},
		{"attribute absent", nil, []string{"ct-verify-email"}, nil},
		{"attribute blank", map[string][]string{"emailToValidate": {""}}, []string{"ct-verify-email"}, nil},
		{"mapped", map[string][]string{"emailToValidate": {"x@example.com"}}, []string{"ct-verify-email"}, map[string]string{"email": "x@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := issuer.extraClaims(&models.User{ID: "u", Attributes: tt.attrs}, tt.actions)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActionTokenIssuer_VerifyRejects(t *testing.T) {
	issuer := NewActionTokenIssuer(testSecret, "http://localhost:8080", nil)

	expired, err := issuer.Issue(ActionTokenRequest{User: &models.User{ID: "u"}, ExpiresAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	_, err = issuer.Verify(expired)
	assert.Error(t, err)

	access, err := NewTokenManager(testSecret, time.Minute).GenerateAccessToken("admin-cli", RoleAdmin)
	require.NoError(t, err)
	_, err = issuer.Verify(access)
	assert.Error(t, err)

	_, err = issuer.Issue(ActionTokenRequest{})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
