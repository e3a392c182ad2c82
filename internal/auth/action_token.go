package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/BradenHooton/realmadmin/internal/config"
	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActionTokenRequest describes the token mailed for an execute-actions request.
type ActionTokenRequest struct {
	User            *models.User
	RealmName       string
	RequiredActions []string
	RedirectURI     string
	ClientID        string
	ExpiresAt       time.Time
}

// ActionTokenIssuer signs execute-actions tokens. Extra claims are copied from
// user attributes according to the claim mappings.
type ActionTokenIssuer struct {
	secret  []byte
	issuer  string
	mapping []config.ClaimMapping
}

// NewActionTokenIssuer creates an issuer. baseURL is used as the token issuer prefix.
func NewActionTokenIssuer(secret, baseURL string, mapping []config.ClaimMapping) *ActionTokenIssuer {
	return &ActionTokenIssuer{
		secret:  []byte(secret),
		issuer:  baseURL,
		mapping: mapping,
	}
}

// Issue signs a token for req.
func (i *ActionTokenIssuer) Issue(req ActionTokenRequest) (string, error) {
	if req.User == nil {
		return "", fmt.Errorf("action token: %w", models.ErrBadRequest)
	}

	claims := &models.ActionTokenClaims{
		Type:            models.TokenTypeExecuteActions,
		RequiredActions: req.RequiredActions,
		RedirectURI:     req.RedirectURI,
		ClientID:        req.ClientID,
		Extra:           i.extraClaims(req.User, req.RequiredActions),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   req.User.ID,
			Issuer:    i.issuer + "/realms/" + req.RealmName,
			Audience:  jwt.ClaimStrings{i.issuer + "/realms/" + req.RealmName},
			ExpiresAt: jwt.NewNumericDate(req.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign action token: %w", err)
	}
	return signed, nil
}

func (i *ActionTokenIssuer) extraClaims(user *models.User, actions []string) map[string]string {
	var extra map[string]string
	for _, m := range i.mapping {
		if !slices.Contains(actions, m.Action) {
			continue
		}
		value := user.FirstAttribute(m.Attribute)
		if value == "" {
			continue
		}
		if extra == nil {
			extra = map[string]string{}
		}
		extra[m.Claim] = value
	}
	return extra
}

// Verify parses a token issued by Issue.
func (i *ActionTokenIssuer) Verify(tokenString string) (*models.ActionTokenClaims, error) {
	claims := &models.ActionTokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse action token: %w", err)
	}

	if !token.Valid || claims.Type != models.TokenTypeExecuteActions {
		return nil, models.ErrUnauthorized
	}
	return claims, nil
}
