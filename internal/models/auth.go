package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims of an admin API access token.
type TokenClaims struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ActionTokenClaims are the claims of an execute-actions token mailed to a user.
type ActionTokenClaims struct {
	Type            string            `json:"typ"`
	RequiredActions []string          `json:"rqac"`
	RedirectURI     string            `json:"reduri,omitempty"`
	ClientID        string            `json:"azp"`
	Extra           map[string]string `json:"ext,omitempty"`
	jwt.RegisteredClaims
}

// Token types
const (
	TokenTypeAccess         = "access"
	TokenTypeExecuteActions = "execute-actions"
)
