package services

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/BradenHooton/realmadmin/internal/auth"
	"github.com/BradenHooton/realmadmin/internal/models"
	pkgauth "github.com/BradenHooton/realmadmin/pkg/auth"
	pkglogger "github.com/BradenHooton/realmadmin/pkg/logger"
)

// TokenIssuer generates admin access tokens
type TokenIssuer interface {
	GenerateAccessToken(clientID, role string) (string, error)
}

// TokenResponse is the body returned by the token endpoint
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AuthService exchanges admin client credentials for access tokens
type AuthService struct {
	clientID    string
	secretHash  string
	tm          TokenIssuer
	expiresIn   int
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(clientID, secretHash string, tm *auth.TokenManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		clientID:    clientID,
		secretHash:  secretHash,
		tm:          tm,
		expiresIn:   int(tm.AccessTokenExpiry().Seconds()),
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// IssueToken verifies the client credentials and returns an admin access token
func (s *AuthService) IssueToken(ctx context.Context, clientID, clientSecret, ipAddress string) (*TokenResponse, error) {
	clientID = strings.TrimSpace(clientID)

	if s.secretHash == "" {
		s.logger.Warn("token request rejected: no admin client secret configured")
		return nil, models.ErrUnauthorized
	}

	idMatches := subtle.ConstantTimeCompare([]byte(clientID), []byte(s.clientID)) == 1
	secretErr := pkgauth.CompareSecret(s.secretHash, clientSecret)
	if !idMatches || secretErr != nil {
		s.logger.Info("token request failed: invalid client credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "token_failed",
			Actor:         clientID,
			IPAddress:     ipAddress,
			FailureReason: "invalid_client",
			Success:       false,
		})
		return nil, models.ErrUnauthorized
	}

	token, err := s.tm.GenerateAccessToken(clientID, auth.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("client_id", clientID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "token_issued",
		Actor:     clientID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.expiresIn,
	}, nil
}
