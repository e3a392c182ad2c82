//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/realmadmin/internal/auth"
	"github.com/BradenHooton/realmadmin/internal/config"
	"github.com/BradenHooton/realmadmin/internal/database"
	"github.com/BradenHooton/realmadmin/internal/handlers"
	middlewareCustom "github.com/BradenHooton/realmadmin/internal/middleware"
	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/internal/query"
	"github.com/BradenHooton/realmadmin/internal/repositories"
	"github.com/BradenHooton/realmadmin/internal/routes"
	"github.com/BradenHooton/realmadmin/internal/services"
	pkgauth "github.com/BradenHooton/realmadmin/pkg/auth"
	pkghttp "github.com/BradenHooton/realmadmin/pkg/http"
	pkglogger "github.com/BradenHooton/realmadmin/pkg/logger"
)

// CapturingSender records outgoing emails instead of delivering them
type CapturingSender struct {
	mu   sync.Mutex
	Sent []*models.EmailMessage
}

// Send records the email
func (c *CapturingSender) Send(ctx context.Context, msg *models.EmailMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = append(c.Sent, msg)
	return nil
}

// Last returns the most recent email sent
func (c *CapturingSender) Last() *models.EmailMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Sent) == 0 {
		return nil
	}
	return c.Sent[len(c.Sent)-1]
}

// TestServer wraps httptest.Server with the PostgreSQL directory and a capturing sender
type TestServer struct {
	Server       *httptest.Server
	Directory    *repositories.PostgresDirectory
	Sender       *CapturingSender
	ActionTokens *auth.ActionTokenIssuer
}

// NewTestServer wires the full API against db
func NewTestServer(db *database.DB) (*TestServer, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	secretHash, err := pkgauth.HashSecret(AdminClientSecret)
	if err != nil {
		return nil, err
	}

	claims, err := config.ParseClaimMappings(config.DefaultActionTokenClaims)
	if err != nil {
		return nil, err
	}

	dir := repositories.NewPostgresDirectory(db)
	sender := &CapturingSender{}
	tokenManager := auth.NewTokenManager(JWTSecret, 15*time.Minute)
	actionTokens := auth.NewActionTokenIssuer(ActionSecret, PublicURL, claims)
	auditLogger := pkglogger.NewAuditLogger(logger)
	renderer := services.NewThemeRenderer()

	ipConfig, err := pkghttp.NewIPConfig(nil)
	if err != nil {
		return nil, err
	}

	h := routes.Handlers{
		Users: handlers.NewUserHandler(services.NewUserQueryService(dir, query.MatchAll, query.ParseOptions{}, logger)),
		Email: handlers.NewEmailHandler(
			services.NewActionEmailService(dir, actionTokens, renderer, sender, PublicURL, logger),
			services.NewMailService(dir, renderer, sender, PublicURL, logger),
			auditLogger,
			ipConfig,
		),
		Admin: handlers.NewAdminHandler(services.NewAdminService(dir, query.MatchAll, logger)),
		Auth:  handlers.NewAuthHandler(services.NewAuthService(AdminClientID, secretHash, tokenManager, logger, auditLogger), ipConfig),
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: "test"}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	routes.RegisterRoutes(r, h, tokenManager, routes.Limits{
		TokenPerMinute: 100,
		AdminPerMinute: 1000,
	})

	return &TestServer{
		Server:       httptest.NewServer(r),
		Directory:    dir,
		Sender:       sender,
		ActionTokens: actionTokens,
	}, nil
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes a JSON request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated request with an admin access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
}

// AdminToken obtains an access token through the form-encoded token endpoint
func (ts *TestServer) AdminToken() (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {AdminClientID},
		"client_secret": {AdminClientSecret},
	}
	resp, err := http.Post(ts.Server.URL+"/auth/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}

	var token services.TokenResponse
	if err := ParseJSONResponse(resp, &token); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorMessage extracts error message from error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
