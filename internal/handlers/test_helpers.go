package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/BradenHooton/realmadmin/internal/auth"
	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/internal/query"
	"github.com/BradenHooton/realmadmin/internal/services"
	pkghttp "github.com/BradenHooton/realmadmin/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithClientContext adds admin client claims to the request context
func WithClientContext(req *http.Request, clientID string) *http.Request {
	claims := &models.TokenClaims{
		ClientID: clientID,
		Role:     auth.RoleAdmin,
		Type:     models.TokenTypeAccess,
	}
	ctx := context.WithValue(req.Context(), auth.ClientContextKey, claims)
	return req.WithContext(ctx)
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks the status, error code and message of an error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError, expectedMessage string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	if expectedMessage != "" {
		assert.Equal(t, expectedMessage, resp.Message, "Error message mismatch")
	} else {
		assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	}
}

// MockUserQueryService implements UserQueryService for testing
type MockUserQueryService struct {
	QueryUsersFunc func(ctx context.Context, realmName string, params url.Values) (*query.Page, error)
	GetUserFunc    func(ctx context.Context, realmName, userID string) (*models.User, error)
}

func (m *MockUserQueryService) QueryUsers(ctx context.Context, realmName string, params url.Values) (*query.Page, error) {
	if m.QueryUsersFunc == nil {
		return &query.Page{Users: []*models.User{}}, nil
	}
	return m.QueryUsersFunc(ctx, realmName, params)
}

func (m *MockUserQueryService) GetUser(ctx context.Context, realmName, userID string) (*models.User, error) {
	if m.GetUserFunc == nil {
		return nil, models.NotFound("User not found")
	}
	return m.GetUserFunc(ctx, realmName, userID)
}

// MockActionEmailService implements ActionEmailService and records requests
type MockActionEmailService struct {
	ExecuteActionsEmailFunc func(ctx context.Context, req services.ExecuteActionsRequest) error

	mu       sync.Mutex
	Requests []services.ExecuteActionsRequest
}

func (m *MockActionEmailService) ExecuteActionsEmail(ctx context.Context, req services.ExecuteActionsRequest) error {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.ExecuteActionsEmailFunc == nil {
		return nil
	}
	return m.ExecuteActionsEmailFunc(ctx, req)
}

// MockMailService implements MailService for testing
type MockMailService struct {
	SendRealmEmailFunc func(ctx context.Context, realmName, whiteLabelledBase string, model *models.EmailModel) error
	SendUserEmailFunc  func(ctx context.Context, realmName, userID string, model *models.EmailModel) error
}

func (m *MockMailService) SendRealmEmail(ctx context.Context, realmName, whiteLabelledBase string, model *models.EmailModel) error {
	if m.SendRealmEmailFunc == nil {
		return nil
	}
	return m.SendRealmEmailFunc(ctx, realmName, whiteLabelledBase, model)
}

func (m *MockMailService) SendUserEmail(ctx context.Context, realmName, userID string, model *models.EmailModel) error {
	if m.SendUserEmailFunc == nil {
		return nil
	}
	return m.SendUserEmailFunc(ctx, realmName, userID, model)
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	GetUserStatisticsFunc func(ctx context.Context, realmName string) (*services.UserStatisticsResponse, error)
}

func (m *MockAdminService) GetUserStatistics(ctx context.Context, realmName string) (*services.UserStatisticsResponse, error) {
	if m.GetUserStatisticsFunc == nil {
		return &services.UserStatisticsResponse{Groups: map[string]int{}}, nil
	}
	return m.GetUserStatisticsFunc(ctx, realmName)
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	IssueTokenFunc func(ctx context.Context, clientID, clientSecret, ipAddress string) (*services.TokenResponse, error)
}

func (m *MockAuthService) IssueToken(ctx context.Context, clientID, clientSecret, ipAddress string) (*services.TokenResponse, error) {
	if m.IssueTokenFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.IssueTokenFunc(ctx, clientID, clientSecret, ipAddress)
}
