package handlers_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/BradenHooton/realmadmin/internal/handlers"
	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/internal/services"
	"github.com/stretchr/testify/assert"
)

func newTokenMock() *handlers.MockAuthService {
	return &handlers.MockAuthService{
		IssueTokenFunc: func(ctx context.Context, clientID, clientSecret, ipAddress string) (*services.TokenResponse, error) {
			if clientID != "admin-cli" || clientSecret != "s3cret-s3cret-s3cret" {
				return nil, models.ErrUnauthorized
			}
			return &services.TokenResponse{AccessToken: "jwt", TokenType: "Bearer", ExpiresIn: 900}, nil
		},
	}
}

func TestToken_JSON(t *testing.T) {
	h := handlers.NewAuthHandler(newTokenMock(), nil)

	req := handlers.NewTestRequest(t, "POST", "/auth/token", map[string]string{
		"client_id":     "admin-cli",
		"client_secret": "s3cret-s3cret-s3cret",
	})
	w := httptest.NewRecorder()
	h.Token(w, req)

	var resp services.TokenResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "jwt", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 900, resp.ExpiresIn)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestToken_Form(t *testing.T) {
	h := handlers.NewAuthHandler(newTokenMock(), nil)

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"admin-cli"},
		"client_secret": {"s3cret-s3cret-s3cret"},
	}
	req := httptest.NewRequest("POST", "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.Token(w, req)

	assert.Equal(t, 200, w.Code)

	form.Set("grant_type", "password")
	req = httptest.NewRequest("POST", "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	h.Token(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request", "Unsupported grant type")
}

func TestToken_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		service    *handlers.MockAuthService
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{`, newTokenMock(), 400, "bad_request"},
		{"missing secret", `{"client_id": "admin-cli"}`, newTokenMock(), 400, "bad_request"},
		{"wrong secret", `{"client_id": "admin-cli", "client_secret": "nope"}`, newTokenMock(), 401, "unauthorized"},
		{
			"service failure",
			`{"client_id": "admin-cli", "client_secret": "x"}`,
			&handlers.MockAuthService{
				IssueTokenFunc: func(ctx context.Context, clientID, clientSecret, ipAddress string) (*services.TokenResponse, error) {
					return nil, errors.New("signing failed")
				},
			},
			500,
			"internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewAuthHandler(tt.service, nil)

			req := httptest.NewRequest("POST", "/auth/token", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.Token(w, req)

			handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantCode, "")
		})
	}
}
