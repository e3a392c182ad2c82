package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/internal/services"
	pkghttp "github.com/BradenHooton/realmadmin/pkg/http"
)

// AuthServiceInterface defines the interface for admin token issuance
type AuthServiceInterface interface {
	IssueToken(ctx context.Context, clientID, clientSecret, ipAddress string) (*services.TokenResponse, error)
}

// AuthHandler handles the admin token endpoint
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// TokenRequest represents the client credentials exchanged for a token
type TokenRequest struct {
	ClientID     string `json:"client_id" validate:"required,max=255"`
	ClientSecret string `json:"client_secret" validate:"required,max=512"`
}

// Token exchanges admin client credentials for an access token. The body may be
// JSON or an application/x-www-form-urlencoded client credentials grant.
//
// @Summary Admin token
// @Accept json
// @Param request body TokenRequest true "Client credentials"
// @Produce json
// @Success 200 {object} services.TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/token [post]
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid request body")
			return
		}
		if gt := r.PostForm.Get("grant_type"); gt != "" && gt != "client_credentials" {
			pkghttp.WriteBadRequest(w, "Unsupported grant type")
			return
		}
		req.ClientID = r.PostForm.Get("client_id")
		req.ClientSecret = r.PostForm.Get("client_secret")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	resp, err := h.service.IssueToken(r.Context(), req.ClientID, req.ClientSecret, ipAddress)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Invalid client credentials")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
