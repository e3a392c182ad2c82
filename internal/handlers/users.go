package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/internal/query"
	pkghttp "github.com/BradenHooton/realmadmin/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/jinzhu/copier"
)

// UserQueryService defines the interface for user lookups
type UserQueryService interface {
	QueryUsers(ctx context.Context, realmName string, params url.Values) (*query.Page, error)
	GetUser(ctx context.Context, realmName, userID string) (*models.User, error)
}

// UserHandler handles the realm user read endpoints
type UserHandler struct {
	service UserQueryService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserQueryService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// UserRepresentation is a user in the HTTP response
type UserRepresentation struct {
	ID               string              `json:"id"`
	Username         string              `json:"username"`
	Email            string              `json:"email,omitempty"`
	FirstName        string              `json:"firstName,omitempty"`
	LastName         string              `json:"lastName,omitempty"`
	Enabled          bool                `json:"enabled"`
	Attributes       map[string][]string `json:"attributes,omitempty"`
	CreatedTimestamp int64               `json:"createdTimestamp"`
}

// ListUsersResponse is one page of a user query
type ListUsersResponse struct {
	Users []*UserRepresentation `json:"users"`
	Count int                   `json:"count"`
}

// toRepresentation copies user into a response DTO. Brief representations omit attributes.
func toRepresentation(user *models.User, brief bool) (*UserRepresentation, error) {
	rep := &UserRepresentation{}
	if err := copier.CopyWithOption(rep, user, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy user representation: %w", err)
	}
	rep.CreatedTimestamp = user.CreatedAt.UnixMilli()
	if brief {
		rep.Attributes = nil
	}
	return rep, nil
}

// ListUsers runs a user query
//
// @Summary Query realm users
// @Param realm path string true "Realm name"
// @Param search query string false "Substring of username, email, first or last name"
// @Param first query int false "Offset (default 0)"
// @Param max query int false "Page size"
// @Produce json
// @Success 200 {object} ListUsersResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /admin/realms/{realm}/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	realm := chi.URLParam(r, "realm")
	params := r.URL.Query()

	page, err := h.service.QueryUsers(r.Context(), realm, params)
	if err != nil {
		writeServiceError(w, err, "Internal server error")
		return
	}

	brief, _ := strconv.ParseBool(params.Get("briefRepresentation"))
	response := &ListUsersResponse{
		Users: make([]*UserRepresentation, len(page.Users)),
		Count: page.Count,
	}
	for i, user := range page.Users {
		rep, err := toRepresentation(user, brief)
		if err != nil {
			slog.Error("failed to build user representation", slog.String("realm", realm), slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
		response.Users[i] = rep
	}

	pkghttp.WriteJSON(w, http.StatusOK, response)
}

// GetUser retrieves a user of the realm
//
// @Summary Get user by ID
// @Param realm path string true "Realm name"
// @Param id path string true "User ID"
// @Produce json
// @Success 200 {object} UserRepresentation
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /admin/realms/{realm}/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "realm"), userID)
	if err != nil {
		writeServiceError(w, err, "Internal server error")
		return
	}

	rep, err := toRepresentation(user, false)
	if err != nil {
		slog.Error("failed to build user representation", slog.String("user_id", userID), slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, rep)
}
