package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/realmadmin/internal/services"
	pkghttp "github.com/BradenHooton/realmadmin/pkg/http"
	"github.com/go-chi/chi/v5"
)

// AdminServiceInterface defines the statistics service contract.
type AdminServiceInterface interface {
	GetUserStatistics(ctx context.Context, realmName string) (*services.UserStatisticsResponse, error)
}

// AdminHandler handles realm dashboard HTTP requests.
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// GetUserStatistics handles GET /admin/realms/{realm}/statistics/users
func (h *AdminHandler) GetUserStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetUserStatistics(r.Context(), chi.URLParam(r, "realm"))
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve user statistics")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, stats)
}
