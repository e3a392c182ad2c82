package handlers

import (
	"errors"
	"net/http"

	"github.com/BradenHooton/realmadmin/internal/models"
	pkghttp "github.com/BradenHooton/realmadmin/pkg/http"
)

// writeServiceError maps a service error to a JSON error response. failure is
// the message used when delivery of an email failed.
func writeServiceError(w http.ResponseWriter, err error, failure string) {
	var reqErr *models.RequestError
	switch {
	case errors.As(err, &reqErr):
		if errors.Is(reqErr.Err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, reqErr.Message)
			return
		}
		pkghttp.WriteBadRequest(w, reqErr.Message)
	case errors.Is(err, models.ErrInvalidParameter):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrDirectoryUnavailable):
		pkghttp.WriteServiceUnavailable(w, "Directory unavailable, retry later")
	case errors.Is(err, models.ErrEmailFailed):
		pkghttp.WriteInternalError(w, failure)
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
