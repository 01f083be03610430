package httpadapter

import (
	"net/http"

	"github.com/questera/webintel/internal/core/domain"
)

// Provider-level failures never surface as transport errors here; they
// ride inside a 200 AggregatedResponse. This mapping covers the
// synchronous rejections only.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidQuery):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrProviderNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrProviderUnauthorized):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrProviderRateLimited):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrProviderUnavailable), domain.IsKind(err, domain.ErrProviderTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
