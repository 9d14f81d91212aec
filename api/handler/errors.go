package handler

import (
	"net/http"

	"github.com/use-agent/carscout/models"
)

// errorStatus maps an error to its HTTP status and API-facing detail.
func errorStatus(err error) (int, *models.ErrorDetail) {
	se := models.AsScrapeError(err)
	return mapErrorToStatus(se), se.ToDetail()
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeSinkUnavailable:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
