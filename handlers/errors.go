package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/juho05/paw-id/repos"
	"github.com/juho05/paw-id/services"
)

var (
	ErrInvalidFields      = errors.New("invalid-fields")
	ErrUserExists         = errors.New("user-exists")
	ErrInvalidCredentials = errors.New("invalid-credentials")
)

// respondServiceError translates the error taxonomy of the service layer
// into JSON error responses. Unknown errors become a 500 without leaking
// their message.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var rateLimited services.RateLimitedError
	switch {
	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rateLimited.RetryAfter.Seconds())+1))
		respondError(w, rateLimited, http.StatusTooManyRequests, map[string]any{
			"retryAfter": int(rateLimited.RetryAfter.Seconds()) + 1,
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, ErrInvalidCredentials, http.StatusUnauthorized, nil)
	case errors.Is(err, services.ErrInvalidToken):
		respondError(w, services.ErrInvalidToken, http.StatusUnauthorized, nil)
	case errors.Is(err, services.ErrTokenExpired):
		respondError(w, services.ErrTokenExpired, http.StatusUnauthorized, nil)
	case errors.Is(err, services.ErrNotificationFailed):
		respondError(w, services.ErrNotificationFailed, http.StatusBadGateway, nil)
	case errors.Is(err, services.ErrInvalidCodeFormat):
		respondError(w, services.ErrInvalidCodeFormat, http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrCodeNotFound):
		respondError(w, services.ErrCodeNotFound, http.StatusNotFound, nil)
	case errors.Is(err, services.ErrCodeAlreadyClaimed):
		respondError(w, services.ErrCodeAlreadyClaimed, http.StatusConflict, nil)
	case errors.Is(err, services.ErrCodeAlreadyOwned):
		respondError(w, services.ErrCodeAlreadyOwned, http.StatusConflict, nil)
	case errors.Is(err, services.ErrInvalidBatchSize):
		respondError(w, services.ErrInvalidBatchSize, http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrCodeSpaceExhausted):
		respondError(w, services.ErrCodeSpaceExhausted, http.StatusConflict, nil)
	case errors.Is(err, repos.ErrDuplicateEmail):
		respondError(w, ErrUserExists, http.StatusConflict, nil)
	case errors.Is(err, repos.ErrNoRecord):
		notFound(w)
	default:
		serverError(w, err)
	}
}
