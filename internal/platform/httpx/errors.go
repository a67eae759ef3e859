package httpx

import (
	"errors"
	"log/slog"
	"net/http"
)

// StatusMap associates HTTP status codes with the domain sentinels that map
// to them. Each handler package declares one for its own error vocabulary.
type StatusMap map[int][]error

// RespondError writes the RFC7807 response for err. A sentinel found in
// statuses gets its mapped code; anything unmapped is logged under scope and
// reported as an opaque 500.
func RespondError(w http.ResponseWriter, logger *slog.Logger, scope string, err error, statuses StatusMap) {
	for status, sentinels := range statuses {
		for _, sentinel := range sentinels {
			if errors.Is(err, sentinel) {
				Problem(w, status, statusTitle(status), err.Error())
				return
			}
		}
	}
	if logger != nil {
		logger.Error(scope+" request failed", slog.Any("error", err))
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func statusTitle(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Not Found"
	case http.StatusConflict:
		return "Conflict"
	case http.StatusBadRequest:
		return "Validation Failed"
	case http.StatusUnprocessableEntity:
		return "Precondition Failed"
	case http.StatusForbidden:
		return "Forbidden"
	default:
		return http.StatusText(status)
	}
}
