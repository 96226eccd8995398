package handlers

import (
	"encoding/json"
	"net/http"

	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// errorBody matches the {"detail": ...} shape dashboard clients expect
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Warnw("Failed to encode response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps err onto a status code. prefix is prepended to the
// detail of unexpected errors.
func writeError(w http.ResponseWriter, log *logger.Logger, prefix string, err error) {
	status := statusOf(err)

	var verr *errors.ValidationError
	detail := err.Error()
	if errors.As(err, &verr) {
		detail = verr.Message
	}
	if status == http.StatusInternalServerError {
		log.Errorw(prefix, "error", err)
		detail = prefix + ": " + detail
	}
	writeDetail(w, status, detail)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrInvalidUpload):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrBatchInProgress), errors.Is(err, errors.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, errors.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, errors.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
