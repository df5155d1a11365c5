package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"planetguard/internal/apperr"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps err to its HTTP status. Causes of storage and internal
// failures are logged, not returned.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok {
		logger.Error("unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: string(apperr.CodeInternal)})
		return
	}

	status := StatusFor(e.Kind)
	if status >= http.StatusInternalServerError {
		logger.Warn("request failed", zap.String("code", string(e.Code)), zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: e.Message, Code: string(e.Code)})
}

// StatusFor returns the HTTP status for an error kind
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindIllegalState:
		return http.StatusUnprocessableEntity
	case apperr.KindTransientStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON request body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation(apperr.CodeInvalidPayload, "invalid request body")
	}
	return nil
}
