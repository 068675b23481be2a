package reviewserver

import (
	"encoding/json"
	"net/http"
)

// apiError is the wire shape of every error response.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	status int
}

const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeNotFound       = "NOT_FOUND"
	codeNoCurrentCard  = "NO_CURRENT_CARD"
	codeStoreFailed    = "STORE_FAILED" // retryable; session state unchanged
	codeInternal       = "INTERNAL"
)

func invalidRequest(msg string) *apiError {
	return &apiError{Code: codeInvalidRequest, Message: msg, status: http.StatusBadRequest}
}

func notFound(msg string) *apiError {
	return &apiError{Code: codeNotFound, Message: msg, status: http.StatusNotFound}
}

func noCurrentCard() *apiError {
	return &apiError{Code: codeNoCurrentCard, Message: "no current card; the sitting is complete or empty", status: http.StatusConflict}
}

func storeFailed(err error) *apiError {
	return &apiError{Code: codeStoreFailed, Message: err.Error(), status: http.StatusServiceUnavailable}
}

func internal(err error) *apiError {
	return &apiError{Code: codeInternal, Message: err.Error(), status: http.StatusInternalServerError}
}

func writeError(w http.ResponseWriter, e *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.status)
	json.NewEncoder(w).Encode(e)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
