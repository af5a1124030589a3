package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"discodoge/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeUpstream         = "upstream_error"
	ErrCodeBadGateway       = "bad_gateway"
	ErrCodeInternalError    = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: nil})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Data:  nil,
		Error: &APIError{Code: code, Message: message},
	})
}

// ErrorStatus maps an error from the domain or the content API to a response status,
// code and message. Remote statuses are propagated unchanged.
func ErrorStatus(err error) (int, string, string) {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		if authErr.Kind == domain.AuthNetwork {
			return authErr.Status, ErrCodeBadGateway, authErr.Message
		}
		return authErr.Status, codeForStatus(authErr.Status), authErr.Message
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrCodeBadRequest, verr.Error()
	}
	var remote *domain.RemoteError
	if errors.As(err, &remote) {
		return remote.Status, codeForStatus(remote.Status), remote.Message
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway, ErrCodeBadGateway, domain.ErrNetwork.Error()
	}
	return http.StatusInternalServerError, ErrCodeInternalError, "internal error"
}

// WriteDomainError writes err using the status chosen by ErrorStatus.
func WriteDomainError(w http.ResponseWriter, err error) {
	status, code, message := ErrorStatus(err)
	WriteJSONError(w, status, code, message)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeUnauthorized
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusMethodNotAllowed:
		return ErrCodeMethodNotAllowed
	case http.StatusBadGateway:
		return ErrCodeBadGateway
	}
	if status >= 500 {
		return ErrCodeUpstream
	}
	return ErrCodeBadRequest
}
