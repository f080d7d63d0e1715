package mlflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error codes returned by the tracking server.
const (
	ErrorCodeResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ErrorCodeResourceDoesNotExist  = "RESOURCE_DOES_NOT_EXIST"
	ErrorCodeInvalidParameterValue = "INVALID_PARAMETER_VALUE"
)

// APIError is a non-2xx reply from the tracking server.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("mlflow API error (%d): %s - %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("mlflow API error (%d): %s", e.StatusCode, e.Message)
}

// IsResourceAlreadyExists reports whether err is an APIError for an entity
// that already exists.
func IsResourceAlreadyExists(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == ErrorCodeResourceAlreadyExists
}

// IsNotFound reports whether err is an APIError for a missing entity.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode == ErrorCodeResourceDoesNotExist || apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is an APIError caused by rejected credentials.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// handleError reads the error body and returns an *APIError.
func handleError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var apiErr struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if json.Unmarshal(body, &apiErr) == nil && (apiErr.ErrorCode != "" || apiErr.Message != "") {
		return &APIError{StatusCode: resp.StatusCode, ErrorCode: apiErr.ErrorCode, Message: apiErr.Message}
	}

	msg := string(body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
