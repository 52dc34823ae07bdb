package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError represents a non-success HTTP response from the Wit API.
type APIError struct {
	Status    int
	RequestID string
	Code      string
	Message   string
	Body      []byte
	Err       error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("wit: %s (status=%d, code=%s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("wit: %s (status=%d)", e.Message, e.Status)
}

// Unwrap returns the underlying sentinel for errors.Is.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Sentinel errors for classification.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrBadResponse   = errors.New("bad response")
	ErrDecode        = errors.New("decode error")
	ErrConfig        = errors.New("invalid configuration")
	ErrInvalidMethod = errors.New("unsupported HTTP method")

	ErrResponseTooLarge = errors.New("response body exceeds limit")
)

// unauthorizedMessage tells the caller where the token comes from.
const unauthorizedMessage = "incorrect token or not set: set WIT_AI_TOKEN or pass the token with core.WithToken"

// witErrorBody is the error envelope the API returns on failures.
type witErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// normalizeError converts a non-200 response into an APIError.
func normalizeError(resp *Response, requestID string) error {
	var body witErrorBody
	_ = json.Unmarshal(resp.Body, &body)

	if resp.StatusCode == http.StatusUnauthorized {
		return &APIError{
			Status:    resp.StatusCode,
			RequestID: requestID,
			Code:      body.Code,
			Message:   unauthorizedMessage,
			Body:      resp.Body,
			Err:       ErrUnauthorized,
		}
	}

	message := strings.TrimSpace(body.Error)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	if message == "" {
		message = "unexpected response"
	}
	return &APIError{
		Status:    resp.StatusCode,
		RequestID: requestID,
		Code:      body.Code,
		Message:   message,
		Body:      resp.Body,
		Err:       ErrBadResponse,
	}
}

// newDecodeError wraps a JSON parse failure of a 200 body.
func newDecodeError(resp *Response, requestID string, err error) error {
	return &APIError{
		Status:    resp.StatusCode,
		RequestID: requestID,
		Message:   err.Error(),
		Body:      resp.Body,
		Err:       ErrDecode,
	}
}
