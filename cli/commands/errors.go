package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/petal-labs/wit/core"
	"github.com/petal-labs/wit/session"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitValidation   = 1
	ExitAPI          = 2
	ExitNetwork      = 3
	ExitUnauthorized = 4
)

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// classify maps an error to its exit code and a short machine-readable type.
func classify(err error) (int, string) {
	var apiErr *core.APIError
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return ExitUnauthorized, "unauthorized"
	case errors.As(err, &apiErr), errors.Is(err, core.ErrResponseTooLarge):
		return ExitAPI, "api_error"
	case errors.Is(err, core.ErrConfig), errors.Is(err, session.ErrMissingID):
		return ExitValidation, "validation_error"
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return ExitNetwork, "network_error"
	default:
		return ExitValidation, "error"
	}
}

// handleError reports err on stderr and attaches the exit code.
func (a *App) handleError(err error) error {
	if err == nil {
		return nil
	}
	code, errType := classify(err)

	var apiErr *core.APIError
	hasAPIErr := errors.As(err, &apiErr)

	if a.jsonOutput {
		body := map[string]any{
			"type":    errType,
			"message": err.Error(),
		}
		if hasAPIErr {
			body["status"] = apiErr.Status
			body["code"] = apiErr.Code
			body["request_id"] = apiErr.RequestID
		}
		enc := json.NewEncoder(a.stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{"error": body})
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		if hasAPIErr && apiErr.RequestID != "" {
			fmt.Fprintf(a.stderr, "  Status: %d, Request ID: %s\n", apiErr.Status, apiErr.RequestID)
		}
	}
	return exitWithCode(code, err)
}
