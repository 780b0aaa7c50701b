package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// errorBody matches both the storefront envelope ({"error":{"code","message"}})
// and Elasticsearch errors ({"error":{"type","reason"},"status":N}).
type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// ParseResponseError reads a non-2xx response and maps it to an AppError.
// The body is consumed and closed.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	message := string(raw)
	var body errorBody
	if json.Unmarshal(raw, &body) == nil && body.Error != nil {
		switch {
		case body.Error.Message != "":
			message = body.Error.Message
		case body.Error.Reason != "":
			message = body.Error.Type + ": " + body.Error.Reason
		}
	}
	return StatusError(resp.StatusCode, service, message)
}

// StatusError maps an HTTP status from a downstream service to an AppError.
func StatusError(status int, service, message string) error {
	qualified := fmt.Sprintf("%s: %s", service, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(service, "resource")
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusTooManyRequests || status >= 500:
		return apperrors.Unavailable(service+" unavailable", fmt.Errorf("status %d: %s", status, message))
	default:
		return fmt.Errorf("%s returned status %d: %s", service, status, message)
	}
}

// IsClientError reports whether status is 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
