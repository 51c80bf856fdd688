package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/configurator/pkg/errors"
)

// maxErrorBody bounds how much of an error response body is read.
const maxErrorBody = 1 << 20

// DownstreamErrorResponse covers the two error body shapes seen from upstream
// services: the `{"status":"fail","message":"..."}` envelope used by the
// catalog backend and the `{"error":{"code":"...","message":"..."}}` envelope
// this service writes itself.
type DownstreamErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (d *DownstreamErrorResponse) codeAndMessage() (code, message string, ok bool) {
	if d.Error != nil {
		return d.Error.Code, d.Error.Message, true
	}
	if d.Message != "" {
		return strings.ToUpper(d.Status), d.Message, true
	}
	return "", "", false
}

// ParseResponseError reads the body of a non-2xx response and translates it
// into an AppError. The body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var downstream DownstreamErrorResponse
	if json.Unmarshal(bodyBytes, &downstream) == nil {
		if code, message, ok := downstream.codeAndMessage(); ok {
			return mapDownstreamError(resp.StatusCode, code, message, serviceName)
		}
	}

	return mapDownstreamError(resp.StatusCode, "", strings.TrimSpace(string(bodyBytes)), serviceName)
}

// MapCallError converts an error returned by Do into an AppError. Upstream
// 5xx responses turned into *UpstreamError by the breaker are mapped like any
// other downstream error; errors that already are AppErrors (such as a
// breaker fallback) pass through; anything else is a transport failure.
func MapCallError(err error, serviceName string) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		var downstream DownstreamErrorResponse
		if json.Unmarshal([]byte(upstream.Body), &downstream) == nil {
			if code, message, ok := downstream.codeAndMessage(); ok {
				return mapDownstreamError(upstream.StatusCode, code, message, serviceName)
			}
		}
		return mapDownstreamError(upstream.StatusCode, "", strings.TrimSpace(upstream.Body), serviceName)
	}

	if errors.Is(err, ErrCircuitOpen) {
		return apperrors.ServiceUnavailable(fmt.Sprintf("%s: temporarily unavailable", serviceName))
	}

	return apperrors.BadGateway(fmt.Sprintf("%s: request failed", serviceName), err)
}

// mapDownstreamError translates an upstream status into the AppError that
// preserves its meaning for our own callers.
func mapDownstreamError(status int, code, message, serviceName string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	qualifiedMsg := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: qualifiedMsg,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualifiedMsg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualifiedMsg)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualifiedMsg)
	case status >= 500:
		return apperrors.BadGateway(qualifiedMsg, fmt.Errorf("%s server error (%d/%s)", serviceName, status, code))
	default:
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		return &apperrors.AppError{
			Code:    code,
			Message: qualifiedMsg,
			Status:  status,
		}
	}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

// IsSuccess reports whether status is a 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
