package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an API failure into the closed taxonomy callers branch on.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindRateLimit  Kind = "rate_limit"
	KindNotFound   Kind = "not_found"
	KindServer     Kind = "server"
	KindNetwork    Kind = "network"
)

// APIError is the typed error surfaced for every failed request. Kind is
// always set; StatusCode is zero for network-level failures.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	// RetryAfter holds the Retry-After value in seconds for rate-limit errors.
	RetryAfter int
	// LoginRequired is set when the session token was rejected and the caller
	// should send the user back through login.
	LoginRequired bool
	// Err holds the underlying transport error for network failures.
	Err error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// IsNotFound reports whether err represents a 404 response.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsAuth reports whether err represents an authentication failure.
func IsAuth(err error) bool { return IsKind(err, KindAuth) }

// errorBody is the JSON shape the backend uses for failures. Validation
// failures carry a list of per-field messages; everything else uses detail.
type errorBody struct {
	Detail string `json:"detail"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: "network request failed: " + err.Error(), Err: err}
}

// errorFromResponse translates a non-2xx response into an *APIError.
func errorFromResponse(resp *http.Response, body []byte) *APIError {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)

	detail := parsed.Detail
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		msg := detail
		if len(parsed.Errors) > 0 {
			parts := make([]string, 0, len(parsed.Errors))
			for _, fe := range parsed.Errors {
				if fe.Field != "" {
					parts = append(parts, fe.Field+": "+fe.Message)
				} else {
					parts = append(parts, fe.Message)
				}
			}
			msg = strings.Join(parts, "; ")
		}
		return &APIError{Kind: KindValidation, StatusCode: resp.StatusCode, Message: msg}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &APIError{Kind: KindAuth, StatusCode: resp.StatusCode, Message: detail}
	case resp.StatusCode == http.StatusNotFound:
		return &APIError{Kind: KindNotFound, StatusCode: resp.StatusCode, Message: detail}
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		msg := detail
		if retryAfter > 0 {
			msg = fmt.Sprintf("%s (retry after %d seconds)", detail, retryAfter)
		}
		return &APIError{Kind: KindRateLimit, StatusCode: resp.StatusCode, Message: msg, RetryAfter: retryAfter}
	default:
		return &APIError{Kind: KindServer, StatusCode: resp.StatusCode, Message: detail}
	}
}

func parseRetryAfter(v string) int {
	var seconds int
	if v == "" {
		return 0
	}
	if _, err := fmt.Sscanf(v, "%d", &seconds); err != nil {
		return 0
	}
	return seconds
}
