package vcd

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
)

// ErrorKind identifies a class of vCloud API failure.
type ErrorKind string

const (
	// ErrorKindAuthentication covers 401 and 403 responses.
	ErrorKindAuthentication ErrorKind = "authentication"

	// ErrorKindServer covers 500 responses.
	ErrorKindServer ErrorKind = "server"

	// ErrorKindMethodNotAllowed covers 405 responses.
	ErrorKindMethodNotAllowed ErrorKind = "method-not-allowed"

	// ErrorKindWrongAPIVersion is a 400 caused by an unsupported Accept header.
	ErrorKindWrongAPIVersion ErrorKind = "wrong-api-version"

	// ErrorKindWrongIdentifier is a 400 caused by a malformed entity ID.
	ErrorKindWrongIdentifier ErrorKind = "wrong-identifier"

	// ErrorKindInvalidState is a 400 caused by a power-state mismatch on the
	// target entity (running when it must be stopped, or vice versa).
	ErrorKindInvalidState ErrorKind = "invalid-state"

	// ErrorKindUnhandled is the catch-all for server messages the classifier
	// does not recognize. The server's error vocabulary is free text, so the
	// taxonomy stays open rather than enumerating every message.
	ErrorKindUnhandled ErrorKind = "unhandled"
)

// APIError is an error returned by the vCloud API, classified into one of
// the ErrorKind buckets with a message suitable for direct display.
type APIError struct {
	Kind           ErrorKind
	StatusCode     int
	MajorErrorCode string
	Message        string

	// EntityName is populated for invalid-state errors, extracted from the
	// server's error text.
	EntityName string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Static errors for local (non-server) failure conditions.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrHostRequired        = errors.New("host is required")
	ErrCredentialsRequired = errors.New("username, password and org are required")
	ErrNotAuthenticated    = errors.New("not authenticated")

	// ErrMissingAuthHeader indicates a login response that did not carry the
	// x-vcloud-authorization header. It is a local failure, distinct from
	// server-side API errors.
	ErrMissingAuthHeader = errors.New("unable to authenticate: missing x-vcloud-authorization header")

	// ErrMalformedErrorBody indicates the server's error response body could
	// not be parsed as the expected XML shape.
	ErrMalformedErrorBody = errors.New("unable to parse error response body")

	// ErrFileNotFound indicates a local file scheduled for upload is missing.
	ErrFileNotFound = errors.New("upload file not found")

	// ErrTaskFailed wraps the error message of a task that reached the
	// "error" terminal state.
	ErrTaskFailed = errors.New("task failed")

	// ErrTaskTimeout indicates the configured poll timeout elapsed before
	// the task left the running state.
	ErrTaskTimeout = errors.New("timeout waiting for task completion")

	// ErrUploadAborted wraps a chunk upload that exhausted its retry budget.
	ErrUploadAborted = errors.New("chunk upload aborted")

	ErrTemplateUploadFailed = errors.New("vApp template upload failed")
	ErrMissingLocation      = errors.New("response is missing the Location header")
	ErrMissingUploadLink    = errors.New("response is missing an upload:default link")
)

// badRequestRule pairs a server-message pattern with an error constructor.
// Rules are evaluated in priority order; the first match wins.
type badRequestRule struct {
	pattern *regexp.Regexp
	build   func(match []string, apiVersion string) *APIError
}

var badRequestRules = []badRequestRule{
	{
		pattern: regexp.MustCompile(`The request has invalid accept header`),
		build: func(_ []string, apiVersion string) *APIError {
			return &APIError{
				Kind:    ErrorKindWrongAPIVersion,
				Message: fmt.Sprintf("invalid accept header: verify that the server supports v.%s or specify a different API version", apiVersion),
			}
		},
	},
	{
		pattern: regexp.MustCompile(`validation error on field 'id': String value has invalid format or length`),
		build: func(_ []string, _ string) *APIError {
			return &APIError{
				Kind:    ErrorKindWrongIdentifier,
				Message: "invalid ID specified: verify that the item exists and is correctly typed",
			}
		},
	},
	{
		pattern: regexp.MustCompile(`The requested operation could not be executed on vApp "(.*)"\. Stop the vApp and try again`),
		build: func(match []string, _ string) *APIError {
			return &APIError{
				Kind:       ErrorKindInvalidState,
				EntityName: match[1],
				Message:    fmt.Sprintf("invalid request because vApp is running: stop vApp '%s' and try again", match[1]),
			}
		},
	},
	{
		pattern: regexp.MustCompile(`The requested operation could not be executed since vApp "(.*)" is not running`),
		build: func(match []string, _ string) *APIError {
			return &APIError{
				Kind:       ErrorKindInvalidState,
				EntityName: match[1],
				Message:    fmt.Sprintf("invalid request because vApp is stopped: start vApp '%s' and try again", match[1]),
			}
		},
	},
}

// classifyBadRequest maps a 400 body message onto the rule table.
func classifyBadRequest(body *ErrorBody, apiVersion string) *APIError {
	for _, rule := range badRequestRules {
		match := rule.pattern.FindStringSubmatch(body.Message)
		if match != nil {
			apiErr := rule.build(match, apiVersion)
			apiErr.StatusCode = 400
			apiErr.MajorErrorCode = body.MajorErrorCode

			return apiErr
		}
	}

	return &APIError{
		Kind:           ErrorKindUnhandled,
		StatusCode:     400,
		MajorErrorCode: body.MajorErrorCode,
		Message:        fmt.Sprintf("bad request - unhandled error: %s. Please report this issue", body.Message),
	}
}

// ClassifyResponse converts an HTTP failure into a typed *APIError. The
// method and path are embedded into 405 messages; apiVersion into the
// wrong-accept-header message. A body that cannot be parsed surfaces
// ErrMalformedErrorBody rather than a taxonomy kind.
func ClassifyResponse(method, path string, statusCode int, body []byte, apiVersion string) error {
	// 401 carries a fixed message regardless of body content.
	if statusCode == 401 {
		return &APIError{
			Kind:       ErrorKindAuthentication,
			StatusCode: statusCode,
			Message:    "client not authorized: check your credentials",
		}
	}

	errBody, err := ParseErrorBody(body)
	if err != nil {
		return fmt.Errorf("%w (status %d): %w", ErrMalformedErrorBody, statusCode, err)
	}

	switch statusCode {
	case 400:
		return classifyBadRequest(errBody, apiVersion)
	case 403:
		return &APIError{
			Kind:           ErrorKindAuthentication,
			StatusCode:     statusCode,
			MajorErrorCode: errBody.MajorErrorCode,
			Message:        fmt.Sprintf("operation not permitted: %s", errBody.Message),
		}
	case 405:
		return &APIError{
			Kind:           ErrorKindMethodNotAllowed,
			StatusCode:     statusCode,
			MajorErrorCode: errBody.MajorErrorCode,
			Message:        fmt.Sprintf("method %s not allowed for %s: %s", method, path, errBody.Message),
		}
	case 500:
		return &APIError{
			Kind:           ErrorKindServer,
			StatusCode:     statusCode,
			MajorErrorCode: errBody.MajorErrorCode,
			Message:        fmt.Sprintf("internal server error: %s", errBody.Message),
		}
	default:
		return &APIError{
			Kind:           ErrorKindUnhandled,
			StatusCode:     statusCode,
			MajorErrorCode: errBody.MajorErrorCode,
			Message:        fmt.Sprintf("unhandled error (status %d): %s. Please report this issue", statusCode, errBody.Message),
		}
	}
}

// ParseErrorBody parses the server's XML error document. The classifier
// depends only on the message and majorErrorCode attributes.
func ParseErrorBody(data []byte) (*ErrorBody, error) {
	var body ErrorBody

	err := xml.Unmarshal(data, &body)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling error body: %w", err)
	}

	return &body, nil
}

// IsAuthentication checks if the error is an authentication error (401/403).
func IsAuthentication(err error) bool {
	return isKind(err, ErrorKindAuthentication)
}

// IsServerError checks if the error is a 500 server error.
func IsServerError(err error) bool {
	return isKind(err, ErrorKindServer)
}

// IsMethodNotAllowed checks if the error is a 405 error.
func IsMethodNotAllowed(err error) bool {
	return isKind(err, ErrorKindMethodNotAllowed)
}

// IsWrongAPIVersion checks if the error was caused by an unsupported
// Accept header version.
func IsWrongAPIVersion(err error) bool {
	return isKind(err, ErrorKindWrongAPIVersion)
}

// IsWrongIdentifier checks if the error was caused by a malformed entity ID.
func IsWrongIdentifier(err error) bool {
	return isKind(err, ErrorKindWrongIdentifier)
}

// IsInvalidState checks if the error was caused by a power-state mismatch.
func IsInvalidState(err error) bool {
	return isKind(err, ErrorKindInvalidState)
}

// IsUnhandled checks if the error fell through to the catch-all bucket.
func IsUnhandled(err error) bool {
	return isKind(err, ErrorKindUnhandled)
}

func isKind(err error, kind ErrorKind) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}

	return false
}
