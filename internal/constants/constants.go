package constants

import "time"

// API defaults.
const (
	// DefaultAPIVersion is the vCloud API version negotiated via the
	// Accept header when none is configured.
	DefaultAPIVersion = "5.1"

	// AcceptHeaderFormat is the versioned Accept header template.
	AcceptHeaderFormat = "application/*+xml;version=%s"

	// AuthHeader carries the session token on every authenticated request
	// and is returned by the login endpoint.
	AuthHeader = "x-vcloud-authorization"

	// APIPathPrefix is appended to the configured host to form the API root.
	APIPathPrefix = "/api"
)

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// UploadHTTPTimeout is used for chunk upload requests, which move up to
	// DefaultChunkSize bytes per call.
	UploadHTTPTimeout = 5 * time.Minute
)

// Retry limits.
const (
	// DefaultRetryWaitMin is the minimum wait between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between transport retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Task polling.
const (
	// DefaultTaskPollInterval is the fixed delay between task status
	// fetches while waiting for completion.
	DefaultTaskPollInterval = 1 * time.Second
)

// Upload tuning.
const (
	// DefaultChunkSize is the number of bytes moved per Content-Range PUT.
	DefaultChunkSize = 10 * 1024 * 1024

	// DefaultChunkRetryDelay is the wait before retrying a failed chunk.
	DefaultChunkRetryDelay = 5 * time.Second
)

// Cache sizing.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// LookupCacheTTL is the TTL for name→ID lookup entries.
	LookupCacheTTL = 10 * time.Minute
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for tabular output format.
	FormatTable = "table"
)

// Boolean string constants used inside XML payloads.
const (
	// BooleanTrue string representation.
	BooleanTrue = "true"

	// BooleanFalse string representation.
	BooleanFalse = "false"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// BytesToMB converts bytes to megabytes.
	BytesToMB = 1024 * 1024
)
