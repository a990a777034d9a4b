// Package http implements the vCloud Director request executor: versioned
// Accept headers, session authentication, and status-code triage into the
// typed error taxonomy.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/cloudgrid-io/vcd/internal/auth"
	"github.com/cloudgrid-io/vcd/internal/constants"
	"github.com/cloudgrid-io/vcd/pkg/vcd"
)

// Request represents an API request. Path is resolved against the API root
// (host + "/api") unless it is already an absolute URL; the server hands out
// absolute hrefs for transfer endpoints.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Headers     map[string]string
}

// Response represents an API response with its body fully read.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Location returns the Location header, empty when absent.
func (r *Response) Location() string {
	return r.Headers.Get("Location")
}

// Client executes requests against a vCloud Director endpoint. Chunk
// uploads run over a separate transport with a longer timeout since a
// single PUT moves up to a whole chunk.
type Client struct {
	httpClient   *http.Client
	uploadClient *http.Client
	hostURL      string
	apiURL       string
	session      *auth.Session
	apiVersion   string
	userAgent    string
	logger       vcd.Logger
	debug        bool
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the structured logger used for request logging.
func WithLogger(logger vcd.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables per-request debug logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithAPIVersion sets the version negotiated via the Accept header.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithRetryConfig enables transport-level retries for transient failures
// (connection errors, 429 and 5xx responses).
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = maxRetries
		retryClient.RetryWaitMin = waitMin
		retryClient.RetryWaitMax = waitMax
		retryClient.Logger = nil
		retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

		c.httpClient = retryClient.StandardClient()
	}
}

// WithHTTPClient replaces the HTTP client used for API requests. Chunk
// uploads keep their own transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a request executor for the given host. The host is the
// bare endpoint URL; the API root is host + "/api".
func NewClient(host string, session *auth.Session, opts ...Option) *Client {
	host = strings.TrimSuffix(host, "/")

	client := &Client{
		httpClient:   &http.Client{Timeout: constants.DefaultHTTPTimeout},
		uploadClient: &http.Client{Timeout: constants.UploadHTTPTimeout},
		hostURL:      host,
		apiURL:       host + constants.APIPathPrefix,
		session:      session,
		apiVersion:   constants.DefaultAPIVersion,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// APIVersion returns the negotiated API version.
func (c *Client) APIVersion() string {
	return c.apiVersion
}

// HostURL returns the bare endpoint URL without the API prefix.
func (c *Client) HostURL() string {
	return c.hostURL
}

// APIURL returns the API root URL (host + "/api").
func (c *Client) APIURL() string {
	return c.apiURL
}

// Do executes a request. Statuses 200, 201, 202 and 204 succeed; other
// sub-400 statuses are logged and returned without error; 400 and above are
// classified into the typed error taxonomy. The response is returned even
// alongside an error so callers can inspect headers.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.do(ctx, req, c.httpClient)
}

func (c *Client) do(ctx context.Context, req *Request, httpClient *http.Client) (*Response, error) {
	fullURL := req.Path
	if !strings.HasPrefix(fullURL, "http://") && !strings.HasPrefix(fullURL, "https://") {
		fullURL = c.apiURL + req.Path
	}

	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", fmt.Sprintf(constants.AcceptHeaderFormat, c.apiVersion))

	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	c.applyAuth(httpReq)

	if c.debug && c.logger != nil {
		c.logger.Debug("api request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	start := time.Now()

	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing %s %s: %w", req.Method, req.Path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("api response", map[string]interface{}{
			"method":   req.Method,
			"url":      fullURL,
			"status":   httpResp.StatusCode,
			"duration": time.Since(start).String(),
		})
	}

	switch {
	case httpResp.StatusCode == 200 || httpResp.StatusCode == 201 ||
		httpResp.StatusCode == 202 || httpResp.StatusCode == 204:
		return resp, nil
	case httpResp.StatusCode < 400:
		if c.logger != nil {
			c.logger.Warn("unexpected response status", map[string]interface{}{
				"method": req.Method,
				"url":    fullURL,
				"status": httpResp.StatusCode,
			})
		}

		return resp, nil
	default:
		return resp, vcd.ClassifyResponse(req.Method, req.Path, httpResp.StatusCode, respBody, c.apiVersion)
	}
}

// applyAuth sets the session token header when present, falling back to
// Basic bootstrap credentials.
func (c *Client) applyAuth(httpReq *http.Request) {
	if c.session == nil {
		return
	}

	if token := c.session.Token(); token != "" {
		httpReq.Header.Set(constants.AuthHeader, token)

		return
	}

	if user, password, ok := c.session.BasicAuth(); ok {
		httpReq.SetBasicAuth(user, password)
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path})
}

// Post performs a POST request with an XML payload.
func (c *Client) Post(ctx context.Context, path string, body []byte, contentType string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, ContentType: contentType})
}

// Put performs a PUT request with an XML payload.
func (c *Client) Put(ctx context.Context, path string, body []byte, contentType string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body, ContentType: contentType})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// UploadChunk PUTs one chunk of a file to a transfer endpoint with a
// Content-Range header of the form "bytes start-end/total". The request
// runs over the upload transport so a slow link is not cut off by the
// default request timeout.
func (c *Client) UploadChunk(ctx context.Context, path string, chunk []byte, rangeStart, rangeEnd, total int64) (*Response, error) {
	return c.do(ctx, &Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   chunk,
		Headers: map[string]string{
			"Content-Range": fmt.Sprintf("bytes %d-%d/%d", rangeStart, rangeEnd, total),
		},
	}, c.uploadClient)
}
