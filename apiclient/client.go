// Package apiclient is the HTTP client that the contract tests use to talk to the application
// under test.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/launchdarkly/spaces-contract-tests/framework"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// OpaqueIDHeader is sent with every request so that a failed test can be matched up with the
// application's own logs.
const OpaqueIDHeader = "X-Opaque-Id"

// Credentials are optional basic auth credentials. If neither value is defined, no Authorization
// header is sent.
type Credentials struct {
	Username ldvalue.OptionalString
	Password ldvalue.OptionalString
}

// BasicAuth is a shortcut for Credentials with both values defined.
func BasicAuth(username, password string) Credentials {
	return Credentials{
		Username: ldvalue.NewOptionalString(username),
		Password: ldvalue.NewOptionalString(password),
	}
}

func (c Credentials) IsDefined() bool {
	return c.Username.IsDefined() || c.Password.IsDefined()
}

// GetRequest describes a single GET call.
type GetRequest struct {
	// Path is appended to the client's base URL.
	Path string
	Auth Credentials
	// ExpectStatus, if defined, causes Get to return an *UnexpectedStatusError when the response
	// has any other status.
	ExpectStatus ldvalue.OptionalInt
	// Logger receives a description of the request and response. It is normally the debug logger
	// of the test that is making the request.
	Logger framework.Logger
}

// Client issues requests against one base URL.
type Client struct {
	http    *resty.Client
	baseURL string
}

// Option is an optional setting for New.
type Option func(*resty.Client)

// WithHTTPClient makes the client use a specific *http.Client, such as the one belonging to an
// httptest.Server.
func WithHTTPClient(hc *http.Client) Option {
	return func(rc *resty.Client) {
		rc.SetTransport(hc.Transport)
	}
}

// WithLogger sends resty's own warnings and errors to the specified logger.
func WithLogger(logger framework.Logger) Option {
	return func(rc *resty.Client) {
		rc.SetLogger(restyLogger{logger})
	}
}

// New creates a Client for the application at baseURL.
func New(baseURL string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetLogger(restyLogger{framework.NullLogger()}).
		SetHeader("Accept", "application/json").
		SetHeader("kbn-xsrf", "spaces-contract-tests")
	for _, o := range opts {
		o(rc)
	}
	return &Client{http: rc, baseURL: rc.BaseURL}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request. A non-nil error means either that the request could not be
// completed, or that the status did not match req.ExpectStatus.
func (c *Client) Get(ctx context.Context, req GetRequest) (*Response, error) {
	logger := req.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opaqueID := uuid.NewString()
	r := c.http.R().
		SetContext(ctx).
		SetHeader(OpaqueIDHeader, opaqueID)
	if req.Auth.IsDefined() {
		r.SetBasicAuth(req.Auth.Username.OrElse(""), req.Auth.Password.OrElse(""))
		logger.Printf("GET %s%s as %q (%s: %s)", c.baseURL, req.Path, req.Auth.Username.OrElse(""), OpaqueIDHeader, opaqueID)
	} else {
		logger.Printf("GET %s%s without credentials (%s: %s)", c.baseURL, req.Path, OpaqueIDHeader, opaqueID)
	}

	rr, err := r.Get(req.Path)
	if err != nil {
		return nil, fmt.Errorf("GET %s%s: %w", c.baseURL, req.Path, err)
	}
	logger.Printf("Received HTTP %d: %s", rr.StatusCode(), string(rr.Body()))

	resp := &Response{
		Method:  http.MethodGet,
		URL:     rr.Request.URL,
		Status:  rr.StatusCode(),
		Header:  rr.Header(),
		RawBody: rr.Body(),
	}

	if expected, ok := req.ExpectStatus.Get(); ok && expected != resp.Status {
		return resp, &UnexpectedStatusError{
			Method:   resp.Method,
			URL:      resp.URL,
			Expected: expected,
			Actual:   resp.Status,
			Body:     resp.RawBody,
		}
	}

	body, err := decodeBody(resp.Header.Get("Content-Type"), resp.RawBody)
	if err != nil {
		return resp, fmt.Errorf("GET %s%s: %w", c.baseURL, req.Path, err)
	}
	resp.Body = body
	return resp, nil
}

// decodeBody turns a response body into a JSON value. An empty body becomes the empty string and
// a body that is not declared as JSON becomes a string of its text; only a body declared as JSON
// is parsed, and it must be valid.
func decodeBody(contentType string, raw []byte) (ldvalue.Value, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ldvalue.String(""), nil
	}
	if !strings.Contains(strings.ToLower(contentType), "json") {
		return ldvalue.String(string(raw)), nil
	}
	var v ldvalue.Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return ldvalue.Null(), fmt.Errorf("malformed JSON response body %q: %w", string(raw), err)
	}
	return v, nil
}

type restyLogger struct {
	target framework.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.target.Printf("ERROR "+format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.target.Printf("WARN "+format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.target.Printf("DEBUG "+format, v...)
}
