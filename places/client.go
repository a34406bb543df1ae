// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

// Package places is a client for the Google Places autocomplete and place
// details web services.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/places/utils/httputils"
)

// DefaultBaseURL is the root of the places web service.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Status is the status field of every places API response.
type Status string

// Statuses documented by the places web service.
const (
	StatusOK             Status = "OK"
	StatusZeroResults    Status = "ZERO_RESULTS"
	StatusNotFound       Status = "NOT_FOUND"
	StatusOverQueryLimit Status = "OVER_QUERY_LIMIT"
	StatusRequestDenied  Status = "REQUEST_DENIED"
	StatusInvalidRequest Status = "INVALID_REQUEST"
	StatusUnknownError   Status = "UNKNOWN_ERROR"
)

// ClientOptions configuration for Client.
type ClientOptions struct {
	// BaseURL overrides DefaultBaseURL
	BaseURL string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Timeout for a whole request, 10 seconds when zero
	Timeout time.Duration

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// HTTPClient replaces the client built from the options above
	HTTPClient *http.Client
}

// Client talks to the places web service.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a new client with the provided key and options.
func NewClient(apiKey string, options *ClientOptions) *Client {
	if options == nil {
		options = &ClientOptions{}
	}

	baseURL := DefaultBaseURL
	if options.BaseURL != "" {
		baseURL = strings.TrimRight(options.BaseURL, "/")
	}

	client := options.HTTPClient
	if client == nil {
		client = newHTTPClient(options)
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

func newHTTPClient(options *ClientOptions) *http.Client {
	var httpLogWriter io.Writer
	if options.EnableHTTPTrace || options.EnableHTTPBodyTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:       httpLogWriter,
		DumpBody:     options.EnableHTTPBodyTrace,
		Transport:    transport,
		RedactParams: []string{"key"},
	}

	userAgent := "places/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		Transport: loggingTransport,
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: headerTransport,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// envelope holds the fields shared by every response.
type envelope struct {
	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// URL returns the full request URL for endpoint ("autocomplete", "details")
// with the API key added to q.
func (c *Client) URL(endpoint string, q *Query) string {
	q.Set("key", c.apiKey)

	return c.baseURL + "/" + endpoint + "/json?" + q.Encode()
}

// get performs a GET on endpoint and decodes the body into out.
// The returned Status is the one reported in the body.
func (c *Client) get(ctx context.Context, endpoint string, q *Query, out any) (Status, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(endpoint, q), nil)
	if err != nil {
		return "", fmt.Errorf("creating %s request: %w", endpoint, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		e := ClassifyHTTPError(resp.StatusCode)

		var env envelope
		if json.Unmarshal(body, &env) == nil && env.ErrorMessage != "" {
			e.Message += ": " + env.ErrorMessage
		}

		return "", e
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", &Error{Type: ErrorTypeDecode, Message: "decoding " + endpoint + " response", Err: err}
	}

	if e := ClassifyStatus(env.Status, env.ErrorMessage); e != nil {
		return env.Status, e
	}

	if err := json.Unmarshal(body, out); err != nil {
		return env.Status, &Error{Type: ErrorTypeDecode, Message: "decoding " + endpoint + " response", Err: err}
	}

	return env.Status, nil
}

// IsArgumentError reports whether err was detected before sending a request.
func IsArgumentError(err error) bool {
	return errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrEmptyPlaceID) || errors.Is(err, ErrMissingAPIKey)
}
