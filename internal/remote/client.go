// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/urlsync/internal/config"
	"github.com/tomtom215/urlsync/internal/metrics"
)

// ClientVersion is sent on every call. The service compares it against the
// minimum supported version and answers HTTP 400 when this client is too old.
const ClientVersion = "2.0.1"

// API endpoints, relative to the configured base URL.
const (
	EndpointAccountDetails = "account/details"
	EndpointBatchURLs      = "urls"
	EndpointStartSync      = "start-sync"
)

// Request headers carrying website identity.
const (
	headerDomain  = "X-Urlsync-Domain"
	headerCaller  = "X-Urlsync-Caller"
	headerVersion = "X-Urlsync-Version"
)

// maxBodySize bounds how much of a response body is read (16MB).
const maxBodySize = 16 << 20

// API is the call surface the rest of the engine depends on. It is
// implemented by Client, by BreakerClient, and by test fakes.
type API interface {
	Call(ctx context.Context, method, endpoint string, body interface{}) (Result, error)
}

// Client handles communication with the tracking service HTTP API.
//
// Every call carries the bearer token plus domain, caller and client-version
// identification headers, and is classified into a Result (see ResultKind).
// Only transport-level problems surface as errors.
//
// Thread Safety: safe for concurrent use. Each request creates its own
// HTTP request.
type Client struct {
	baseURL string
	token   string
	domain  string
	caller  string
	client  *http.Client
}

// NewClient creates a tracking service API client from configuration.
func NewClient(cfg *config.RemoteConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		domain:  cfg.Domain,
		caller:  cfg.Caller,
		client:  &http.Client{Timeout: timeout},
	}
}

// Call performs one API call and classifies the outcome.
//
// Classification rules, in order:
//   - no token configured: KindNoCredential without a network call
//   - HTTP 401: KindUnauthorized
//   - HTTP 400 with a version-mismatch body: KindUpdateRequired
//   - HTTP 500 on the account-details endpoint: KindNeedsActivation
//   - valid JSON body: KindOK with the payload
//   - anything else: KindRaw with the verbatim body
func (c *Client) Call(ctx context.Context, method, endpoint string, body interface{}) (Result, error) {
	if c.token == "" {
		metrics.APICallResults.WithLabelValues(endpoint, KindNoCredential.String()).Inc()
		return Result{Kind: KindNoCredential}, nil
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, reqBody)
	if err != nil {
		return Result{}, fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set(headerDomain, c.domain)
	req.Header.Set(headerCaller, c.caller)
	req.Header.Set(headerVersion, ClientVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.APICallDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APICallResults.WithLabelValues(endpoint, "transport_error").Inc()
		return Result{}, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.APICallResults.WithLabelValues(endpoint, "transport_error").Inc()
		return Result{}, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	result := classify(resp.StatusCode, endpoint, respBody)
	metrics.APICallResults.WithLabelValues(endpoint, result.Kind.String()).Inc()
	return result, nil
}

// classify maps an HTTP outcome to a Result.
func classify(status int, endpoint string, body []byte) Result {
	switch {
	case status == http.StatusUnauthorized:
		return Result{Kind: KindUnauthorized, StatusCode: status}
	case status == http.StatusBadRequest && isVersionMismatch(body):
		return Result{Kind: KindUpdateRequired, StatusCode: status}
	case status == http.StatusInternalServerError && endpoint == EndpointAccountDetails:
		return Result{Kind: KindNeedsActivation, StatusCode: status}
	}

	if json.Valid(body) {
		return Result{Kind: KindOK, StatusCode: status, Payload: json.RawMessage(body)}
	}
	return Result{Kind: KindRaw, StatusCode: status, Raw: string(body)}
}

// isVersionMismatch detects the service's "update required" rejection body.
// The service answers HTTP 400 with {"message": "update required", ...} when
// the client-version header is below its minimum supported version.
func isVersionMismatch(body []byte) bool {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(payload.Message), "update required")
}

// AccountDetails is the account status payload of the account-details
// endpoint. The status endpoint reports it and the activation flow polls it.
type AccountDetails struct {
	Email        string `json:"email"`
	Status       string `json:"status"`
	ChecksDone   int    `json:"checks_done"`
	ChecksLeft   int    `json:"checks_left"`
	RenewalDate  string `json:"renewal_at,omitempty"`
	PlanName     string `json:"plan_name,omitempty"`
	WebsiteCount int    `json:"website_count,omitempty"`
}

// FetchAccountDetails calls the account-details endpoint through any API
// implementation and decodes the payload on success. The Result is returned
// alongside so callers can react to needs-activation and friends.
func FetchAccountDetails(ctx context.Context, api API) (*AccountDetails, Result, error) {
	res, err := api.Call(ctx, http.MethodGet, EndpointAccountDetails, nil)
	if err != nil || !res.OK() {
		return nil, res, err
	}
	details := &AccountDetails{}
	if err := res.Decode(details); err != nil {
		return nil, res, err
	}
	return details, res, nil
}
