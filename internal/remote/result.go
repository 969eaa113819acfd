// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

// Package remote implements the tracking service API client: authenticated
// HTTP transport with outcome classification, an optional circuit breaker,
// and the batch uploader that fans out one logical upload into concurrent
// per-category sub-requests.
package remote

import (
	"fmt"

	"github.com/goccy/go-json"
)

// ResultKind classifies the outcome of a remote API call. Downstream code
// switches on the kind instead of pattern-matching sentinel strings mixed
// into payloads.
type ResultKind int

const (
	// KindOK means a 2xx (or unclassified) response carrying a valid JSON
	// payload, available in Result.Payload.
	KindOK ResultKind = iota

	// KindRaw means the response body was not JSON; the verbatim body is
	// in Result.Raw.
	KindRaw

	// KindNoCredential means no API token is configured. The call was
	// short-circuited without any network traffic.
	KindNoCredential

	// KindUnauthorized means the remote rejected the token (HTTP 401).
	KindUnauthorized

	// KindUpdateRequired means the remote rejected this client version
	// (HTTP 400 with a version-mismatch body).
	KindUpdateRequired

	// KindNeedsActivation means the account-details endpoint answered
	// HTTP 500, which the service uses for accounts pending activation.
	KindNeedsActivation
)

// String returns the stable label used in logs and metrics.
func (k ResultKind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindRaw:
		return "raw"
	case KindNoCredential:
		return "no_credential"
	case KindUnauthorized:
		return "unauthorized"
	case KindUpdateRequired:
		return "update_required"
	case KindNeedsActivation:
		return "needs_activation"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Result is the classified outcome of one remote API call. Transport-level
// failures are returned as errors alongside a zero Result; every outcome
// that produced an HTTP response is a Result, never an error.
type Result struct {
	Kind       ResultKind
	StatusCode int

	// Payload holds the JSON body when Kind == KindOK.
	Payload json.RawMessage

	// Raw holds the verbatim body when Kind == KindRaw.
	Raw string
}

// OK reports whether the call produced a decodable success payload.
func (r Result) OK() bool {
	return r.Kind == KindOK
}

// Decode unmarshals the success payload into v.
func (r Result) Decode(v interface{}) error {
	if r.Kind != KindOK {
		return fmt.Errorf("cannot decode %s result", r.Kind)
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
