// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api

import (
	"net/http"
	"net/http/httputil"

	"github.com/juju/errors"

	"github.com/canonical/aaacfg/version"
)

// userAgent identifies this client version on every request.
const userAgent = "aaacfg-client/" + version.Current

// Transport defines a type for making the actual request.
type Transport interface {
	// Do performs the *http.Request and returns a *http.Response or an
	// error if the request could not be sent.
	Do(*http.Request) (*http.Response, error)
}

// APIRequester wraps a transport, stamping each request with the
// client User-Agent and logging the exchange at TRACE. Responses are
// returned whatever their status code; the caller decides what a
// failure looks like.
type APIRequester struct {
	transport Transport
}

// NewAPIRequester creates a requester around the given transport.
func NewAPIRequester(transport Transport) *APIRequester {
	return &APIRequester{
		transport: transport,
	}
}

// Do performs the *http.Request and returns a *http.Response or an
// error if the request could not be sent.
func (r *APIRequester) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	if logger.IsTraceEnabled() {
		if data, err := httputil.DumpRequest(req, true); err == nil {
			logger.Tracef("%s request %s", req.Method, data)
		} else {
			logger.Tracef("%s request DumpRequest error %s", req.Method, err.Error())
		}
	}

	resp, err := r.transport.Do(req)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if logger.IsTraceEnabled() {
		if data, err := httputil.DumpResponse(resp, true); err == nil {
			logger.Tracef("%s response %s", req.Method, data)
		} else {
			logger.Tracef("%s response DumpResponse error %s", req.Method, err.Error())
		}
	}
	return resp, nil
}
