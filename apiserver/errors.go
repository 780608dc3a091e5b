// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package apiserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/juju/errors"

	"github.com/canonical/aaacfg/apiserver/params"
	aaaerrors "github.com/canonical/aaacfg/domain/aaa/errors"
)

// serverError converts an error into its wire form and HTTP status.
// Errors a client can provoke map to 4xx; translation failures found
// in stored data are the server's problem and map to 500, keeping
// their taxonomy code so clients can still tell them apart.
func serverError(err error) (*params.Error, int) {
	perr := &params.Error{Message: err.Error()}
	var status int
	switch {
	case errors.Is(err, aaaerrors.InvalidSection):
		perr.Code = params.CodeInvalidSection
		status = http.StatusBadRequest
	case errors.Is(err, aaaerrors.UnknownIdentifier):
		perr.Code = params.CodeUnknownIdentifier
		status = http.StatusBadRequest
	case errors.Is(err, aaaerrors.UnknownToken):
		perr.Code = params.CodeUnknownToken
		status = http.StatusInternalServerError
	case errors.Is(err, aaaerrors.MalformedValue):
		perr.Code = params.CodeMalformedValue
		status = http.StatusInternalServerError
	case errors.Is(err, errors.BadRequest):
		perr.Code = params.CodeBadRequest
		status = http.StatusBadRequest
	case errors.Is(err, errors.NotValid):
		perr.Code = params.CodeNotValid
		status = http.StatusBadRequest
	case errors.Is(err, errors.NotFound):
		perr.Code = params.CodeNotFound
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}
	return perr, status
}

// sendJSONError renders a handler failure as a params.Error with its
// taxonomy code and matching HTTP status.
func sendJSONError(w http.ResponseWriter, req *http.Request, err error) error {
	perr, status := serverError(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("returning error from %s %s: %s", req.Method, req.URL, errors.Details(err))
	} else {
		logger.Debugf("returning error from %s %s: %s", req.Method, req.URL, errors.Details(err))
	}
	return errors.Trace(sendStatusAndJSON(w, status, perr))
}

// sendStatusAndJSON sends an HTTP status code and a JSON-encoded
// response to the client.
func sendStatusAndJSON(w http.ResponseWriter, statusCode int, response interface{}) error {
	body, err := json.Marshal(response)
	if err != nil {
		return errors.Errorf("cannot marshal JSON result %#v: %v", response, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		return errors.Annotate(err, "cannot write response")
	}
	return nil
}
