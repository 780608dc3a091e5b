// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package api implements the client for the AAA configuration API.
// Errors sent by the server are translated back into their domain
// forms, so errors.Is gives the same answer on both sides of the wire.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"gopkg.in/httprequest.v1"

	"github.com/canonical/aaacfg/apiserver/params"
)

var logger = loggo.GetLogger("aaacfg.api")

const jsonMIME = "application/json"

// Config holds the settings for a Client.
type Config struct {
	// BaseURL is the root of the server API, for example
	// "http://localhost:17940".
	BaseURL string

	// Transport sends the requests. A nil Transport means
	// http.DefaultClient. Whatever is given here is wrapped in an
	// APIRequester before use.
	Transport Transport
}

// Client calls the AAA configuration API.
type Client struct {
	baseURL   *url.URL
	transport Transport
}

// NewClient creates a client for the server at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Annotatef(err, "parsing base URL %q", cfg.BaseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.NotValidf("base URL %q", cfg.BaseURL)
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultClient
	}
	return &Client{
		baseURL:   base,
		transport: NewAPIRequester(transport),
	}, nil
}

// Config returns every AAA section, resolved against schema defaults
// and in canonical order.
func (c *Client) Config(ctx context.Context) ([]params.SectionConfig, error) {
	var result params.AAAConfigResult
	if err := c.get(ctx, "/v1/aaa", &result); err != nil {
		return nil, errors.Trace(err)
	}
	return result.Sections, nil
}

// SectionConfig returns one AAA section, resolved against schema
// defaults.
func (c *Client) SectionConfig(ctx context.Context, section string) (params.SectionConfig, error) {
	var result params.SectionConfigResult
	if err := c.get(ctx, sectionPath(section), &result); err != nil {
		return params.SectionConfig{}, errors.Trace(err)
	}
	return result.Config, nil
}

// UpdateSection applies a sparse update to one section. Parts of the
// section the args do not mention keep their stored values.
func (c *Client) UpdateSection(ctx context.Context, section string, args params.SectionUpdateArgs) error {
	return errors.Trace(c.send(ctx, "PATCH", sectionPath(section), args))
}

// ResetSection returns every field of a section to its default.
func (c *Client) ResetSection(ctx context.Context, section string) error {
	return errors.Trace(c.send(ctx, "DELETE", sectionPath(section), nil))
}

func sectionPath(section string) string {
	return "/v1/aaa/" + url.PathEscape(section)
}

func (c *Client) url(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url(path), nil)
	if err != nil {
		return errors.Annotate(err, "cannot make request")
	}
	req.Header.Set("Accept", jsonMIME)

	resp, err := c.transport.Do(req)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.Trace(errorFromResponse(resp))
	}
	if err := httprequest.UnmarshalJSONResponse(resp, result); err != nil {
		return errors.Annotate(err, "reading response")
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		buffer := new(bytes.Buffer)
		if err := json.NewEncoder(buffer).Encode(body); err != nil {
			return errors.Trace(err)
		}
		reader = buffer
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return errors.Annotate(err, "cannot make request")
	}
	req.Header.Set("Accept", jsonMIME)
	if body != nil {
		req.Header.Set("Content-Type", jsonMIME)
	}

	resp, err := c.transport.Do(req)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return errors.Trace(errorFromResponse(resp))
	}
	return nil
}

// errorFromResponse decodes the params.Error carried by a failed
// response and translates it into its domain form. Responses that do
// not carry one, from a proxy for example, come back as plain errors
// naming the status.
func errorFromResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Annotatef(err, "reading error response with status %q", resp.Status)
	}
	var apiErr params.Error
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		text := strings.TrimSpace(string(body))
		if text == "" {
			return errors.Errorf("server returned status %q", resp.Status)
		}
		return errors.Errorf("server returned status %q: %s", resp.Status, text)
	}
	return params.TranslateWellKnownError(apiErr)
}
