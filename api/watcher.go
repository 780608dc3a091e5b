// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package api

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"

	"github.com/canonical/aaacfg/apiserver/params"
)

// WatchChanges opens the change stream and returns a channel of
// notifications together with a stop function. The first frame from
// the server reports whether the subscription is live, so a change
// made after WatchChanges returns cannot be missed. The channel
// closes when the stream ends, whether through the stop function,
// cancellation of ctx, or the server going away.
func (c *Client) WatchChanges(ctx context.Context) (<-chan params.ChangeNotification, func(), error) {
	wsURL := *c.baseURL
	switch wsURL.Scheme {
	case "http":
		wsURL.Scheme = "ws"
	case "https":
		wsURL.Scheme = "wss"
	}
	wsURL.Path = strings.TrimSuffix(wsURL.Path, "/") + "/v1/aaa/watch"

	header := make(http.Header)
	header.Set("User-Agent", userAgent)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
			// A failed handshake still carries the server's verdict.
			return nil, nil, errors.Trace(errorFromResponse(resp))
		}
		return nil, nil, errors.Annotatef(err, "dialing %q", wsURL.String())
	}
	if resp != nil {
		_ = resp.Body.Close()
	}

	var initial params.ErrorResult
	if err := conn.ReadJSON(&initial); err != nil {
		_ = conn.Close()
		return nil, nil, errors.Annotate(err, "reading initial stream frame")
	}
	if initial.Error != nil {
		_ = conn.Close()
		return nil, nil, errors.Trace(params.TranslateWellKnownError(*initial.Error))
	}

	changes := make(chan params.ChangeNotification)
	stopped := make(chan struct{})
	readerDone := make(chan struct{})

	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			close(stopped)
			_ = conn.Close()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-readerDone:
		}
		stop()
	}()

	go func() {
		defer close(readerDone)
		defer close(changes)
		for {
			var change params.ChangeNotification
			if err := conn.ReadJSON(&change); err != nil {
				select {
				case <-stopped:
				case <-ctx.Done():
				default:
					logger.Debugf("change stream closed: %v", err)
				}
				return
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			case <-stopped:
				return
			}
		}
	}()

	return changes, stop, nil
}
