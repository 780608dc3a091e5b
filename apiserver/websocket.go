// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package apiserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/canonical/aaacfg/apiserver/params"
	"github.com/canonical/aaacfg/domain/aaa/service"
)

const (
	// pongDelay is how long the server will wait for a pong before the
	// websocket is considered broken.
	pongDelay = 90 * time.Second

	// pingPeriod is how often ping messages are sent. This should be
	// shorter than the pongDelay, but not by too much.
	pingPeriod = 60 * time.Second

	// writeWait is how long a write call may take before it errors out.
	writeWait = 10 * time.Second

	// eventBacklog bounds the per-connection event buffer. A consumer
	// that falls further behind misses events; it reconciles by
	// reading the configuration back.
	eventBacklog = 16
)

var websocketUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWatch upgrades the request to a websocket and streams change
// notifications until either end goes away.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("problem initiating websocket: %v", err)
		return
	}
	defer conn.Close()

	if !s.trackConn(conn) {
		return
	}
	defer s.forgetConn(conn)

	events := make(chan service.ChangeEvent, eventBacklog)
	unsubscribe := s.service.WatchChanges(func(event service.ChangeEvent) {
		select {
		case events <- event:
		default:
			logger.Warningf("dropping change event for slow watcher")
		}
	})
	defer unsubscribe()

	// The first frame is always an ErrorResult. Once the client has
	// read it the subscription is live, so no change can slip past
	// between connecting and watching.
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(params.ErrorResult{}); err != nil {
		logger.Debugf("failed to write initial result: %s", err)
		return
	}

	// The read pump runs the pong handler and notices the client going
	// away; the connection carries no client frames otherwise.
	conn.SetReadDeadline(time.Now().Add(pongDelay))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongDelay))
		return nil
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	logger.Debugf("watch stream open for %s", r.RemoteAddr)
	for {
		select {
		case <-done:
			logger.Debugf("watch stream closed by %s", r.RemoteAddr)
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
				// Expected when the other end goes away.
				logger.Debugf("failed to write ping: %s", err)
				return
			}
		case event := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			notification := params.ChangeNotification{
				Section: string(event.Section),
				Fields:  event.Fields,
			}
			if err := conn.WriteJSON(notification); err != nil {
				logger.Debugf("failed to write change notification: %s", err)
				return
			}
		}
	}
}
