// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package apiserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/loggo"
	"github.com/juju/pubsub/v2"
	jc "github.com/juju/testing/checkers"
	"github.com/prometheus/client_golang/prometheus"
	gc "gopkg.in/check.v1"

	"github.com/canonical/aaacfg/apiserver"
	"github.com/canonical/aaacfg/apiserver/params"
	"github.com/canonical/aaacfg/domain/aaa/service"
	"github.com/canonical/aaacfg/domain/aaa/state"
	databasetesting "github.com/canonical/aaacfg/internal/database/testing"
	"github.com/canonical/aaacfg/internal/testhelpers"
)

type serverSuite struct {
	databasetesting.DBSuite

	svc     *service.Service
	srv     *apiserver.Server
	httpSrv *httptest.Server
}

var _ = gc.Suite(&serverSuite{})

func (s *serverSuite) SetUpTest(c *gc.C) {
	s.DBSuite.SetUpTest(c)

	hub := pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
		Logger: loggo.GetLogger("test.hub"),
	})
	metrics := apiserver.NewMetricsCollector()
	registry := prometheus.NewRegistry()
	c.Assert(registry.Register(metrics), jc.ErrorIsNil)

	s.svc = service.NewService(state.NewState(s.TxnRunner()), hub, metrics)

	srv, err := apiserver.NewServer(apiserver.Config{
		Service:  s.svc,
		Metrics:  metrics,
		Registry: registry,
	})
	c.Assert(err, jc.ErrorIsNil)
	s.srv = srv

	s.httpSrv = httptest.NewServer(srv)
	s.AddCleanup(func(*gc.C) {
		s.srv.Stop()
		s.httpSrv.Close()
	})
}

func (s *serverSuite) do(c *gc.C, method, path string, body interface{}) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		c.Assert(err, jc.ErrorIsNil)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.httpSrv.URL+path, reader)
	c.Assert(err, jc.ErrorIsNil)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	c.Assert(err, jc.ErrorIsNil)
	return resp
}

func (s *serverSuite) decode(c *gc.C, resp *http.Response, into interface{}) {
	defer resp.Body.Close()
	c.Assert(json.NewDecoder(resp.Body).Decode(into), jc.ErrorIsNil)
}

func (s *serverSuite) assertError(c *gc.C, resp *http.Response, status int, code string) params.Error {
	c.Assert(resp.StatusCode, gc.Equals, status)
	var perr params.Error
	s.decode(c, resp, &perr)
	c.Assert(perr.Code, gc.Equals, code)
	return perr
}

func (s *serverSuite) patch(c *gc.C, section string, args params.SectionUpdateArgs) *http.Response {
	return s.do(c, "PATCH", "/v1/aaa/"+section, args)
}

func boolPtr(v bool) *bool {
	return &v
}

func methodsArg(methods ...string) *[]string {
	if methods == nil {
		methods = []string{}
	}
	return &methods
}

func (s *serverSuite) TestConfigEmptyStore(c *gc.C) {
	resp := s.do(c, "GET", "/v1/aaa", nil)
	c.Assert(resp.StatusCode, gc.Equals, http.StatusOK)

	var result params.AAAConfigResult
	s.decode(c, resp, &result)
	c.Assert(result, jc.DeepEquals, params.AAAConfigResult{
		Sections: []params.SectionConfig{{
			Section:     "authentication",
			Methods:     []string{},
			Failthrough: boolPtr(false),
			Fallback:    boolPtr(false),
			Debug:       boolPtr(false),
			Trace:       boolPtr(false),
		}, {
			Section: "authorization",
			Methods: []string{},
		}, {
			Section: "accounting",
			Methods: []string{},
		}},
	})
}

func (s *serverSuite) TestUpdateThenReadSection(c *gc.C) {
	resp := s.patch(c, "authentication", params.SectionUpdateArgs{
		Methods:     methodsArg("TACACS_ALL", "LOCAL"),
		Failthrough: boolPtr(true),
	})
	resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNoContent)

	resp = s.do(c, "GET", "/v1/aaa/authentication", nil)
	c.Assert(resp.StatusCode, gc.Equals, http.StatusOK)

	var result params.SectionConfigResult
	s.decode(c, resp, &result)
	c.Assert(result.Config, jc.DeepEquals, params.SectionConfig{
		Section:     "authentication",
		Methods:     []string{"TACACS_ALL", "LOCAL"},
		Failthrough: boolPtr(true),
		Fallback:    boolPtr(false),
		Debug:       boolPtr(false),
		Trace:       boolPtr(false),
		Explicit:    []string{"login", "failthrough"},
	})

	// The store itself carries tokens, not identifiers.
	rows, err := state.NewState(s.TxnRunner()).AllRows(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(rows["authentication"]["login"], gc.Equals, "tacacs+,local")
	c.Assert(rows["authentication"]["failthrough"], gc.Equals, "True")
}

func (s *serverSuite) TestUpdateEmptyMethodsResetsLogin(c *gc.C) {
	resp := s.patch(c, "accounting", params.SectionUpdateArgs{
		Methods: methodsArg("RADIUS_ALL"),
	})
	resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNoContent)

	resp = s.patch(c, "accounting", params.SectionUpdateArgs{
		Methods: methodsArg(),
	})
	resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNoContent)

	resp = s.do(c, "GET", "/v1/aaa/accounting", nil)
	var result params.SectionConfigResult
	s.decode(c, resp, &result)
	c.Assert(result.Config.Methods, gc.HasLen, 0)
	c.Assert(result.Config.Explicit, gc.HasLen, 0)
}

func (s *serverSuite) TestUpdateResetNamesFields(c *gc.C) {
	resp := s.patch(c, "authentication", params.SectionUpdateArgs{
		Methods: methodsArg("LOCAL"),
		Debug:   boolPtr(true),
	})
	resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNoContent)

	resp = s.patch(c, "authentication", params.SectionUpdateArgs{
		Reset: []string{"debug", "login"},
	})
	resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNoContent)

	resp = s.do(c, "GET", "/v1/aaa/authentication", nil)
	var result params.SectionConfigResult
	s.decode(c, resp, &result)
	c.Assert(result.Config.Methods, gc.HasLen, 0)
	c.Assert(*result.Config.Debug, jc.IsFalse)
	c.Assert(result.Config.Explicit, gc.HasLen, 0)
}

func (s *serverSuite) TestUpdateUnknownIdentifier(c *gc.C) {
	resp := s.patch(c, "authentication", params.SectionUpdateArgs{
		Methods: methodsArg("LDAP_ALL"),
	})
	perr := s.assertError(c, resp, http.StatusBadRequest, params.CodeUnknownIdentifier)
	c.Assert(perr.Message, gc.Matches, `field "login": "LDAP_ALL": unknown method identifier`)
}

func (s *serverSuite) TestUpdateInvalidSection(c *gc.C) {
	resp := s.patch(c, "audit", params.SectionUpdateArgs{
		Methods: methodsArg("LOCAL"),
	})
	s.assertError(c, resp, http.StatusBadRequest, params.CodeInvalidSection)
}

func (s *serverSuite) TestUpdateFlagOutsideAuthentication(c *gc.C) {
	resp := s.patch(c, "accounting", params.SectionUpdateArgs{
		Trace: boolPtr(true),
	})
	s.assertError(c, resp, http.StatusBadRequest, params.CodeNotValid)
}

func (s *serverSuite) TestUpdateNothingRejected(c *gc.C) {
	resp := s.patch(c, "authentication", params.SectionUpdateArgs{})
	s.assertError(c, resp, http.StatusBadRequest, params.CodeBadRequest)
}

func (s *serverSuite) TestUpdateFieldSetAndReset(c *gc.C) {
	resp := s.patch(c, "authentication", params.SectionUpdateArgs{
		Debug: boolPtr(true),
		Reset: []string{"debug"},
	})
	perr := s.assertError(c, resp, http.StatusBadRequest, params.CodeBadRequest)
	c.Assert(perr.Message, gc.Matches, `field "debug" both set and reset`)
}

func (s *serverSuite) TestUpdateUnknownResetField(c *gc.C) {
	resp := s.patch(c, "authentication", params.SectionUpdateArgs{
		Reset: []string{"comment"},
	})
	s.assertError(c, resp, http.StatusBadRequest, params.CodeNotValid)
}

func (s *serverSuite) TestUpdateGarbageBody(c *gc.C) {
	req, err := http.NewRequest("PATCH", s.httpSrv.URL+"/v1/aaa/authentication",
		strings.NewReader("{not json"))
	c.Assert(err, jc.ErrorIsNil)
	resp, err := http.DefaultClient.Do(req)
	c.Assert(err, jc.ErrorIsNil)
	s.assertError(c, resp, http.StatusBadRequest, params.CodeBadRequest)
}

func (s *serverSuite) TestResetSection(c *gc.C) {
	resp := s.patch(c, "authorization", params.SectionUpdateArgs{
		Methods: methodsArg("TACACS_ALL"),
	})
	resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNoContent)

	resp = s.do(c, "DELETE", "/v1/aaa/authorization", nil)
	resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNoContent)

	resp = s.do(c, "GET", "/v1/aaa/authorization", nil)
	var result params.SectionConfigResult
	s.decode(c, resp, &result)
	c.Assert(result.Config.Methods, gc.HasLen, 0)
	c.Assert(result.Config.Explicit, gc.HasLen, 0)
}

func (s *serverSuite) TestResetAlreadyDefaultSection(c *gc.C) {
	resp := s.do(c, "DELETE", "/v1/aaa/accounting", nil)
	resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNoContent)
}

func (s *serverSuite) TestResetInvalidSection(c *gc.C) {
	resp := s.do(c, "DELETE", "/v1/aaa/audit", nil)
	s.assertError(c, resp, http.StatusBadRequest, params.CodeInvalidSection)
}

func (s *serverSuite) TestMalformedStoredValue(c *gc.C) {
	s.seedRow(c, "authentication", "fallback", "true")

	resp := s.do(c, "GET", "/v1/aaa/authentication", nil)
	perr := s.assertError(c, resp, http.StatusInternalServerError, params.CodeMalformedValue)
	c.Assert(perr.Message, gc.Matches,
		`section "authentication": field "fallback": boolean "true": malformed stored value`)
}

func (s *serverSuite) TestUnknownStoredToken(c *gc.C) {
	s.seedRow(c, "accounting", "login", "ldap")

	resp := s.do(c, "GET", "/v1/aaa/accounting", nil)
	s.assertError(c, resp, http.StatusInternalServerError, params.CodeUnknownToken)
}

func (s *serverSuite) TestUnknownPath(c *gc.C) {
	resp := s.do(c, "GET", "/v1/nope", nil)
	s.assertError(c, resp, http.StatusNotFound, params.CodeNotFound)
}

func (s *serverSuite) TestWatchStreamsChanges(c *gc.C) {
	conn := s.dialWatch(c)

	resp := s.patch(c, "accounting", params.SectionUpdateArgs{
		Methods: methodsArg("TACACS_ALL"),
	})
	resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNoContent)

	c.Assert(conn.SetReadDeadline(time.Now().Add(testhelpers.LongWait)), jc.ErrorIsNil)
	var notification params.ChangeNotification
	c.Assert(conn.ReadJSON(&notification), jc.ErrorIsNil)
	c.Assert(notification, jc.DeepEquals, params.ChangeNotification{
		Section: "accounting",
		Fields:  []string{"login"},
	})
}

func (s *serverSuite) TestWatchSeesReset(c *gc.C) {
	resp := s.patch(c, "authentication", params.SectionUpdateArgs{
		Methods: methodsArg("LOCAL"),
	})
	resp.Body.Close()

	conn := s.dialWatch(c)

	resp = s.do(c, "DELETE", "/v1/aaa/authentication", nil)
	resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNoContent)

	c.Assert(conn.SetReadDeadline(time.Now().Add(testhelpers.LongWait)), jc.ErrorIsNil)
	var notification params.ChangeNotification
	c.Assert(conn.ReadJSON(&notification), jc.ErrorIsNil)
	c.Assert(notification, jc.DeepEquals, params.ChangeNotification{
		Section: "authentication",
		Fields:  []string{"login", "failthrough", "fallback", "debug", "trace"},
	})
}

func (s *serverSuite) TestStopClosesWatchers(c *gc.C) {
	conn := s.dialWatch(c)

	s.srv.Stop()

	c.Assert(conn.SetReadDeadline(time.Now().Add(testhelpers.LongWait)), jc.ErrorIsNil)
	var notification params.ChangeNotification
	err := conn.ReadJSON(&notification)
	c.Assert(err, gc.NotNil)
}

func (s *serverSuite) TestMetricsServed(c *gc.C) {
	// Serve one request first so the counters have something to say.
	resp := s.do(c, "GET", "/v1/aaa", nil)
	resp.Body.Close()

	resp = s.do(c, "GET", "/metrics", nil)
	defer resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusOK)
	body, err := io.ReadAll(resp.Body)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(string(body), jc.Contains, "aaacfg_api_requests_total")
}

func (s *serverSuite) TestMetricsNotServedWithoutRegistry(c *gc.C) {
	srv, err := apiserver.NewServer(apiserver.Config{
		Service: s.svc,
		Metrics: apiserver.NewMetricsCollector(),
	})
	c.Assert(err, jc.ErrorIsNil)
	defer srv.Stop()
	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	resp, err := http.Get(httpSrv.URL + "/metrics")
	c.Assert(err, jc.ErrorIsNil)
	defer resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusNotFound)
}

// dialWatch connects to the watch endpoint and consumes the initial
// handshake frame, so the subscription is live when it returns.
func (s *serverSuite) dialWatch(c *gc.C) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(s.httpSrv.URL, "http") + "/v1/aaa/watch"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	c.Assert(err, jc.ErrorIsNil)
	resp.Body.Close()
	s.AddCleanup(func(*gc.C) { conn.Close() })

	c.Assert(conn.SetReadDeadline(time.Now().Add(testhelpers.LongWait)), jc.ErrorIsNil)
	var initial params.ErrorResult
	c.Assert(conn.ReadJSON(&initial), jc.ErrorIsNil)
	c.Assert(initial.Error, gc.IsNil)
	return conn
}

func (s *serverSuite) seedRow(c *gc.C, section, field, value string) {
	_, err := s.DB().Exec(
		"INSERT INTO aaa (section, field, value) VALUES (?, ?, ?)",
		section, field, value)
	c.Assert(err, jc.ErrorIsNil)
}
