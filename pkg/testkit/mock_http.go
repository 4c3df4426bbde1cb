package testkit

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockTransport implements http.RoundTripper. It answers outgoing requests
// from the scenario's "httprequest" steps instead of touching the network.
//
//	mt := testkit.NewMockTransport(scenario)
//	http.DefaultClient.Transport = mt
//	defer http.ResetTransport()
type MockTransport struct {
	mu      sync.Mutex
	steps   []httpMockEntry
	require bool
	hooks   []func(*http.Request)
	calls   []string
}

type httpMockEntry struct {
	step      MockStep
	callCount int
}

// NewMockTransport builds a MockTransport from the "httprequest" steps in s.
// Steps are matched in order by URL prefix; the first match wins.
func NewMockTransport(s *Scenario) *MockTransport {
	mt := &MockTransport{require: s.IsMockRequired}
	for _, step := range s.NetUtilMockStep {
		if step.Method != "httprequest" {
			continue
		}
		mt.steps = append(mt.steps, httpMockEntry{step: step})
	}
	return mt
}

// OnRequest registers a hook that sees every intercepted request before
// it is answered. Use it to assert on outgoing headers and bodies.
func (mt *MockTransport) OnRequest(fn func(*http.Request)) {
	mt.mu.Lock()
	mt.hooks = append(mt.hooks, fn)
	mt.mu.Unlock()
}

// Calls returns the "METHOD URL" of every request seen so far.
func (mt *MockTransport) Calls() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]string(nil), mt.calls...)
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	hooks := append(([]func(*http.Request))(nil), mt.hooks...)
	mt.calls = append(mt.calls, req.Method+" "+req.URL.String())
	mt.mu.Unlock()

	for _, h := range hooks {
		h(req)
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	for i := range mt.steps {
		entry := &mt.steps[i]
		if !entry.step.IsMock {
			continue
		}
		if !urlMatches(req.URL.String(), entry.step.MatchURL) {
			continue
		}
		entry.callCount++
		return buildHTTPResponse(req, entry.step.ReturnData)
	}

	if mt.require {
		return nil, fmt.Errorf("testkit: unexpected outgoing HTTP call to %s, no matching mock step", req.URL)
	}

	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader(`{"error":"no mock configured"}`)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// AssertAllCalled returns an error for every isMock step that never matched.
func (mt *MockTransport) AssertAllCalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var errs []error
	for _, e := range mt.steps {
		if e.step.IsMock && e.callCount == 0 {
			errs = append(errs, fmt.Errorf(
				"testkit: mock step %q (matchUrl=%q) was never called",
				e.step.Method, e.step.MatchURL,
			))
		}
	}
	return errs
}

// JSONStep builds an "httprequest" step answering urlPrefix with body.
func JSONStep(urlPrefix string, status int, body string) MockStep {
	return MockStep{
		Method:   "httprequest",
		IsMock:   true,
		MatchURL: urlPrefix,
		ReturnData: MockReturnData{
			StatusCode: status,
			Body:       base64.StdEncoding.EncodeToString([]byte(body)),
		},
	}
}

// HTTPMock builds a strict MockTransport from steps. Install it on
// http.DefaultClient and restore with http.ResetTransport.
func HTTPMock(steps ...MockStep) *MockTransport {
	return NewMockTransport(&Scenario{IsMockRequired: true, NetUtilMockStep: steps})
}

func urlMatches(candidate, pattern string) bool {
	if pattern == "" {
		return true
	}
	return strings.HasPrefix(candidate, pattern)
}

// buildHTTPResponse decodes the base64 body of rd into a response.
func buildHTTPResponse(req *http.Request, rd MockReturnData) (*http.Response, error) {
	code := rd.StatusCode
	if code == 0 {
		code = http.StatusOK
	}

	bodyBytes, err := decodeBody(rd.Body)
	if err != nil {
		return nil, fmt.Errorf("testkit: mock body: %w", err)
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(bodyBytes)),
		Request:    req,
	}, nil
}
