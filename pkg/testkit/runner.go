package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	outbound "github.com/shashiranjanraj/storefront/pkg/http"
)

// Option tunes how scenarios are fired.
type Option func(*runConfig)

type runConfig struct {
	tokens map[string]string
	before func(t *testing.T, s *Scenario)
}

// WithTokens maps Scenario.As names to bearer tokens.
func WithTokens(tokens map[string]string) Option {
	return func(c *runConfig) { c.tokens = tokens }
}

// BeforeEach runs fn before every scenario, e.g. to reset the database.
func BeforeEach(fn func(t *testing.T, s *Scenario)) Option {
	return func(c *runConfig) { c.before = fn }
}

func newRunConfig(opts []Option) *runConfig {
	c := &runConfig{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run executes the scenario at scenarioPath against handler as a subtest.
func Run(t *testing.T, handler http.Handler, scenarioPath string, opts ...Option) {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", scenarioPath, err)
	}

	cfg := newRunConfig(opts)
	t.Run(s.Name, func(t *testing.T) {
		runScenario(t, handler, s, cfg)
	})
}

// RunDir runs every scenario in dir as a subtest, in file name order.
func RunDir(t *testing.T, handler http.Handler, dir string, opts ...Option) {
	t.Helper()

	paths, err := scenarioFiles(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg := newRunConfig(opts)
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			t.Errorf("testkit: load %q: %v", path, err)
			continue
		}
		t.Run(s.Name, func(t *testing.T) {
			runScenario(t, handler, s, cfg)
		})
	}
}

// runScenario fakes the scenario's outgoing calls, fires the request and
// checks status, body and that every faked call happened.
func runScenario(t *testing.T, handler http.Handler, s *Scenario, cfg *runConfig) {
	t.Helper()

	if cfg.before != nil {
		cfg.before(t, s)
	}

	var reqBody io.Reader
	if p := s.RequestBodyPath(); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("[%s] read request file %q: %v", s.Name, p, err)
		}
		reqBody = bytes.NewReader(data)
	}

	mt := NewMockTransport(s)
	previous := outbound.DefaultClient.Transport
	outbound.DefaultClient.Transport = mt
	defer func() { outbound.DefaultClient.Transport = previous }()

	resetAllMockers()
	restore, err := ActivateFuncMocks(s)
	if err != nil {
		t.Fatalf("[%s] activate func mocks: %v", s.Name, err)
	}
	defer restore()

	method := strings.ToUpper(s.RequestMethod)
	if method == "" {
		method = http.MethodGet
	}

	req := httptest.NewRequest(method, s.RequestURL, reqBody)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.As != "" {
		token, ok := cfg.tokens[s.As]
		if !ok {
			t.Fatalf("[%s] no token for identity %q", s.Name, s.As)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code)

	if p := s.ResponseBodyPath(); p != "" {
		expected, err := os.ReadFile(p)
		if err != nil {
			t.Errorf("[%s] read response file %q: %v", s.Name, p, err)
		} else {
			AssertJSONBody(t, s, expected, rec.Body.Bytes())
		}
	}

	AssertMocksAllCalled(t, s, mt)
}
