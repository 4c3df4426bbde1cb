// Package testkit drives REST API tests from JSON scenario files.
//
// A scenario names one request, the status and body it should produce, and
// the outgoing calls (payment gateway, mail, SMS) to fake while it runs:
//
//	testdata/
//	  checkout_mpesa.json        scenario
//	  checkout_mpesa_req.json    request body
//	  checkout_mpesa_res.json    expected response body
//
//	func TestCheckoutScenarios(t *testing.T) {
//	    testkit.RunDir(t, app.BuildHandler(), "testdata", testkit.WithTokens(tokens))
//	}
package testkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scenario is one API test case.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"` // relative to the scenario file
	Headers         map[string]string `json:"headers"`

	// As names the identity whose bearer token is attached, e.g. "customer"
	// or "admin". Tokens come from the WithTokens option.
	As string `json:"as"`

	ResponseFileName   string `json:"responseFileName"`
	ExpectedCode       int    `json:"expectedCode"`
	ExpectedStatusCode int    `json:"expectedStatusCode"` // alias of expectedCode

	// IsMockRequired fails any outgoing call that no step matches.
	IsMockRequired bool `json:"isMockRequired"`

	NetUtilMockStep []MockStep `json:"netUtilMockStep"`

	dir string
}

// MockStep fakes one outgoing call.
//
// Method is "httprequest" for pkg/http traffic, "sendmail" for pkg/mail,
// "sms" for the SMS gateway, or the name of a custom FuncMocker.
type MockStep struct {
	Method string `json:"method"`

	// IsMock false documents a real dependency without faking it.
	IsMock bool `json:"isMock"`

	// MatchURL prefix-matches the outgoing URL. Empty matches anything.
	MatchURL string `json:"matchUrl"`

	ReturnData MockReturnData `json:"returnData"`
}

// MockReturnData is what a faked call returns.
type MockReturnData struct {
	StatusCode int `json:"statusCode"` // httprequest only, defaults to 200

	// Body is base64-encoded.
	Body string `json:"body"`
}

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	s.dir = filepath.Dir(abs)

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.RequestURL == "" {
		return errors.New("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		s.ExpectedCode = s.ExpectedStatusCode
	}
	if s.ExpectedCode == 0 {
		return errors.New("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	return s.validateSteps()
}

func (s *Scenario) validateSteps() error {
	for i, step := range s.NetUtilMockStep {
		if step.Method == "" {
			return fmt.Errorf("netUtilMockStep[%d].method is required", i)
		}
	}
	return nil
}

// RequestBodyPath resolves RequestFileName against the scenario's directory.
func (s *Scenario) RequestBodyPath() string { return s.resolve(s.RequestFileName) }

// ResponseBodyPath resolves ResponseFileName against the scenario's directory.
func (s *Scenario) ResponseBodyPath() string { return s.resolve(s.ResponseFileName) }

func (s *Scenario) resolve(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// LoadAllFromDir loads every *.json scenario in dir. Request and response
// body files are skipped by their _req/_res suffix.
func LoadAllFromDir(dir string) ([]*Scenario, []error) {
	paths, err := scenarioFiles(dir)
	if err != nil {
		return nil, []error{err}
	}

	var (
		scenarios []*Scenario
		errs      []error
	)
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, errs
}

func scenarioFiles(dir string) ([]string, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range entries {
		base := filepath.Base(p)
		if strings.HasSuffix(base, "_req.json") || strings.HasSuffix(base, "_res.json") {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("testkit: no scenario files found in %q", dir)
	}
	return out, nil
}

// LoadScenarioArray reads a file holding a JSON array of scenarios. URL and
// method may be left out; RunSuite fills them from the suite entry.
func LoadScenarioArray(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve scenario array path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read scenario array %q: %w", abs, err)
	}

	var scenarios []*Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("testkit: parse scenario array %q: %w", abs, err)
	}

	dir := filepath.Dir(abs)
	for _, s := range scenarios {
		s.dir = dir
		if s.ExpectedCode == 0 {
			s.ExpectedCode = s.ExpectedStatusCode
		}
		if s.ExpectedCode == 0 {
			s.ExpectedCode = 200
		}
		if s.Name == "" {
			return nil, errors.New("testkit: invalid scenario array item: name is required")
		}
		if err := s.validateSteps(); err != nil {
			return nil, fmt.Errorf("testkit: scenario %q: %w", s.Name, err)
		}
	}
	return scenarios, nil
}
