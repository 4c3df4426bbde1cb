package testkit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/notification"
)

// FuncMocker stands in for a non-HTTP side effect such as mail or SMS.
//
//	func init() {
//	    testkit.RegisterMocker("push", testkit.NewFuncMocker("push"))
//	}
type FuncMocker interface {
	// Intercept records one call. payload describes what was sent.
	Intercept(payload []byte) error

	Reset()

	// WasCalled returns the number of Intercept calls since Reset.
	WasCalled() int

	// Mock exposes the testify mock for custom expectations.
	Mock() *mock.Mock
}

// GenericFuncMocker is a testify-backed FuncMocker.
type GenericFuncMocker struct {
	m      mock.Mock
	method string
	mu     sync.Mutex
	calls  int
	result error
}

// NewFuncMocker returns a mocker that accepts any call.
func NewFuncMocker(method string) *GenericFuncMocker {
	gm := &GenericFuncMocker{method: method}
	gm.m.On("Intercept", mock.AnythingOfType("[]uint8")).Return(nil)
	return gm
}

func (gm *GenericFuncMocker) Intercept(payload []byte) error {
	gm.mu.Lock()
	gm.calls++
	result := gm.result
	gm.mu.Unlock()

	if result != nil {
		return result
	}
	args := gm.m.Called(payload)
	if args.Get(0) == nil {
		return nil
	}
	return args.Error(0)
}

func (gm *GenericFuncMocker) Reset() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.calls = 0
	gm.result = nil
	gm.m.Calls = nil
	gm.m.ExpectedCalls = nil
	gm.m.On("Intercept", mock.AnythingOfType("[]uint8")).Return(nil)
}

func (gm *GenericFuncMocker) WasCalled() int {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	return gm.calls
}

func (gm *GenericFuncMocker) Mock() *mock.Mock { return &gm.m }

// failWith makes every Intercept return err until Reset.
func (gm *GenericFuncMocker) failWith(err error) {
	gm.mu.Lock()
	gm.result = err
	gm.mu.Unlock()
}

var (
	mockerMu       sync.RWMutex
	mockerRegistry = map[string]FuncMocker{
		"sendmail": NewFuncMocker("sendmail"),
		"sms":      NewFuncMocker("sms"),
	}
)

// RegisterMocker adds or replaces the mocker for method.
func RegisterMocker(method string, m FuncMocker) {
	mockerMu.Lock()
	defer mockerMu.Unlock()
	mockerRegistry[method] = m
}

// GetMocker returns the mocker for method, or nil.
func GetMocker(method string) FuncMocker {
	mockerMu.RLock()
	defer mockerMu.RUnlock()
	return mockerRegistry[method]
}

func resetAllMockers() {
	mockerMu.RLock()
	defer mockerMu.RUnlock()
	for _, m := range mockerRegistry {
		m.Reset()
	}
}

// mockMailer routes pkg/mail sends to the "sendmail" mocker.
type mockMailer struct{ m FuncMocker }

func (mm mockMailer) Send(_ context.Context, msg *mail.Message) error {
	payload := fmt.Sprintf("to=%s\nsubject=%s\n\n%s", strings.Join(msg.To, ","), msg.Subject, msg.Body)
	return mm.m.Intercept([]byte(payload))
}

// mockTexter routes SMS sends to the "sms" mocker.
type mockTexter struct{ m FuncMocker }

func (mt mockTexter) Send(_ context.Context, to []string, message string) error {
	return mt.m.Intercept([]byte(strings.Join(to, ",") + "\n" + message))
}

// ActivateFuncMocks installs the mail and SMS fakes and applies the
// scenario's non-HTTP steps. A step whose decoded body is non-empty makes
// that channel fail with the body as the error text. The returned func
// restores the real backends.
func ActivateFuncMocks(s *Scenario) (func(), error) {
	mailMocker := GetMocker("sendmail")
	smsMocker := GetMocker("sms")
	mail.SetMailer(mockMailer{m: mailMocker})
	notification.SetTexter(mockTexter{m: smsMocker})
	restore := func() {
		mail.SetMailer(nil)
		notification.SetTexter(nil)
	}

	for i, step := range s.NetUtilMockStep {
		if step.Method == "httprequest" || !step.IsMock {
			continue
		}
		m := GetMocker(step.Method)
		if m == nil {
			if s.IsMockRequired {
				restore()
				return nil, fmt.Errorf("testkit: no mocker registered for %q (step %d)", step.Method, i)
			}
			continue
		}

		raw, err := decodeBody(step.ReturnData.Body)
		if err != nil {
			restore()
			return nil, fmt.Errorf("testkit: step %d: %w", i, err)
		}
		if gm, ok := m.(*GenericFuncMocker); ok && len(raw) > 0 {
			gm.failWith(errors.New(string(raw)))
		}
	}
	return restore, nil
}

func decodeBody(body string) ([]byte, error) {
	if body == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("base64 decode: %w", err)
		}
	}
	return decoded, nil
}

// AssertFuncMocksCalled reports every mocked non-HTTP step that never fired.
func AssertFuncMocksCalled(s *Scenario) []error {
	var errs []error
	seen := map[string]bool{}
	for _, step := range s.NetUtilMockStep {
		if step.Method == "httprequest" || !step.IsMock || seen[step.Method] {
			continue
		}
		seen[step.Method] = true
		m := GetMocker(step.Method)
		if m == nil {
			continue
		}
		if m.WasCalled() == 0 {
			errs = append(errs, fmt.Errorf("mock %q was never called during scenario %q", step.Method, s.Name))
		}
	}
	return errs
}
