package testkit_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	outbound "github.com/shashiranjanraj/storefront/pkg/http"
	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

const tokenURL = "https://sandbox.safaricom.co.ke/oauth/v1/generate?grant_type=client_credentials"

// testHandler fakes a small slice of the shop: a health probe and an order
// endpoint that calls a gateway and mails the customer.
var testHandler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	case "/api/orders":
		var in struct {
			Email string  `json:"email"`
			Total float64 `json:"total"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			response.Error(w, http.StatusBadRequest, "bad body")
			return
		}
		resp, err := outbound.Get(tokenURL).WithContext(r.Context()).Send()
		if err != nil {
			response.Error(w, http.StatusBadGateway, err.Error())
			return
		}
		var tok struct {
			AccessToken string `json:"access_token"`
		}
		if err := resp.JSON(&tok); err != nil {
			response.Error(w, http.StatusBadGateway, err.Error())
			return
		}
		if err := mail.To(in.Email).WithSubject("Order received").Text("Thanks").Send(r.Context()); err != nil {
			response.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		response.Created(w, map[string]string{"token": tok.AccessToken})
	default:
		response.NotFound(w)
	}
})

func TestRunDir(t *testing.T) {
	testkit.RunDir(t, testHandler, "testdata")
}

func TestRunCountsMailThroughMocker(t *testing.T) {
	mailer := testkit.NewFuncMocker("sendmail")
	testkit.RegisterMocker("sendmail", mailer)
	t.Cleanup(func() { testkit.RegisterMocker("sendmail", testkit.NewFuncMocker("sendmail")) })

	testkit.Run(t, testHandler, "testdata/place_order.json")

	assert.Equal(t, 1, mailer.WasCalled())
	mailer.Mock().AssertCalled(t, "Intercept", mock.AnythingOfType("[]uint8"))
}

func TestLoadScenario(t *testing.T) {
	s, err := testkit.LoadScenario("testdata/place_order.json")
	require.NoError(t, err)

	assert.Equal(t, "Place order - gateway token + confirmation mail", s.Name)
	assert.Equal(t, "POST", s.RequestMethod)
	assert.Equal(t, 201, s.ExpectedCode)
	assert.True(t, s.IsMockRequired)
	require.Len(t, s.NetUtilMockStep, 2)

	httpStep := s.NetUtilMockStep[0]
	assert.Equal(t, "httprequest", httpStep.Method)
	assert.Equal(t, "https://sandbox.safaricom.co.ke/oauth/v1/generate", httpStep.MatchURL)
	assert.NotEmpty(t, httpStep.ReturnData.Body)

	assert.Equal(t, "sendmail", s.NetUtilMockStep[1].Method)
	assert.FileExists(t, s.RequestBodyPath())
}

func TestLoadAllFromDirSkipsBodyFiles(t *testing.T) {
	scenarios, errs := testkit.LoadAllFromDir("testdata")
	assert.Empty(t, errs)
	assert.Len(t, scenarios, 2)
}

func TestMockTransportMatchesPrefixAndHooks(t *testing.T) {
	mt := testkit.HTTPMock(testkit.JSONStep("https://api.example.com/", 200, `{"ok":true}`))

	var seen string
	mt.OnRequest(func(r *http.Request) { seen = r.Header.Get("X-Trace") })

	req := httptest.NewRequest(http.MethodGet, "https://api.example.com/users", nil)
	req.Header.Set("X-Trace", "abc")
	resp, err := mt.RoundTrip(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, []string{"GET https://api.example.com/users"}, mt.Calls())
	assert.Empty(t, mt.AssertAllCalled())
}

func TestMockTransportRejectsUnmatchedWhenRequired(t *testing.T) {
	mt := testkit.HTTPMock(testkit.JSONStep("https://expected.com/", 200, `{}`))

	req := httptest.NewRequest(http.MethodGet, "https://unexpected.com/api", nil)
	_, err := mt.RoundTrip(req)

	assert.Error(t, err)
	assert.Len(t, mt.AssertAllCalled(), 1)
}

func TestAssertJSONBodyIgnoresExtraFields(t *testing.T) {
	s := &testkit.Scenario{Name: "subset", ExpectedCode: 200}

	expected := []byte(`{"status":200,"data":{"name":"Linen Shirt"}}`)
	actual := []byte(`{"data":{"id":7,"name":"Linen Shirt"},  "status": 200}`)
	testkit.AssertJSONBody(t, s, expected, actual)
}

func TestDiffJSONReportsMismatches(t *testing.T) {
	var exp, act interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":[1,2]}`), &exp))
	require.NoError(t, json.Unmarshal([]byte(`{"a":2,"b":[1]}`), &act))

	diffs := testkit.DiffJSON("", exp, act)
	assert.Len(t, diffs, 2)
}
