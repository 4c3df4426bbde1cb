package http

import (
	"errors"
	"io"
	gohttp "net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*gohttp.Request) (*gohttp.Response, error)

func (f roundTripFunc) RoundTrip(r *gohttp.Request) (*gohttp.Response, error) { return f(r) }

func answer(status int, body string) *gohttp.Response {
	return &gohttp.Response{StatusCode: status, Header: gohttp.Header{}, Body: io.NopCloser(strings.NewReader(body))}
}

func fake(t *testing.T, fn roundTripFunc) {
	DefaultClient.Transport = fn
	t.Cleanup(ResetTransport)
}

func TestSendRetriesServerErrors(t *testing.T) {
	calls := 0
	fake(t, func(r *gohttp.Request) (*gohttp.Response, error) {
		calls++
		if calls < 3 {
			return answer(503, "busy"), nil
		}
		return answer(200, `{"ok":true}`), nil
	})

	resp, err := Get("https://api.test/ping").Retry(3, time.Millisecond).Send()
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	var out struct{ OK bool }
	require.NoError(t, resp.JSON(&out))
	assert.True(t, out.OK)
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	fake(t, func(r *gohttp.Request) (*gohttp.Response, error) {
		calls++
		return answer(400, `{"errorMessage":"Bad Request - Invalid PhoneNumber"}`), nil
	})

	resp, err := Post("https://api.test/push").Retry(3, time.Millisecond).Send()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, resp.OK())
	assert.ErrorContains(t, resp.Throw(), "status 400")
}

func TestSendGivesUpOnTransportErrors(t *testing.T) {
	fake(t, func(r *gohttp.Request) (*gohttp.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := Get("https://api.test/down").Retry(2, time.Millisecond).Send()
	assert.ErrorContains(t, err, "failed after 2 attempts")
}

func TestBodiesAndHeaders(t *testing.T) {
	var seen *gohttp.Request
	var body string
	fake(t, func(r *gohttp.Request) (*gohttp.Response, error) {
		seen = r
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		return answer(201, ""), nil
	})

	_, err := Post("https://api.test/sms").
		BasicAuth("key", "secret").
		Header("apiKey", "at-key").
		Form(url.Values{"to": {"+254712345678"}}).
		Send()
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", seen.Header.Get("Content-Type"))
	assert.Equal(t, "at-key", seen.Header.Get("apiKey"))
	user, pass, ok := seen.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "key", user)
	assert.Equal(t, "secret", pass)
	assert.Equal(t, "to=%2B254712345678", body)

	_, err = Post("https://api.test/json").Body(map[string]int{"Amount": 10}).Send()
	require.NoError(t, err)
	assert.Equal(t, "application/json", seen.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"Amount":10}`, body)
}
