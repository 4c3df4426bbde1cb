// Package http is the fluent outbound client used for the M-Pesa Daraja
// API and the SMS gateway.
//
//	resp, err := http.Post(base + "/mpesa/stkpush/v1/processrequest").
//	    WithContext(ctx).
//	    Bearer(token).
//	    Body(payload).
//	    Send()
//
// Tests swap DefaultClient.Transport for a testkit.MockTransport.
package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const userAgent = "storefront/1.0"

var defaultTransport = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// DefaultClient is shared by every outbound call.
var DefaultClient = &gohttp.Client{Transport: defaultTransport}

// ResetTransport restores the production transport on DefaultClient.
func ResetTransport() {
	DefaultClient.Transport = defaultTransport
}

// Request is built up by chained calls and fired by Send.
type Request struct {
	ctx      context.Context
	method   string
	url      string
	header   gohttp.Header
	body     interface{}
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

func Get(url string) *Request  { return newRequest(gohttp.MethodGet, url) }
func Post(url string) *Request { return newRequest(gohttp.MethodPost, url) }

func newRequest(method, url string) *Request {
	h := gohttp.Header{}
	h.Set("Accept", "application/json")
	h.Set("User-Agent", userAgent)
	return &Request{
		ctx:      context.Background(),
		method:   method,
		url:      url,
		header:   h,
		timeout:  30 * time.Second,
		attempts: 1,
		backoff:  500 * time.Millisecond,
	}
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

func (r *Request) Header(key, value string) *Request {
	r.header.Set(key, value)
	return r
}

func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

func (r *Request) BasicAuth(user, pass string) *Request {
	return r.Header("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(user+":"+pass)))
}

// Body sends v as JSON. Strings and byte slices go out as they are.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// Form sends values url-encoded.
func (r *Request) Form(values url.Values) *Request {
	r.body = values
	return r
}

// Timeout bounds each attempt.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry allows up to attempts tries, waiting backoff, then twice that, and
// so on between them.
func (r *Request) Retry(attempts int, backoff time.Duration) *Request {
	if attempts < 1 {
		attempts = 1
	}
	r.attempts = attempts
	r.backoff = backoff
	return r
}

// Send fires the request. Transport errors and 5xx answers are retried; a
// 5xx on the last attempt is returned as a response, not an error.
func (r *Request) Send() (*Response, error) {
	payload, contentType, err := r.encode()
	if err != nil {
		return nil, err
	}

	wait := r.backoff
	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := r.once(payload, contentType)
		switch {
		case err == nil && (resp.StatusCode < 500 || attempt == r.attempts):
			return resp, nil
		case err == nil:
			lastErr = fmt.Errorf("http: %s answered %d", r.url, resp.StatusCode)
		default:
			lastErr = err
		}
		if attempt == r.attempts {
			return nil, fmt.Errorf("http: %s %s failed after %d attempts: %w", r.method, r.url, attempt, lastErr)
		}

		logger.WithCtx(r.ctx).Warn("http: retrying", "url", r.url, "attempt", attempt, "wait", wait, "error", lastErr)
		select {
		case <-r.ctx.Done():
			return nil, r.ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (r *Request) once(payload []byte, contentType string) (*Response, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	req.Header = r.header.Clone()
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Raw: raw}, nil
}

func (r *Request) encode() ([]byte, string, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(v), "text/plain", nil
	case []byte:
		return v, "application/octet-stream", nil
	case url.Values:
		return []byte(v.Encode()), "application/x-www-form-urlencoded", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return b, "application/json", nil
	}
}

// Response is a fully read answer.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Throw turns a non-2xx answer into an error carrying a trimmed body.
func (r *Response) Throw() error {
	if r.OK() {
		return nil
	}
	body := strings.TrimSpace(string(r.Raw))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Errorf("http: status %d: %s", r.StatusCode, body)
}
