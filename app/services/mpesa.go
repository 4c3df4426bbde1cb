package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/http"
)

const (
	mpesaSandboxURL    = "https://sandbox.safaricom.co.ke"
	mpesaProductionURL = "https://api.safaricom.co.ke"
	tokenMargin        = time.Minute
)

// ErrMpesaNotConfigured is returned when consumer credentials are missing.
var ErrMpesaNotConfigured = errors.New("mpesa: credentials not configured")

// MpesaConfig holds Daraja credentials.
type MpesaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	CallbackURL    string
}

// MpesaConfigFromEnv reads the MPESA_* settings.
func MpesaConfigFromEnv() MpesaConfig {
	base := mpesaSandboxURL
	if config.MpesaEnvironment() == "production" {
		base = mpesaProductionURL
	}
	return MpesaConfig{
		BaseURL:        base,
		ConsumerKey:    config.MpesaConsumerKey(),
		ConsumerSecret: config.MpesaConsumerSecret(),
		Shortcode:      config.MpesaShortcode(),
		Passkey:        config.MpesaPasskey(),
		CallbackURL:    config.MpesaCallbackURL(),
	}
}

// MpesaError is a non-success answer from Daraja.
type MpesaError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *MpesaError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("mpesa: %s (%s)", e.Message, e.Code)
	}
	return "mpesa: " + e.Message
}

// STKPushRequest asks the customer's phone to approve a payment.
type STKPushRequest struct {
	Phone            string
	Amount           float64
	AccountReference string
	Description      string
}

// STKPushResponse is Daraja's acknowledgement of an STK push.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// MpesaClient talks to the Daraja API through pkg/http. The OAuth token
// is cached until shortly before it expires.
type MpesaClient struct {
	cfg MpesaConfig
	now func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewMpesaClient(cfg MpesaConfig) *MpesaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = mpesaSandboxURL
	}
	return &MpesaClient{cfg: cfg, now: time.Now}
}

func (c *MpesaClient) Configured() bool {
	return c != nil && c.cfg.ConsumerKey != "" && c.cfg.ConsumerSecret != ""
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
}

// AccessToken returns a cached OAuth token, fetching a new one when the
// cached token is about to expire.
func (c *MpesaClient) AccessToken(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", ErrMpesaNotConfigured
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	resp, err := http.Get(c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials").
		WithContext(ctx).
		BasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret).
		Timeout(15*time.Second).
		Retry(2, 500*time.Millisecond).
		Send()
	if err != nil {
		return "", fmt.Errorf("mpesa: token: %w", err)
	}
	if !resp.OK() {
		return "", decodeMpesaError(resp)
	}

	var tr tokenResponse
	if err := resp.JSON(&tr); err != nil {
		return "", fmt.Errorf("mpesa: token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", &MpesaError{StatusCode: resp.StatusCode, Message: "empty access token"}
	}

	ttl := time.Duration(parseSeconds(tr.ExpiresIn)) * time.Second
	if ttl <= tokenMargin {
		ttl = tokenMargin * 2
	}
	c.token = tr.AccessToken
	c.expires = c.now().Add(ttl - tokenMargin)
	return c.token, nil
}

// Daraja sends expires_in as a quoted number.
func parseSeconds(raw json.RawMessage) int {
	n, _ := strconv.Atoi(strings.Trim(string(raw), `"`))
	return n
}

// STKPush sends a payment prompt to the customer's phone.
func (c *MpesaClient) STKPush(ctx context.Context, req STKPushRequest) (STKPushResponse, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return STKPushResponse{}, err
	}

	ts := MpesaTimestamp(c.now())
	phone := NormalizePhone(req.Phone)
	payload := map[string]interface{}{
		"BusinessShortCode": c.cfg.Shortcode,
		"Password":          MpesaPassword(c.cfg.Shortcode, c.cfg.Passkey, ts),
		"Timestamp":         ts,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            int(math.Ceil(req.Amount)),
		"PartyA":            phone,
		"PartyB":            c.cfg.Shortcode,
		"PhoneNumber":       phone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  req.AccountReference,
		"TransactionDesc":   req.Description,
	}

	resp, err := http.Post(c.cfg.BaseURL + "/mpesa/stkpush/v1/processrequest").
		WithContext(ctx).
		Bearer(token).
		Body(payload).
		Timeout(30 * time.Second).
		Send()
	if err != nil {
		return STKPushResponse{}, fmt.Errorf("mpesa: stk push: %w", err)
	}
	if !resp.OK() {
		return STKPushResponse{}, decodeMpesaError(resp)
	}

	var out STKPushResponse
	if err := resp.JSON(&out); err != nil {
		return out, fmt.Errorf("mpesa: stk push: %w", err)
	}
	if out.ResponseCode != "0" {
		return out, &MpesaError{StatusCode: resp.StatusCode, Code: out.ResponseCode, Message: out.ResponseDescription}
	}
	return out, nil
}

func decodeMpesaError(resp *http.Response) error {
	var body struct {
		ErrorCode    string `json:"errorCode"`
		ErrorMessage string `json:"errorMessage"`
	}
	_ = resp.JSON(&body)
	msg := body.ErrorMessage
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return &MpesaError{StatusCode: resp.StatusCode, Code: body.ErrorCode, Message: msg}
}

var nairobi = func() *time.Location {
	if loc, err := time.LoadLocation("Africa/Nairobi"); err == nil {
		return loc
	}
	return time.FixedZone("EAT", 3*60*60)
}()

// MpesaTimestamp formats t as YYYYmmddHHMMSS in Nairobi time.
func MpesaTimestamp(t time.Time) string {
	return t.In(nairobi).Format("20060102150405")
}

// MpesaPassword is base64(shortcode + passkey + timestamp).
func MpesaPassword(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}

// NormalizePhone turns +2547..., 07... and 2547... into 2547....
func NormalizePhone(phone string) string {
	p := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") {
		p = "254" + p[1:]
	}
	return p
}
