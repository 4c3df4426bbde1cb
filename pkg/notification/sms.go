package notification

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/http"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Texter sends an SMS to one or more numbers.
type Texter interface {
	Send(ctx context.Context, to []string, message string) error
}

var (
	texterMu sync.RWMutex
	current  Texter
)

// SetTexter replaces the SMS backend.
func SetTexter(t Texter) {
	texterMu.Lock()
	current = t
	texterMu.Unlock()
}

func texter() Texter {
	texterMu.RLock()
	t := current
	texterMu.RUnlock()
	if t != nil {
		return t
	}
	if config.SMSAPIKey() == "" {
		return logTexter{}
	}
	return AfricasTalking{
		BaseURL:  config.SMSBaseURL(),
		Username: config.SMSUsername(),
		APIKey:   config.SMSAPIKey(),
	}
}

type logTexter struct{}

func (logTexter) Send(ctx context.Context, to []string, message string) error {
	logger.WithCtx(ctx).Info("sms: (log driver)", "to", strings.Join(to, ","), "chars", len(message))
	return nil
}

// AfricasTalking sends through the Africa's Talking bulk SMS API.
type AfricasTalking struct {
	BaseURL  string
	Username string
	APIKey   string
}

type atResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			Number     string `json:"number"`
			Status     string `json:"status"`
			StatusCode int    `json:"statusCode"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

func (a AfricasTalking) Send(ctx context.Context, to []string, message string) error {
	numbers := make([]string, len(to))
	for i, n := range to {
		numbers[i] = InternationalPhone(n)
	}

	resp, err := http.Post(a.BaseURL).
		WithContext(ctx).
		Header("apiKey", a.APIKey).
		Form(url.Values{
			"username": {a.Username},
			"to":       {strings.Join(numbers, ",")},
			"message":  {message},
		}).
		Timeout(10*time.Second).
		Retry(2, time.Second).
		Send()
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("sms: %w", err)
	}

	var out atResponse
	if err := resp.JSON(&out); err != nil {
		return fmt.Errorf("sms: %w", err)
	}
	for _, r := range out.SMSMessageData.Recipients {
		// 100 Processed, 101 Sent, 102 Queued
		if r.StatusCode < 100 || r.StatusCode > 102 {
			return fmt.Errorf("sms: %s rejected: %s", r.Number, r.Status)
		}
	}
	return nil
}

// InternationalPhone rewrites a Kenyan number to +254 form.
func InternationalPhone(phone string) string {
	p := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	switch {
	case strings.HasPrefix(p, "+"):
		return p
	case strings.HasPrefix(p, "0"):
		return "+254" + p[1:]
	case strings.HasPrefix(p, "254"):
		return "+" + p
	}
	return p
}
