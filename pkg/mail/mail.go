// Package mail sends the shop's transactional email (order confirmations,
// stock alerts) over SMTP.
//
//	err := mail.To(user.Email).
//	    WithSubject("Order INV-20250101120000-7 confirmed").
//	    HTML(confirmationTmpl, data).
//	    Send(ctx)
//
// With MAIL_DRIVER=log (the default outside production) messages are
// logged instead of delivered.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"sync"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// SMTP holds connection credentials.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

func defaultSMTP() SMTP {
	return SMTP{
		Host:     config.Get("MAIL_HOST", "smtp.mailtrap.io"),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "orders@fashion-shop.co.ke"),
		FromName: config.Get("MAIL_FROM_NAME", config.AppName()),
	}
}

// Message is a fluent builder for an email.
type Message struct {
	To      []string
	CC      []string
	Subject string
	Body    string
	IsHTML  bool
	err     error
}

// Mailer delivers a built message.
type Mailer interface {
	Send(ctx context.Context, m *Message) error
}

var (
	mailerMu sync.RWMutex
	current  Mailer
)

// SetMailer replaces the delivery backend. Tests install a recorder.
func SetMailer(m Mailer) {
	mailerMu.Lock()
	current = m
	mailerMu.Unlock()
}

func mailer() Mailer {
	mailerMu.RLock()
	m := current
	mailerMu.RUnlock()
	if m != nil {
		return m
	}
	if config.Get("MAIL_DRIVER", defaultDriver()) == "smtp" {
		return SMTPMailer{Config: defaultSMTP()}
	}
	return LogMailer{}
}

func defaultDriver() string {
	if config.AppEnv() == "production" {
		return "smtp"
	}
	return "log"
}

// To starts a message to the given recipients.
func To(addresses ...string) *Message {
	return &Message{To: addresses, IsHTML: true}
}

func (m *Message) Cc(addresses ...string) *Message {
	m.CC = append(m.CC, addresses...)
	return m
}

func (m *Message) WithSubject(s string) *Message {
	m.Subject = s
	return m
}

// Text sets a plain-text body.
func (m *Message) Text(text string) *Message {
	m.Body = text
	m.IsHTML = false
	return m
}

// HTML renders tmpl with data as the body. A render error is returned
// from Send.
func (m *Message) HTML(tmpl *template.Template, data interface{}) *Message {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		m.err = fmt.Errorf("mail: render %s: %w", tmpl.Name(), err)
		return m
	}
	m.Body = buf.String()
	m.IsHTML = true
	return m
}

// Send delivers the message through the configured Mailer.
func (m *Message) Send(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	if len(m.To) == 0 {
		return errors.New("mail: no recipients")
	}
	return mailer().Send(ctx, m)
}

// LogMailer writes messages to the log.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, m *Message) error {
	logger.WithCtx(ctx).Info("mail: (log driver)", "to", strings.Join(m.To, ","), "subject", m.Subject)
	return nil
}

// SMTPMailer delivers over SMTP; implicit TLS on port 465, STARTTLS
// otherwise.
type SMTPMailer struct {
	Config SMTP
}

func (s SMTPMailer) Send(_ context.Context, m *Message) error {
	cfg := s.Config
	if cfg.Username == "" {
		return errors.New("mail: MAIL_USERNAME not configured")
	}

	from := fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
	rcpt := append(append([]string(nil), m.To...), m.CC...)
	raw := m.raw(from)

	addr := cfg.Host + ":" + cfg.Port
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)

	if cfg.Port == "465" {
		return sendTLS(addr, auth, cfg.From, rcpt, raw, cfg.Host)
	}
	return smtp.SendMail(addr, auth, cfg.From, rcpt, raw)
}

func sendTLS(addr string, auth smtp.Auth, from string, to []string, raw []byte, host string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, a := range to {
		if err := client.Rcpt(a); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (m *Message) raw(from string) []byte {
	contentType := "text/plain"
	if m.IsHTML {
		contentType = "text/html"
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(m.To, ", ") + "\r\n")
	if len(m.CC) > 0 {
		b.WriteString("Cc: " + strings.Join(m.CC, ", ") + "\r\n")
	}
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	return []byte(b.String())
}
