// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package notify sends the security alert email when a credential shows up in a breach.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/alvinbaena/pwdguard/internal/config"
)

const (
	Subject = "SECURITY ALERT: Your Password Was Found in Data Breaches"

	defaultTimeout = 30 * time.Second
)

var (
	ErrUnavailable    = errors.New("notification unavailable")
	ErrInvalidAddress = errors.New("invalid email address")
)

var actions = []string{
	"Change this password on ALL accounts where you use it",
	"Use unique passwords for each account",
	"Consider using a password manager",
	"Enable two-factor authentication where available",
}

var alertTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.5;">
  <h2 style="color: #c0392b;">Security Alert</h2>
  <p>The password you checked was found in <strong>{{.Count}}</strong> data breaches.</p>
  <p>Attackers use these lists to break into accounts, so this password should no longer be used anywhere.</p>
  <h3>Recommended actions</h3>
  <ol>
    {{- range .Actions}}
    <li>{{.}}</li>
    {{- end}}
  </ol>
  <p style="color: #7f8c8d; font-size: 12px;">Sent by pwdguard on {{.Date}}. The password itself is never included in this message.</p>
</body>
</html>
`))

var validate = validator.New()

// Notifier delivers an exposure alert to a recipient.
type Notifier interface {
	Notify(ctx context.Context, recipient string, count int64) error
}

// ValidateAddress checks that addr is usable as a recipient.
func ValidateAddress(addr string) error {
	if err := validate.Var(addr, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return nil
}

type SMTPNotifier struct {
	cfg       config.SMTPConfig
	tlsConfig *tls.Config
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*SMTPNotifier)

func WithLogger(logger zerolog.Logger) Option {
	return func(n *SMTPNotifier) {
		n.logger = logger
	}
}

// WithTLSConfig replaces the TLS configuration used to reach the server, e.g. to trust a
// private CA. ServerName defaults to the configured server.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(n *SMTPNotifier) {
		n.tlsConfig = cfg.Clone()
	}
}

// New returns ErrUnavailable when the SMTP configuration is missing or invalid.
func New(cfg config.SMTPConfig, opts ...Option) (*SMTPNotifier, error) {
	if cfg.IsZero() {
		return nil, fmt.Errorf("%w: email is not configured, run setup-email", ErrUnavailable)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	n := &SMTPNotifier{
		cfg:       cfg,
		tlsConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		logger:    log.Logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.tlsConfig.ServerName == "" {
		n.tlsConfig.ServerName = cfg.Server
	}

	return n, nil
}

// Notify sends the alert. Only the breach count is included, never the credential.
func (n *SMTPNotifier) Notify(ctx context.Context, recipient string, count int64) error {
	if err := ValidateAddress(recipient); err != nil {
		return err
	}

	msg, err := n.buildMessage(recipient, count)
	if err != nil {
		return err
	}

	if err = n.send(ctx, recipient, msg); err != nil {
		return fmt.Errorf("error sending alert to %s: %w", recipient, err)
	}

	n.logger.Info().Msgf("security alert sent to %s", recipient)
	return nil
}

func (n *SMTPNotifier) send(ctx context.Context, recipient string, msg []byte) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	conn, err := n.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err = conn.SetDeadline(deadline); err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, n.cfg.Server)
	if err != nil {
		return err
	}
	defer c.Close()

	if n.cfg.StartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("server does not support STARTTLS")
		}
		if err = c.StartTLS(n.tlsConfig); err != nil {
			return err
		}
	}

	if err = c.Auth(smtp.PlainAuth("", n.cfg.SenderEmail, n.cfg.SenderPassword, n.cfg.Server)); err != nil {
		return err
	}
	if err = c.Mail(n.cfg.SenderEmail); err != nil {
		return err
	}
	if err = c.Rcpt(recipient); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}

	return c.Quit()
}

// dial opens an implicit TLS connection, or a plain one that is upgraded with STARTTLS.
func (n *SMTPNotifier) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(n.cfg.Server, strconv.Itoa(n.cfg.Port))
	if n.cfg.StartTLS {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}

	d := tls.Dialer{Config: n.tlsConfig}
	return d.DialContext(ctx, "tcp", addr)
}

func (n *SMTPNotifier) buildMessage(recipient string, count int64) ([]byte, error) {
	now := n.now()
	p := message.NewPrinter(language.English)

	var body bytes.Buffer
	err := alertTemplate.Execute(&body, struct {
		Count   string
		Actions []string
		Date    string
	}{p.Sprintf("%d", count), actions, now.Format("January 2, 2006")})
	if err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	headers := [][2]string{
		{"From", n.cfg.SenderEmail},
		{"To", recipient},
		{"Subject", Subject},
		{"Date", now.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="UTF-8"`},
	}
	for _, h := range headers {
		msg.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body.String(), "\n", "\r\n"))

	return msg.Bytes(), nil
}
