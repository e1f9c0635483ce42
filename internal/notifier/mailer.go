package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends a single plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPMailer constructs a mailer for the given relay address and sender.
// Username may be empty for relays that accept unauthenticated submission,
// such as the Mailpit container used in development.
func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		host := addr
		if idx := strings.LastIndex(addr, ":"); idx >= 0 {
			host = addr[:idx]
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{addr: addr, from: from, auth: auth}
}

// Send composes an RFC 5322 message and submits it to the relay. The context
// is checked before dialing since net/smtp does not accept one.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String()))
}
