package notify

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// Mailer sends exception emails to the operations address.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends email via SMTP. Port 465 connects over TLS, port 587 uses
// STARTTLS; anything else is plain SMTP for local relays.
type SMTPMailer struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// NewSMTPMailer creates a mailer with the given SMTP configuration.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		from:     cfg.From,
	}
}

// Send sends one email. Recipients may be comma-separated.
func (m *SMTPMailer) Send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("email recipient is required")
	}

	recipients := parseRecipients(to)
	if len(recipients) == 0 {
		return fmt.Errorf("no valid email recipients provided")
	}
	for _, recipient := range recipients {
		if !strings.Contains(recipient, "@") {
			return fmt.Errorf("invalid email address format: %q", recipient)
		}
	}

	msg := buildMessage(m.from, recipients, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	port, err := strconv.Atoi(m.port)
	if err != nil {
		return fmt.Errorf("invalid SMTP port: %s", m.port)
	}

	if port == 587 || port == 465 {
		return m.sendWithTLS(addr, port, recipients, msg)
	}

	var auth smtp.Auth
	if m.user != "" && m.password != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, recipients, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// sendWithTLS handles providers that require an encrypted connection.
func (m *SMTPMailer) sendWithTLS(addr string, port int, recipients []string, msg []byte) error {
	var client *smtp.Client

	if port == 465 {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.host})
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server with TLS: %w", err)
		}
		defer conn.Close()

		client, err = smtp.NewClient(conn, m.host)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		defer conn.Close()

		client, err = smtp.NewClient(conn, m.host)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}
	defer client.Close()

	if m.user != "" && m.password != "" {
		auth := smtp.PlainAuth("", m.user, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range recipients {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open message body: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message body: %w", err)
	}

	return client.Quit()
}

// parseRecipients splits a comma-separated recipient list and trims spaces.
func parseRecipients(value string) []string {
	var recipients []string
	for _, r := range strings.Split(value, ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	return recipients
}

// buildMessage assembles the RFC 822 message bytes.
func buildMessage(from string, recipients []string, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(recipients, ", ")))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

var _ Mailer = (*SMTPMailer)(nil)
