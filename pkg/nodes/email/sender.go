// Package email sends messages over SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSMTPPort  = 587
	ImplicitTLSPort  = 465
	defaultDialLimit = 30 * time.Second
)

var ErrSMTPIncomplete = errors.New("SMTP configuration incomplete: host is required")

// SMTPSettings locate and authenticate against an SMTP server. User and
// Password are optional; authentication is skipped without a user.
type SMTPSettings struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// Merge returns s with empty fields filled from defaults.
func (s SMTPSettings) Merge(defaults SMTPSettings) SMTPSettings {
	if s.Host == "" {
		s.Host = defaults.Host
	}

	if s.Port == 0 {
		s.Port = defaults.Port
	}

	if s.User == "" {
		s.User = defaults.User
	}

	if s.Password == "" {
		s.Password = defaults.Password
	}

	if s.From == "" {
		s.From = defaults.From
	}

	if s.FromName == "" {
		s.FromName = defaults.FromName
	}

	return s
}

// Message is one outgoing email.
type Message struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	HTML    bool
}

// Sender delivers a message and returns its Message-ID.
type Sender interface {
	Send(ctx context.Context, settings SMTPSettings, msg Message) (string, error)
}

// SMTPSender delivers mail with net/smtp, upgrading to TLS when the server
// offers STARTTLS and using implicit TLS on port 465.
type SMTPSender struct {
	dialer    *net.Dialer
	tlsConfig *tls.Config
	now       func() time.Time
}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{
		dialer: &net.Dialer{Timeout: defaultDialLimit},
		now:    time.Now,
	}
}

func (s *SMTPSender) Send(ctx context.Context, settings SMTPSettings, msg Message) (string, error) {
	if settings.Host == "" {
		return "", ErrSMTPIncomplete
	}

	port := settings.Port
	if port == 0 {
		port = DefaultSMTPPort
	}

	from := settings.From
	if from == "" {
		from = settings.User
	}

	if from == "" {
		return "", errors.New("email sender address is required")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(from, settings.Host))

	client, err := s.dial(ctx, settings.Host, port)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := s.deliver(client, settings, from, messageID, msg); err != nil {
		return "", err
	}

	return messageID, nil
}

func (s *SMTPSender) dial(ctx context.Context, host string, port int) (*smtp.Client, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := s.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server %s: %w", address, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if port == ImplicitTLSPort {
		conn = tls.Client(conn, s.tls(host))
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("failed to start SMTP session: %w", err)
	}

	return client, nil
}

func (s *SMTPSender) tls(host string) *tls.Config {
	if s.tlsConfig != nil {
		return s.tlsConfig
	}

	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}

func (s *SMTPSender) deliver(client *smtp.Client, settings SMTPSettings, from, messageID string, msg Message) error {
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(s.tls(settings.Host)); err != nil {
			return fmt.Errorf("SMTP STARTTLS failed: %w", err)
		}
	}

	if settings.User != "" {
		auth := smtp.PlainAuth("", settings.User, settings.Password, settings.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM rejected: %w", err)
	}

	for _, rcpt := range recipients(msg) {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP recipient %s rejected: %w", rcpt, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA failed: %w", err)
	}

	if _, err := writer.Write(s.compose(settings, from, messageID, msg)); err != nil {
		_ = writer.Close()

		return fmt.Errorf("failed to write email: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("SMTP server rejected message: %w", err)
	}

	return client.Quit()
}

func (s *SMTPSender) compose(settings SMTPSettings, from, messageID string, msg Message) []byte {
	var buf bytes.Buffer

	sender := from
	if settings.FromName != "" {
		sender = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", settings.FromName), from)
	}

	contentType := "text/plain; charset=utf-8"
	if msg.HTML {
		contentType = "text/html; charset=utf-8"
	}

	writeHeader(&buf, "From", sender)
	writeHeader(&buf, "To", strings.Join(msg.To, ", "))

	if len(msg.Cc) > 0 {
		writeHeader(&buf, "Cc", strings.Join(msg.Cc, ", "))
	}

	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(&buf, "Date", s.now().Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", messageID)
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", contentType)
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	buf.WriteString("\r\n")

	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func recipients(msg Message) []string {
	all := make([]string, 0, len(msg.To)+len(msg.Cc)+len(msg.Bcc))
	all = append(all, msg.To...)
	all = append(all, msg.Cc...)

	return append(all, msg.Bcc...)
}

func domainOf(address, fallback string) string {
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}

	return fallback
}
