// Package mail delivers one-time login codes to investors. The SMTP sender
// is the production path; Log and Capture senders serve demo mode and tests.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"sync"
	"time"

	"dataroom.io/internal/obs"
)

// SMTPSender delivers codes over plain SMTP. Authentication is attempted
// only when credentials are configured, so local catchers like Mailpit work
// without any.
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SendCode implements auth.CodeSender.
func (s *SMTPSender) SendCode(ctx context.Context, email, code, purpose string, ttl time.Duration) error {
	subject := "Your access code"
	body := fmt.Sprintf(
		"Your one-time access code is: %s\r\n\r\nIt expires in %d minutes. If you did not request it, ignore this message.\r\n",
		code, int(ttl/time.Minute))

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect smtp %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if s.User != "" && s.Pass != "" {
		// Best-effort: local relays often run without auth support.
		_ = client.Auth(smtp.PlainAuth("", s.User, s.Pass, s.Host))
	}
	if err := client.Mail(s.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(email); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := wc.Write(msg.Bytes()); err != nil {
		_ = wc.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	return wc.Close()
}

// LogSender prints the code to the service log instead of mailing it. Demo
// mode only: it leaks codes by design, never wire it in production.
type LogSender struct{}

func (LogSender) SendCode(ctx context.Context, email, code, purpose string, ttl time.Duration) error {
	obs.LogRequest(map[string]any{
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"type":    "mail",
		"event":   "otp_code_demo",
		"email":   email,
		"code":    code,
		"purpose": purpose,
	})
	return nil
}

// CaptureSender records sent codes for tests.
type CaptureSender struct {
	mu    sync.Mutex
	codes []Captured
}

// Captured is one recorded delivery.
type Captured struct {
	Email   string
	Code    string
	Purpose string
	TTL     time.Duration
}

func (c *CaptureSender) SendCode(ctx context.Context, email, code, purpose string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes = append(c.codes, Captured{Email: email, Code: code, Purpose: purpose, TTL: ttl})
	return nil
}

// Last returns the most recent delivery, if any.
func (c *CaptureSender) Last() (Captured, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.codes) == 0 {
		return Captured{}, false
	}
	return c.codes[len(c.codes)-1], true
}

// Count reports total deliveries.
func (c *CaptureSender) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.codes)
}
