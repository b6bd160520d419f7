// Package notify delivers settled ledgers by mail.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/taylorhuo194-ai/Newspaper/internal/telegraph"
)

// ErrNoCredentials is returned when the mailer has no SMTP account to
// send from. Callers treat it as "skip delivery", not as a failure.
var ErrNoCredentials = errors.New("smtp credentials not configured")

// sendFunc submits a finished message. Extracted so tests can capture
// the message instead of talking to a real SMTP server.
type sendFunc func(ctx context.Context, addr string, auth smtp.Auth, from, to string, msg []byte) error

// Mailer sends the day's ledgers as attachments over SMTP with implicit
// TLS (the classic port-465 submission the upstream account expects).
type Mailer struct {
	host     string
	port     int
	username string
	password string
	to       string
	send     sendFunc
}

// NewMailer creates a mailer. Messages go to the account itself when no
// separate recipient is set.
func NewMailer(host string, port int, username, password, to string) *Mailer {
	if host == "" {
		host = "smtp.gmail.com"
	}
	if port <= 0 {
		port = 465
	}
	if to == "" {
		to = username
	}
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		to:       to,
		send:     sendTLS,
	}
}

// Send implements the pipeline's NotificationSink: it mails the given
// ledger files for the named business day. Ledger state is already
// durable when this runs, so a failure here is reported and nothing is
// rolled back or retried.
func (m *Mailer) Send(ctx context.Context, files []string, day string) error {
	if m.username == "" || m.password == "" {
		return ErrNoCredentials
	}
	if len(files) == 0 {
		return errors.New("no files to send")
	}

	msg, err := m.buildMessage(files, day)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := net.JoinHostPort(m.host, fmt.Sprintf("%d", m.port))
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := m.send(ctx, addr, auth, m.username, m.to, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// buildMessage assembles a multipart/mixed message: a short plain-text
// body plus each ledger file as a base64 attachment.
func (m *Mailer) buildMessage(files []string, day string) ([]byte, error) {
	settleClock := telegraph.BoundaryClock()
	subject := fmt.Sprintf("【财联社日报】全天汇总 %s (%s结算)", day, settleClock)
	body := fmt.Sprintf("这是 %s 业务日（至次日%s）的电报汇总，请查收。", day, settleClock)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", m.username)
	fmt.Fprintf(&buf, "To: %s\r\n", m.to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", w.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=UTF-8")
	part, err := w.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("write text part: %w", err)
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", file, err)
		}
		name := filepath.Base(file)

		attHeader := textproto.MIMEHeader{}
		attHeader.Set("Content-Type", "application/octet-stream")
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		att, err := w.CreatePart(attHeader)
		if err != nil {
			return nil, fmt.Errorf("create attachment part: %w", err)
		}
		enc := base64.NewEncoder(base64.StdEncoding, att)
		if _, err := enc.Write(data); err != nil {
			return nil, fmt.Errorf("encode attachment %s: %w", name, err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("finish attachment %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish message: %w", err)
	}
	return buf.Bytes(), nil
}

// sendTLS performs one SMTP submission over an implicit-TLS connection.
func sendTLS(ctx context.Context, addr string, auth smtp.Auth, from, to string, msg []byte) error {
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: hostOf(addr)}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}

	c, err := smtp.NewClient(conn, hostOf(addr))
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp finish: %w", err)
	}
	return c.Quit()
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
