package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
)

// OperatorNotifier sends an informational notice to the site operators
type OperatorNotifier interface {
	NotifyOperators(ctx context.Context, subject, body string) error
}

// LogNotifier writes operator notices to the log. Used when no mail server
// is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) NotifyOperators(ctx context.Context, subject, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "operator notice", "subject", subject, "body", body)
	return nil
}

// SMTPNotifier mails operator notices to a fixed list of admins
type SMTPNotifier struct {
	Addr     string // host:port
	Username string
	Password string
	From     string
	To       []string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates a notifier that delivers through addr
func NewSMTPNotifier(addr, username, password, from string, to []string) *SMTPNotifier {
	return &SMTPNotifier{
		Addr:     addr,
		Username: username,
		Password: password,
		From:     from,
		To:       to,
		send:     smtp.SendMail,
	}
}

const subjectPrefix = "[encoder] "

func (n *SMTPNotifier) NotifyOperators(ctx context.Context, subject, body string) error {
	if len(n.To) == 0 {
		return nil
	}

	var auth smtp.Auth
	if n.Username != "" {
		host, _, err := net.SplitHostPort(n.Addr)
		if err != nil {
			return fmt.Errorf("invalid SMTP address %q: %w", n.Addr, err)
		}
		auth = smtp.PlainAuth("", n.Username, n.Password, host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(n.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s%s\r\n", subjectPrefix, subject)
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	if err := n.send(n.Addr, auth, n.From, n.To, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to mail operators: %w", err)
	}
	return nil
}
