package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bottlemart/backend/pkg/config"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers transactional email. Implementations must respect ctx
// deadlines; delivery failures are returned, not retried.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

type SMTPMailer struct {
	cfg config.SMTPConfig
	log *zap.SugaredLogger
}

func NewSMTPMailer(cfg *config.Config, log *zap.SugaredLogger) Mailer {
	return &SMTPMailer{cfg: cfg.SMTP, log: log}
}

func (m *SMTPMailer) Send(ctx context.Context, e Email) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(e.Body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{e.To}, []byte(b.String()))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		m.log.Infow("mail_sent", "to", e.To, "subject", e.Subject)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var Module = fx.Options(
	fx.Provide(NewSMTPMailer),
)
