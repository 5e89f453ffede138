package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// sendMail is a seam for tests.
var sendMail = smtp.SendMail

// SMTPNotifier relays mail through an SMTP server using PLAIN auth when a
// user is configured.
type SMTPNotifier struct {
	cfg SMTPConfig
	now func() time.Time
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, now: time.Now}
}

func (n *SMTPNotifier) Send(ctx context.Context, address, subject, htmlBody string) error {
	for _, v := range []string{address, subject, n.cfg.From} {
		if err := validHeader(v); err != nil {
			return err
		}
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}
	msg := buildMessage(n.cfg.From, address, subject, htmlBody, n.now())

	// smtp.SendMail takes no context; bound it by running it aside.
	done := make(chan error, 1)
	go func() {
		done <- sendMail(addr, auth, n.cfg.From, []string{address}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
