// Package notify delivers account emails. Message bodies can carry
// confirmation links, so implementations never log them.
package notify

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/testmart/internal/logging"
)

// Notifier sends one HTML email.
type Notifier interface {
	Send(ctx context.Context, address, subject, htmlBody string) error
}

const ConfirmationSubject = "Confirm your email"

// ConfirmationLink builds the link a user follows to confirm their address.
// appURL is host[:port][/prefix], without a scheme.
func ConfirmationLink(appURL, userID, token string) string {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("code", token)
	return fmt.Sprintf("https://%s/account/confirmemail?%s", strings.TrimSuffix(appURL, "/"), q.Encode())
}

// ConfirmationBody is the HTML body carrying link.
func ConfirmationBody(link string) string {
	return fmt.Sprintf("<a href='%s'>Click to confirm</a>.", html.EscapeString(link))
}

// Nop drops messages. It is the default mailer for local runs.
type Nop struct {
	log logging.Logger
}

func NewNop(log logging.Logger) *Nop {
	return &Nop{log: log.With("module", "notify")}
}

func (n *Nop) Send(ctx context.Context, address, subject, _ string) error {
	n.log.Debug(ctx, "email dropped", "to", address, "subject", subject)
	return nil
}

// buildMessage renders an RFC 5322 message with an HTML body.
func buildMessage(from, to, subject, htmlBody string, date time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// validHeader rejects values that could inject extra headers.
func validHeader(v string) error {
	if strings.ContainsAny(v, "\r\n") {
		return fmt.Errorf("invalid header value %q", v)
	}
	return nil
}
