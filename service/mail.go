package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"gopkg.in/gomail.v2"
)

var ErrInvalidRecipient = errors.New("invalid email address")

// Dialer is satisfied by *gomail.Dialer
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailNotifier sends events as emails over SMTP
type MailNotifier struct {
	dialer    Dialer
	sender    string
	verifyURL string
}

func NewMailNotifier(d Dialer, sender, verifyURL string) *MailNotifier {
	return &MailNotifier{dialer: d, sender: sender, verifyURL: verifyURL}
}

// NewSMTPDialer returns the gomail dialer used in production
func NewSMTPDialer(host string, port int, username, password string) *gomail.Dialer {
	return gomail.NewDialer(host, port, username, password)
}

func (n *MailNotifier) Notify(ctx context.Context, e Event) error {
	m, err := n.Message(e)
	if err != nil {
		return err
	}

	// gomail has no context support, at least don't start a send that's
	// already too late
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail, %w", err)
	}

	return nil
}

// Message builds the mail for e without sending it
func (n *MailNotifier) Message(e Event) (*gomail.Message, error) {
	if e.Email == "" || e.Email == n.sender {
		return nil, ErrInvalidRecipient
	}

	if e.Kind != EventActivation {
		return nil, fmt.Errorf("unsupported event kind %q", e.Kind)
	}

	link, err := verifyLink(n.verifyURL, e.Token)
	if err != nil {
		return nil, err
	}

	hours := int(time.Until(e.ExpiresAt).Round(time.Hour).Hours())
	if hours < 1 {
		hours = 1
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.sender)
	m.SetHeader("To", e.Email)
	m.SetHeader("Subject", "Verify your email to start tracking your finances")
	m.SetBody("text/html", fmt.Sprintf("Hi %s,<br><br>Click <a href='%s'>here</a> to verify your account.<br><br>This link will expire in %d hours.",
		e.FirstName, link, hours))

	return m, nil
}

// verifyLink appends the token to base as the token query parameter
func verifyLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid verify url, %w", err)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
