package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type EventKind string

const EventActivation EventKind = "activation"

// Event is something a user has to be told about out of band
type Event struct {
	Kind      EventKind `json:"kind"`
	UserID    string    `json:"userID"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notifier delivers events. Callers never wait on it from a request path and
// only log its errors.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// LogNotifier writes events to the log instead of delivering them. It's the
// development transport, the verification link only shows up at debug level.
type LogNotifier struct {
	log       *zap.Logger
	verifyURL string
}

func NewLogNotifier(log *zap.Logger, verifyURL string) *LogNotifier {
	return &LogNotifier{log: log, verifyURL: verifyURL}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	n.log.Info("Notification",
		zap.String("kind", string(e.Kind)),
		zap.String("userID", e.UserID),
		zap.String("email", e.Email),
		zap.Time("expiresAt", e.ExpiresAt),
	)

	if e.Kind == EventActivation {
		link, err := verifyLink(n.verifyURL, e.Token)
		if err != nil {
			return err
		}

		n.log.Debug("Activation link", zap.String("userID", e.UserID), zap.String("link", link))
	}

	return nil
}
