package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-identity-service/pkg/mailer/templates"
)

// Sender delivers one rendered email. *Mailgun implements it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

var _ Sender = (*Mailgun)(nil)

// ErrBadEvent marks a queue message that can never be processed.
var ErrBadEvent = errors.New("mailer: undecodable event")

// alertEvent mirrors the JSON the identity service publishes for each error event.
type alertEvent struct {
	Kind    string    `json:"kind"`
	UserID  string    `json:"user_id"`
	Message string    `json:"message"`
	Error   string    `json:"error"`
	At      time.Time `json:"at"`
}

// AlertDispatcher turns queued identity events into operator emails. Every
// event is logged; only the kinds in Notify are mailed.
type AlertDispatcher struct {
	Sender    Sender
	Recipient string
	AppName   string
	Notify    map[string]bool
	Logger    *logrus.Logger
	Timeout   time.Duration
}

func NewAlertDispatcher(sender Sender, recipient, appName string, logger *logrus.Logger, notify ...string) *AlertDispatcher {
	kinds := make(map[string]bool, len(notify))
	for _, k := range notify {
		kinds[k] = true
	}
	return &AlertDispatcher{Sender: sender, Recipient: recipient, AppName: appName, Notify: kinds, Logger: logger, Timeout: 15 * time.Second}
}

// Handle processes one message body. ErrBadEvent means the message should be
// dropped; any other error is worth a redelivery.
func (d *AlertDispatcher) Handle(ctx context.Context, body []byte) error {
	var ev alertEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if ev.Kind == "" {
		return fmt.Errorf("%w: missing kind", ErrBadEvent)
	}

	entry := d.Logger.WithFields(logrus.Fields{"kind": ev.Kind, "user_id": ev.UserID, "at": ev.At})
	if ev.Error != "" {
		entry = entry.WithField("error", ev.Error)
	}
	entry.Warn(ev.Message)

	if !d.Notify[ev.Kind] || d.Sender == nil || d.Recipient == "" {
		return nil
	}
	subject, text, html, err := mailtpl.Render(mailtpl.IdentityAlert, mailtpl.AlertData{
		AppName: d.AppName,
		Kind:    ev.Kind,
		UserID:  ev.UserID,
		Message: ev.Message,
		Error:   ev.Error,
		At:      ev.At,
	})
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrBadEvent, err)
	}

	c, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()
	if err := d.Sender.Send(c, d.Recipient, subject, text, html); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}
