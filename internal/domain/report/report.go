// Package report defines the structured error events the identity core emits
// and the sink interface they are delivered to.
package report

import (
	"context"
	"time"
)

// Kind classifies an error event.
type Kind string

const (
	// KindIntegrity: a stored password hash could not be decoded.
	KindIntegrity Kind = "integrity"
	// KindProfileDecode: a stored provider profile is not valid JSON.
	KindProfileDecode Kind = "profile_decode"
	// KindProvisioningConflict: folder provisioning gave up after repeated conflicts.
	KindProvisioningConflict Kind = "provisioning_conflict"
)

// Event is one structured error occurrence. It never carries secrets.
type Event struct {
	Kind    Kind      `json:"kind"`
	UserID  string    `json:"user_id,omitempty"`
	Message string    `json:"message"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// NewEvent builds an Event stamped with the current UTC time.
func NewEvent(kind Kind, userID, message string, err error) Event {
	ev := Event{Kind: kind, UserID: userID, Message: message, At: time.Now().UTC()}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Reporter receives error events. Implementations must not block for long
// and must not fail the caller.
type Reporter interface {
	Report(ctx context.Context, ev Event)
}

// Func adapts a plain function to Reporter.
type Func func(ctx context.Context, ev Event)

func (f Func) Report(ctx context.Context, ev Event) { f(ctx, ev) }

// Nop discards every event.
var Nop Reporter = Func(func(context.Context, Event) {})

// Multi fans an event out to every non-nil reporter in order.
func Multi(reporters ...Reporter) Reporter {
	out := make([]Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return Func(func(ctx context.Context, ev Event) {
		for _, r := range out {
			r.Report(ctx, ev)
		}
	})
}
