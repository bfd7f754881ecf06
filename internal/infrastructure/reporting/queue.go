package reporting

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-identity-service/internal/domain/report"
)

// Publisher is the slice of helpers.RabbitPublisher the queue reporter needs.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueReporter forwards events to the alert worker through RabbitMQ.
// Publishing failures are logged and never reach the caller.
type QueueReporter struct {
	pub     Publisher
	logger  *logrus.Logger
	timeout time.Duration
}

func NewQueueReporter(pub Publisher, logger *logrus.Logger) *QueueReporter {
	return &QueueReporter{pub: pub, logger: logger, timeout: 2 * time.Second}
}

func (r *QueueReporter) Report(ctx context.Context, ev report.Event) {
	// The event outlives the request that produced it.
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.pub.PublishJSON(c, ev); err != nil && r.logger != nil {
		r.logger.WithError(err).WithField("kind", string(ev.Kind)).Warn("publish identity event failed")
	}
}

var _ report.Reporter = (*QueueReporter)(nil)
