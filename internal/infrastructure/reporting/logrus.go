// Package reporting delivers identity error events to operators.
package reporting

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-identity-service/internal/domain/report"
)

// LogReporter writes every event to the process logger.
type LogReporter struct {
	logger *logrus.Logger
}

func NewLogReporter(logger *logrus.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(_ context.Context, ev report.Event) {
	entry := r.logger.WithFields(logrus.Fields{
		"kind":    string(ev.Kind),
		"user_id": ev.UserID,
	})
	if ev.Error != "" {
		entry = entry.WithField("error", ev.Error)
	}
	switch ev.Kind {
	case report.KindIntegrity:
		entry.Error(ev.Message)
	case report.KindProfileDecode:
		entry.Warn(ev.Message)
	default:
		entry.Info(ev.Message)
	}
}

var _ report.Reporter = (*LogReporter)(nil)
