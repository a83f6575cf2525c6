package ledger

import (
	"context"

	"autoguard/pkg/eventbus"
	"autoguard/pkg/logging"
)

// AuditSubscriber persists pipeline events as ledger lines.
type AuditSubscriber struct {
	writer *Writer
	topics []string
}

// NewAuditSubscriber subscribes to the given event types and appends each one
// to the ledger at path.
func NewAuditSubscriber(path, service string, topics ...string) *AuditSubscriber {
	if len(topics) == 0 {
		topics = []string{
			eventbus.TypeDiagnosticCompleted,
			eventbus.TypeRecallNotified,
			eventbus.TypeThreatDetected,
			eventbus.TypeUserBlocked,
		}
	}
	return &AuditSubscriber{writer: NewWriter(path, service), topics: topics}
}

func (s *AuditSubscriber) Topics() []string { return s.topics }

func (s *AuditSubscriber) Handle(_ context.Context, evt eventbus.Event) {
	if err := s.writer.Append(evt.Type, evt.Payload); err != nil {
		logging.Errorf("[ledger] append %s: %v", evt.Type, err)
	}
}
