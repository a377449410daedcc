package harness

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eventbridge-contrib/session-harness/framework"
)

// EventEmitter publishes single test events to the event-routing backend, tagged with the
// session's source and a caller-supplied detail type.
type EventEmitter struct {
	routing EventRoutingBackend
	source  string
	bus     string
	logger  framework.Logger
}

func NewEventEmitter(routing EventRoutingBackend, source, bus string, logger framework.Logger) *EventEmitter {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &EventEmitter{routing: routing, source: source, bus: bus, logger: logger}
}

// FireEvent serializes payload as JSON and publishes it as one entry. A backend failure
// is returned as a PublishError; callers must not treat a failed publish as "maybe
// delivered".
func (e *EventEmitter) FireEvent(ctx context.Context, payload interface{}, detailType string) error {
	detail, err := json.Marshal(payload)
	if err != nil {
		return PublishError{Err: fmt.Errorf("could not serialize event payload: %w", err)}
	}
	e.logger.Printf("firing event source=%q detail-type=%q", e.source, detailType)
	entry := Entry{Source: e.source, DetailType: detailType, Detail: string(detail), Bus: e.bus}
	if err := e.routing.Publish(ctx, []Entry{entry}); err != nil {
		return PublishError{Err: err}
	}
	return nil
}
