package harness

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eventbridge-contrib/session-harness/framework"
)

// Defaults for MessageCollector.GetMessages when the caller passes zero values.
const (
	DefaultReceiveWaitTimeSeconds = 20
	DefaultReceiveAttempts        = 4
)

// MessageCollector polls the session's inbox queue with a bounded number of sequential
// long-poll receive calls and decodes the message payloads.
type MessageCollector struct {
	messaging MessagingBackend
	logger    framework.Logger
}

func NewMessageCollector(messaging MessagingBackend, logger framework.Logger) *MessageCollector {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &MessageCollector{messaging: messaging, logger: logger}
}

// GetMessages performs up to attempts sequential receive calls, each long-polling for up
// to waitTimeSeconds, and stops at the first call that returns one or more messages.
// Zero or negative arguments select DefaultReceiveWaitTimeSeconds and
// DefaultReceiveAttempts. If every attempt comes back empty, the result is a
// NoMessagesError naming the attempt count.
//
// Message bodies are decoded as JSON (a malformed body is a hard error, since producers
// in this architecture always publish JSON) and returned in the order the backend
// delivered them. Delivery order is not guaranteed to match publish order, and no
// de-duplication is performed.
func (c *MessageCollector) GetMessages(
	ctx context.Context,
	queueURL string,
	waitTimeSeconds int,
	attempts int,
) ([]json.RawMessage, error) {
	if waitTimeSeconds <= 0 {
		waitTimeSeconds = DefaultReceiveWaitTimeSeconds
	}
	if attempts <= 0 {
		attempts = DefaultReceiveAttempts
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		bodies, err := c.messaging.Receive(ctx, queueURL, waitTimeSeconds)
		if err != nil {
			return nil, fmt.Errorf("receive attempt %d of %d failed: %w", attempt, attempts, err)
		}
		if len(bodies) == 0 {
			c.logger.Printf("receive attempt %d of %d returned no messages", attempt, attempts)
			continue
		}
		messages := make([]json.RawMessage, 0, len(bodies))
		for _, body := range bodies {
			var m json.RawMessage
			if err := json.Unmarshal([]byte(body), &m); err != nil {
				return nil, fmt.Errorf("message body is not valid JSON: %w", err)
			}
			messages = append(messages, m)
		}
		c.logger.Printf("received %d message(s) on attempt %d", len(messages), attempt)
		return messages, nil
	}
	return nil, NoMessagesError{Attempts: attempts}
}
