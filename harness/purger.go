package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/eventbridge-contrib/session-harness/framework"
)

// DefaultSettleInterval is how long QueuePurger waits after a purge before returning.
// Purge completion is not immediately consistent with subsequent receives, so reading the
// queue too soon can observe messages the backend has already accepted for deletion.
const DefaultSettleInterval = 3 * time.Second

// QueuePurger clears a queue and waits out the backend's eventual-consistency settle
// window.
type QueuePurger struct {
	messaging MessagingBackend
	logger    framework.Logger

	// SettleInterval overrides DefaultSettleInterval; tests set it to something small.
	SettleInterval time.Duration
}

func NewQueuePurger(messaging MessagingBackend, logger framework.Logger) *QueuePurger {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &QueuePurger{messaging: messaging, logger: logger, SettleInterval: DefaultSettleInterval}
}

// Purge empties the queue. A purge failure is fatal for the test run, because an inbox
// with unknown residue invalidates any subsequent message assertions.
func (p *QueuePurger) Purge(ctx context.Context, queueURL string) error {
	if err := p.messaging.Purge(ctx, queueURL); err != nil {
		return fmt.Errorf("could not purge queue %s: %w", queueURL, err)
	}
	p.logger.Printf("purged queue %s, waiting %s for purge to settle", queueURL, p.SettleInterval)
	sleepContext(ctx, p.SettleInterval)
	return ctx.Err()
}

// sleepContext pauses for the given duration or until ctx is canceled, whichever is first.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
