package harness

import (
	"context"
	"errors"
	"time"

	"github.com/eventbridge-contrib/session-harness/framework"
)

// DefaultRuleReadyTimeout bounds how long ReadinessProber waits for the routing rule to
// become live.
const DefaultRuleReadyTimeout = 60 * time.Second

const (
	probePollWaitSeconds   = 2
	probeInterAttemptDelay = 500 * time.Millisecond
)

// ReadinessProber detects when a freshly created rule+target path is actually delivering
// events. Rule propagation in the routing backend is asynchronous with no synchronous
// "ready" signal, so the prober fires a reserved probe event and checks whether it lands
// in the inbox, repeating until one arrives or the timeout budget is spent.
type ReadinessProber struct {
	emitter         *EventEmitter
	collector       *MessageCollector
	probeDetailType string
	logger          framework.Logger
}

func NewReadinessProber(
	emitter *EventEmitter,
	collector *MessageCollector,
	probeDetailType string,
	logger framework.Logger,
) *ReadinessProber {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &ReadinessProber{
		emitter:         emitter,
		collector:       collector,
		probeDetailType: probeDetailType,
		logger:          logger,
	}
}

// WaitForRule probes until a probe event is observed in the inbox or the timeout budget
// is exhausted. A zero or negative timeout selects DefaultRuleReadyTimeout.
//
// The budget is divided into a fixed number of attempts, each consisting of one probe
// publish, one short receive poll, and a minimum inter-attempt delay, so an instantly
// responding backend cannot turn this into a tight publish loop. An empty poll result is
// "not yet ready", not an error; any other failure aborts immediately.
func (p *ReadinessProber) WaitForRule(ctx context.Context, queueURL string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultRuleReadyTimeout
	}
	perAttempt := probePollWaitSeconds*time.Second + probeInterAttemptDelay
	attempts := int(timeout / perAttempt)
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := p.emitter.FireEvent(ctx, map[string]bool{"probe": true}, p.probeDetailType); err != nil {
			return err
		}
		_, err := p.collector.GetMessages(ctx, queueURL, probePollWaitSeconds, 1)
		if err == nil {
			p.logger.Printf("routing rule is live (confirmed by probe %d of %d)", attempt, attempts)
			return nil
		}
		var empty NoMessagesError
		if !errors.As(err, &empty) {
			return err
		}
		p.logger.Printf("probe %d of %d not delivered yet", attempt, attempts)
		sleepContext(ctx, probeInterAttemptDelay)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return ReadinessTimeoutError{Timeout: timeout}
}
