package harness

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eventbridge-contrib/session-harness/framework"
	"github.com/eventbridge-contrib/session-harness/framework/helpers"
	"github.com/eventbridge-contrib/session-harness/framework/opt"
)

// Client is the facade a test suite uses to run one test session. A Client owns exactly
// one ephemeral architecture (queue + rule + target) at a time, identified by a fresh
// SessionIdentity generated at construction.
//
// A Client must not be used from multiple goroutines: inbox reads are destructive, so two
// concurrent consumers would steal each other's messages. One session, one consumer.
type Client struct {
	config      SessionConfig
	identity    SessionIdentity
	provisioner *ArchitectureProvisioner
	collector   *MessageCollector
	emitter     *EventEmitter
	logger      framework.Logger

	// queueURL is defined only while the architecture is provisioned.
	queueURL opt.Maybe[string]
	// broken is set when provisioning fails; the Client is not reusable after that.
	broken bool
}

type clientOptions struct {
	logger         framework.Logger
	ruleTimeout    time.Duration
	settleInterval time.Duration
}

// ClientOption is the interface for optional configuration of NewClient.
type ClientOption = helpers.ConfigOption[clientOptions]

type clientOptionFunc func(*clientOptions) error

func (f clientOptionFunc) Configure(o *clientOptions) error { return f(o) }

// WithLogger directs the harness's debug output to the given logger. The default is to
// discard it.
func WithLogger(logger framework.Logger) ClientOption {
	return clientOptionFunc(func(o *clientOptions) error {
		o.logger = logger
		return nil
	})
}

// WithRuleReadyTimeout overrides DefaultRuleReadyTimeout for readiness probing.
func WithRuleReadyTimeout(timeout time.Duration) ClientOption {
	return clientOptionFunc(func(o *clientOptions) error {
		if timeout <= 0 {
			return errors.New("rule ready timeout must be positive")
		}
		o.ruleTimeout = timeout
		return nil
	})
}

// WithSettleInterval overrides DefaultSettleInterval for post-purge settling.
func WithSettleInterval(interval time.Duration) ClientOption {
	return clientOptionFunc(func(o *clientOptions) error {
		if interval < 0 {
			return errors.New("settle interval must not be negative")
		}
		o.settleInterval = interval
		return nil
	})
}

// NewClient validates the configuration, generates the session's identity, and wires the
// lifecycle components to the supplied backends.
func NewClient(
	config SessionConfig,
	messaging MessagingBackend,
	routing EventRoutingBackend,
	identityBackend IdentityBackend,
	options ...ClientOption,
) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	opts := clientOptions{
		logger:         framework.NullLogger(),
		ruleTimeout:    DefaultRuleReadyTimeout,
		settleInterval: DefaultSettleInterval,
	}
	if err := helpers.ApplyOptions(&opts, options...); err != nil {
		return nil, err
	}

	identity := NewSessionIdentity(config.ServiceName)
	logger := framework.LoggerWithPrefix(opts.logger, "[session "+identity.Token+"] ")

	emitter := NewEventEmitter(routing, config.ServiceSource, config.BusName, logger)
	collector := NewMessageCollector(messaging, logger)
	prober := NewReadinessProber(emitter, collector, identity.ProbeDetailType, logger)
	purger := NewQueuePurger(messaging, logger)
	purger.SettleInterval = opts.settleInterval
	provisioner := NewArchitectureProvisioner(config, identity, messaging, routing,
		identityBackend, prober, purger, opts.ruleTimeout, logger)

	return &Client{
		config:      config,
		identity:    identity,
		provisioner: provisioner,
		collector:   collector,
		emitter:     emitter,
		logger:      logger,
	}, nil
}

// Identity returns the session's generated resource names.
func (c *Client) Identity() SessionIdentity { return c.identity }

// QueueURL returns the provisioned inbox queue URL, or no value if the architecture is
// not currently provisioned.
func (c *Client) QueueURL() opt.Maybe[string] { return c.queueURL }

// CreateTestArchitecture provisions the session's queue, rule, and target, waits until
// the routing path is confirmed live, and leaves the queue empty and ready for the test
// body. If it fails, partially created resources have been cleaned up on a best-effort
// basis and the Client cannot be reused; construct a new one for the next attempt.
func (c *Client) CreateTestArchitecture(ctx context.Context) error {
	if c.broken {
		return errors.New("a previous provisioning attempt failed; create a new client")
	}
	if c.queueURL.IsDefined() {
		return errors.New("test architecture is already provisioned")
	}
	queueURL, err := c.provisioner.Create(ctx)
	if err != nil {
		c.broken = true
		return err
	}
	c.queueURL = opt.Some(queueURL)
	return nil
}

// DestroyTestArchitecture tears down the session's resources. Each teardown step is
// attempted regardless of earlier failures; if any fail, the returned TeardownError
// names every resource that needs manual removal, and the caller should fail the test
// run rather than hide the leak. After a failed teardown the session still counts as
// provisioned, so DestroyTestArchitecture can be called again to retry; the backends
// treat resources that are already gone as successfully removed.
func (c *Client) DestroyTestArchitecture(ctx context.Context) error {
	if !c.queueURL.IsDefined() {
		return errors.New("test architecture is not provisioned")
	}
	if err := c.provisioner.Destroy(ctx, c.queueURL.Value()); err != nil {
		return err
	}
	c.queueURL = opt.None[string]()
	return nil
}

// FireEvent publishes payload to the session's bus with the session source and the given
// detail type. The rule only routes detail types it was configured for (plus the probe
// type) when SessionConfig.DetailTypes is non-empty.
func (c *Client) FireEvent(ctx context.Context, payload interface{}, detailType string) error {
	return c.emitter.FireEvent(ctx, payload, detailType)
}

// GetMessagesFromSQS collects messages from the session's inbox. Zero values for
// waitTimeSeconds and attempts select DefaultReceiveWaitTimeSeconds and
// DefaultReceiveAttempts. Messages are returned in delivery order, which the backend
// does not guarantee to match publish order.
func (c *Client) GetMessagesFromSQS(ctx context.Context, waitTimeSeconds, attempts int) ([]json.RawMessage, error) {
	if !c.queueURL.IsDefined() {
		return nil, errors.New("test architecture is not provisioned")
	}
	return c.collector.GetMessages(ctx, c.queueURL.Value(), waitTimeSeconds, attempts)
}
