package harness

import "context"

// Entry is one event submitted to the event-routing backend.
type Entry struct {
	// Source is the event source tag, used by rules as a filter value.
	Source string
	// DetailType is the event classification tag, an additional filter dimension.
	DetailType string
	// Detail is the serialized JSON payload of the event.
	Detail string
	// Bus is the name of the event bus the entry is published to.
	Bus string
}

// MessagingBackend is the durable-inbox side of the architecture. The AWS implementation
// is SQS; see package awsbackend.
type MessagingBackend interface {
	// CreateQueue creates a queue with the given access policy document and tags, and
	// returns the queue URL used by all other operations.
	CreateQueue(ctx context.Context, name string, policy string, tags map[string]string) (string, error)
	DeleteQueue(ctx context.Context, queueURL string) error
	// Receive long-polls the queue for up to waitTimeSeconds and returns the raw string
	// bodies of any messages delivered. An empty result is not an error. Reads are
	// destructive: a received message is not seen again.
	Receive(ctx context.Context, queueURL string, waitTimeSeconds int) ([]string, error)
	Purge(ctx context.Context, queueURL string) error
}

// EventRoutingBackend is the pattern-matched event-routing side of the architecture. The
// AWS implementation is EventBridge; see package awsbackend.
type EventRoutingBackend interface {
	// PutRule creates or updates a rule on the given bus. The pattern is a JSON document
	// in the backend's filter-pattern syntax.
	PutRule(ctx context.Context, name string, pattern string, bus string, tags map[string]string) error
	// PutTarget binds a rule to a delivery destination identified by its address (ARN).
	PutTarget(ctx context.Context, rule string, bus string, targetID string, queueARN string) error
	RemoveTarget(ctx context.Context, rule string, bus string, targetID string) error
	DeleteRule(ctx context.Context, name string, bus string) error
	// Publish submits entries to their buses. Implementations must return an error if any
	// entry was not accepted; callers treat publish failure as "not delivered".
	Publish(ctx context.Context, entries []Entry) error
}

// IdentityBackend resolves the calling account, which is needed to construct resource
// addresses. The AWS implementation is STS; see package awsbackend.
type IdentityBackend interface {
	CallerAccountID(ctx context.Context) (string, error)
}
