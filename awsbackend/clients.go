// Package awsbackend implements the harness backend interfaces on the AWS SDK: SQS for
// the durable inbox, EventBridge for event routing, and STS for caller identity. Each
// implementation wraps the SDK client behind a minimal interface so tests can substitute
// a stub, and the provided constructors accept any aws.Config, so the same code runs
// against real AWS or an in-process mockaws endpoint.
package awsbackend

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/eventbridge-contrib/session-harness/harness"
)

// Backends bundles one implementation of each backend interface the harness needs.
type Backends struct {
	Messaging harness.MessagingBackend
	Routing   harness.EventRoutingBackend
	Identity  harness.IdentityBackend
}

// NewBackends constructs all three backends from a single AWS configuration.
func NewBackends(cfg aws.Config) Backends {
	return Backends{
		Messaging: NewSQSMessaging(sqs.NewFromConfig(cfg)),
		Routing:   NewEventBridgeRouting(eventbridge.NewFromConfig(cfg)),
		Identity:  NewSTSIdentity(sts.NewFromConfig(cfg)),
	}
}

// LoadDefaultBackends resolves the ambient AWS credential chain for the given region and
// constructs the backends from it.
func LoadDefaultBackends(ctx context.Context, region string) (Backends, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return Backends{}, fmt.Errorf("load aws config: %w", err)
	}
	return NewBackends(cfg), nil
}
