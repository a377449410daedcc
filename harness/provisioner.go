package harness

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	"github.com/eventbridge-contrib/session-harness/framework"
	"github.com/eventbridge-contrib/session-harness/framework/helpers"
)

// Tag applied to every created resource in addition to the session's source tag, so
// leftovers from interrupted runs can be found by tooling.
const (
	libraryTagKey   = "created-by"
	libraryTagValue = "session-harness"
)

// ArchitectureProvisioner creates and destroys the session's inbox queue, routing rule,
// and target as one unit.
type ArchitectureProvisioner struct {
	config          SessionConfig
	identity        SessionIdentity
	messaging       MessagingBackend
	routing         EventRoutingBackend
	identityBackend IdentityBackend
	prober          *ReadinessProber
	purger          *QueuePurger
	ruleTimeout     time.Duration
	logger          framework.Logger
}

func NewArchitectureProvisioner(
	config SessionConfig,
	identity SessionIdentity,
	messaging MessagingBackend,
	routing EventRoutingBackend,
	identityBackend IdentityBackend,
	prober *ReadinessProber,
	purger *QueuePurger,
	ruleTimeout time.Duration,
	logger framework.Logger,
) *ArchitectureProvisioner {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &ArchitectureProvisioner{
		config:          config,
		identity:        identity,
		messaging:       messaging,
		routing:         routing,
		identityBackend: identityBackend,
		prober:          prober,
		purger:          purger,
		ruleTimeout:     ruleTimeout,
		logger:          logger,
	}
}

// partialCleanupStep undoes one already-completed creation step.
type partialCleanupStep struct {
	resource string
	name     string
	undo     func(context.Context) error
}

// Create provisions queue, rule, and target, waits for the rule to be live, and purges
// probe residue from the queue. It returns the queue URL, whose presence is the session's
// sole "provisioned" marker.
//
// If any step fails, the resources created by earlier steps are cleaned up on a
// best-effort basis before the error is returned, so a failed Create does not orphan a
// queue behind a half-built rule. Cleanup failures are logged but never mask the original
// error.
func (p *ArchitectureProvisioner) Create(ctx context.Context) (string, error) {
	accountID, err := p.identityBackend.CallerAccountID(ctx)
	if err != nil {
		return "", IdentityResolutionError{Err: err}
	}

	queueARN := queueARN(p.config.Region, accountID, p.identity.QueueName)
	ruleARN := ruleARN(p.config.Region, accountID, p.config.BusName, p.identity.RuleName)
	tags := map[string]string{
		"source":      p.config.ServiceSource,
		libraryTagKey: libraryTagValue,
	}

	p.logger.Printf("creating queue %q", p.identity.QueueName)
	queueURL, err := p.messaging.CreateQueue(ctx, p.identity.QueueName,
		queueAccessPolicy(queueARN, ruleARN), tags)
	if err != nil {
		return "", ProvisioningError{Step: "create queue", Err: err}
	}
	var created []partialCleanupStep
	created = append(created, partialCleanupStep{"queue", p.identity.QueueName,
		func(ctx context.Context) error { return p.messaging.DeleteQueue(ctx, queueURL) }})

	p.logger.Printf("creating rule %q on bus %q", p.identity.RuleName, p.config.BusName)
	if err := p.routing.PutRule(ctx, p.identity.RuleName, p.filterPattern(), p.config.BusName, tags); err != nil {
		p.cleanupPartial(ctx, created)
		return "", ProvisioningError{Step: "create rule", Err: err}
	}
	created = append(created, partialCleanupStep{"rule", p.identity.RuleName,
		func(ctx context.Context) error {
			return p.routing.DeleteRule(ctx, p.identity.RuleName, p.config.BusName)
		}})

	p.logger.Printf("creating target %q", p.identity.TargetID)
	if err := p.routing.PutTarget(ctx, p.identity.RuleName, p.config.BusName, p.identity.TargetID, queueARN); err != nil {
		p.cleanupPartial(ctx, created)
		return "", ProvisioningError{Step: "create target", Err: err}
	}
	created = append(created, partialCleanupStep{"target", p.identity.TargetID,
		func(ctx context.Context) error {
			return p.routing.RemoveTarget(ctx, p.identity.RuleName, p.config.BusName, p.identity.TargetID)
		}})

	if err := p.prober.WaitForRule(ctx, queueURL, p.ruleTimeout); err != nil {
		p.cleanupPartial(ctx, created)
		return "", err
	}
	if err := p.purger.Purge(ctx, queueURL); err != nil {
		p.cleanupPartial(ctx, created)
		return "", err
	}
	return queueURL, nil
}

func (p *ArchitectureProvisioner) cleanupPartial(ctx context.Context, created []partialCleanupStep) {
	// Undo in reverse creation order so the target goes before the rule it references.
	for i := len(created) - 1; i >= 0; i-- {
		step := created[i]
		if err := step.undo(ctx); err != nil {
			p.logger.Printf("manual cleanup required: could not remove %s %q after failed provisioning: %s",
				step.resource, step.name, err)
		}
	}
}

// Destroy removes the target, rule, and queue. Every step is attempted even when an
// earlier one fails, so one stuck resource cannot prevent the others from being removed;
// all step failures are aggregated into a single TeardownError, and a manual-remediation
// notice naming each leaked resource is logged.
func (p *ArchitectureProvisioner) Destroy(ctx context.Context, queueURL string) error {
	var failures []TeardownFailure
	if err := p.routing.RemoveTarget(ctx, p.identity.RuleName, p.config.BusName, p.identity.TargetID); err != nil {
		failures = append(failures, TeardownFailure{Resource: "target", Name: p.identity.TargetID, Err: err})
	}
	if err := p.routing.DeleteRule(ctx, p.identity.RuleName, p.config.BusName); err != nil {
		failures = append(failures, TeardownFailure{Resource: "rule", Name: p.identity.RuleName, Err: err})
	}
	if err := p.messaging.DeleteQueue(ctx, queueURL); err != nil {
		failures = append(failures, TeardownFailure{Resource: "queue", Name: p.identity.QueueName, Err: err})
	}
	if len(failures) > 0 {
		for _, f := range failures {
			p.logger.Printf("manual cleanup required: remove %s %q yourself (automatic removal failed: %s)",
				f.Resource, f.Name, f.Err)
		}
		return TeardownError{Failures: failures}
	}
	p.logger.Printf("destroyed queue %q, rule %q, target %q",
		p.identity.QueueName, p.identity.RuleName, p.identity.TargetID)
	return nil
}

// filterPattern builds the rule's event pattern: always the session source, plus a
// detail-type clause containing the probe detail type and each configured detail type
// exactly once. No detail-type clause is emitted when no detail types are configured, so
// the rule matches on source alone.
func (p *ArchitectureProvisioner) filterPattern() string {
	pattern := map[string][]string{
		"source": {p.config.ServiceSource},
	}
	if len(p.config.DetailTypes) > 0 {
		detailTypes := []string{p.identity.ProbeDetailType}
		for _, dt := range p.config.DetailTypes {
			if !slices.Contains(detailTypes, dt) {
				detailTypes = append(detailTypes, dt)
			}
		}
		pattern["detail-type"] = detailTypes
	}
	return helpers.AsJSONString(pattern)
}

func queueARN(region, accountID, queueName string) string {
	return fmt.Sprintf("arn:aws:sqs:%s:%s:%s", region, accountID, queueName)
}

func ruleARN(region, accountID, busName, ruleName string) string {
	// Rules on the default bus are addressed without a bus segment.
	if busName == "" || busName == "default" {
		return fmt.Sprintf("arn:aws:events:%s:%s:rule/%s", region, accountID, ruleName)
	}
	return fmt.Sprintf("arn:aws:events:%s:%s:rule/%s/%s", region, accountID, busName, ruleName)
}

// queueAccessPolicy produces a queue policy allowing only the event-routing service to
// deliver messages, and only on behalf of the session's own rule.
func queueAccessPolicy(queueARN, ruleARN string) string {
	type statement struct {
		Sid       string                       `json:"Sid"`
		Effect    string                       `json:"Effect"`
		Principal map[string]string            `json:"Principal"`
		Action    string                       `json:"Action"`
		Resource  string                       `json:"Resource"`
		Condition map[string]map[string]string `json:"Condition"`
	}
	policy := struct {
		Version   string      `json:"Version"`
		Statement []statement `json:"Statement"`
	}{
		Version: "2012-10-17",
		Statement: []statement{{
			Sid:       "AllowEventDelivery",
			Effect:    "Allow",
			Principal: map[string]string{"Service": "events.amazonaws.com"},
			Action:    "sqs:SendMessage",
			Resource:  queueARN,
			Condition: map[string]map[string]string{
				"ArnEquals": {"aws:SourceArn": ruleARN},
			},
		}},
	}
	return helpers.AsJSONString(policy)
}
