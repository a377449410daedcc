package awsbackend

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/eventbridge-contrib/session-harness/harness"
)

// eventBridgeAPI is the subset of the EventBridge client used by EventBridgeRouting.
type eventBridgeAPI interface {
	PutRule(ctx context.Context, params *eventbridge.PutRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error)
	PutTargets(ctx context.Context, params *eventbridge.PutTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error)
	RemoveTargets(ctx context.Context, params *eventbridge.RemoveTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error)
	DeleteRule(ctx context.Context, params *eventbridge.DeleteRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error)
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgeRouting implements harness.EventRoutingBackend on an EventBridge client.
type EventBridgeRouting struct {
	client eventBridgeAPI
}

var _ harness.EventRoutingBackend = &EventBridgeRouting{}

func NewEventBridgeRouting(client eventBridgeAPI) *EventBridgeRouting {
	return &EventBridgeRouting{client: client}
}

func (r *EventBridgeRouting) PutRule(ctx context.Context, name string, pattern string, bus string, tags map[string]string) error {
	_, err := r.client.PutRule(ctx, &eventbridge.PutRuleInput{
		Name:         aws.String(name),
		EventPattern: aws.String(pattern),
		EventBusName: busName(bus),
		Tags:         ruleTags(tags),
	})
	if err != nil {
		return fmt.Errorf("putting rule %q: %w", name, err)
	}
	return nil
}

func (r *EventBridgeRouting) PutTarget(ctx context.Context, rule string, bus string, targetID string, queueARN string) error {
	out, err := r.client.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule:         aws.String(rule),
		EventBusName: busName(bus),
		Targets: []ebtypes.Target{{
			Id:  aws.String(targetID),
			Arn: aws.String(queueARN),
		}},
	})
	if err != nil {
		return fmt.Errorf("putting target on rule %q: %w", rule, err)
	}
	if out.FailedEntryCount > 0 {
		return fmt.Errorf("putting target on rule %q: %s", rule, describeFailedTarget(out.FailedEntries))
	}
	return nil
}

func (r *EventBridgeRouting) RemoveTarget(ctx context.Context, rule string, bus string, targetID string) error {
	out, err := r.client.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
		Rule:         aws.String(rule),
		EventBusName: busName(bus),
		Ids:          []string{targetID},
	})
	if err != nil {
		if isErrorCode(err, "ResourceNotFoundException") {
			return nil
		}
		return fmt.Errorf("removing target from rule %q: %w", rule, err)
	}
	if out.FailedEntryCount > 0 && len(out.FailedEntries) > 0 {
		return fmt.Errorf("removing target from rule %q: %s: %s", rule,
			aws.ToString(out.FailedEntries[0].ErrorCode), aws.ToString(out.FailedEntries[0].ErrorMessage))
	}
	return nil
}

// DeleteRule removes the rule. As with queue deletion, a rule that is already gone counts
// as success.
func (r *EventBridgeRouting) DeleteRule(ctx context.Context, name string, bus string) error {
	_, err := r.client.DeleteRule(ctx, &eventbridge.DeleteRuleInput{
		Name:         aws.String(name),
		EventBusName: busName(bus),
	})
	if err != nil && !isErrorCode(err, "ResourceNotFoundException") {
		return fmt.Errorf("deleting rule %q: %w", name, err)
	}
	return nil
}

func (r *EventBridgeRouting) Publish(ctx context.Context, entries []harness.Entry) error {
	requestEntries := make([]ebtypes.PutEventsRequestEntry, 0, len(entries))
	for _, entry := range entries {
		requestEntries = append(requestEntries, ebtypes.PutEventsRequestEntry{
			Source:       aws.String(entry.Source),
			DetailType:   aws.String(entry.DetailType),
			Detail:       aws.String(entry.Detail),
			EventBusName: busName(entry.Bus),
		})
	}
	out, err := r.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: requestEntries})
	if err != nil {
		return fmt.Errorf("publishing events: %w", err)
	}
	if out.FailedEntryCount > 0 {
		for _, result := range out.Entries {
			if result.ErrorCode != nil {
				return fmt.Errorf("publishing events: %d entries failed, first error %s: %s",
					out.FailedEntryCount, aws.ToString(result.ErrorCode), aws.ToString(result.ErrorMessage))
			}
		}
		return fmt.Errorf("publishing events: %d entries failed", out.FailedEntryCount)
	}
	return nil
}

// busName maps the empty bus name to nil so the SDK omits the parameter and EventBridge
// applies its default-bus behavior.
func busName(bus string) *string {
	if bus == "" {
		return nil
	}
	return aws.String(bus)
}

func ruleTags(tags map[string]string) []ebtypes.Tag {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]ebtypes.Tag, 0, len(keys))
	for _, key := range keys {
		out = append(out, ebtypes.Tag{Key: aws.String(key), Value: aws.String(tags[key])})
	}
	return out
}

func describeFailedTarget(failed []ebtypes.PutTargetsResultEntry) string {
	if len(failed) == 0 {
		return "request partially failed"
	}
	return fmt.Sprintf("%s: %s", aws.ToString(failed[0].ErrorCode), aws.ToString(failed[0].ErrorMessage))
}
