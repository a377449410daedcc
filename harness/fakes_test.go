package harness

import (
	"context"
	"fmt"
)

// The fakes below implement the three backend interfaces in memory. They share a call
// log so tests can assert on the relative order of backend operations, and they let a
// test inject a failure into any single operation.

type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...interface{}) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

type fakeMessaging struct {
	log *callLog

	queues map[string][]string // queue URL -> pending message bodies

	lastCreatedName string
	lastPolicy      string
	lastTags        map[string]string
	lastWaitTime    int
	receiveCalls    int

	createErr  error
	deleteErr  error
	receiveErr error
	purgeErr   error
}

func newFakeMessaging(log *callLog) *fakeMessaging {
	return &fakeMessaging{log: log, queues: make(map[string][]string)}
}

func (f *fakeMessaging) CreateQueue(
	ctx context.Context, name string, policy string, tags map[string]string,
) (string, error) {
	f.log.add("CreateQueue %s", name)
	if f.createErr != nil {
		return "", f.createErr
	}
	url := "https://sqs.test/123456789012/" + name
	f.queues[url] = nil
	f.lastCreatedName = name
	f.lastPolicy = policy
	f.lastTags = tags
	return url, nil
}

func (f *fakeMessaging) DeleteQueue(ctx context.Context, queueURL string) error {
	f.log.add("DeleteQueue %s", queueURL)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.queues, queueURL)
	return nil
}

func (f *fakeMessaging) Receive(ctx context.Context, queueURL string, waitTimeSeconds int) ([]string, error) {
	f.log.add("Receive %s", queueURL)
	f.receiveCalls++
	f.lastWaitTime = waitTimeSeconds
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	// Destructive read, no real waiting: everything pending is delivered at once.
	pending := f.queues[queueURL]
	f.queues[queueURL] = nil
	return pending, nil
}

func (f *fakeMessaging) Purge(ctx context.Context, queueURL string) error {
	f.log.add("Purge %s", queueURL)
	if f.purgeErr != nil {
		return f.purgeErr
	}
	f.queues[queueURL] = nil
	return nil
}

func (f *fakeMessaging) deliver(queueURL, body string) {
	f.queues[queueURL] = append(f.queues[queueURL], body)
}

type fakeRouting struct {
	log *callLog

	rules   map[string]string // rule name -> pattern JSON
	targets map[string]string // target ID -> queue ARN

	lastRuleBus  string
	lastRuleTags map[string]string
	published    []Entry

	// Published entries are delivered (as their raw Detail) into deliverTo under
	// deliverQueueURL, but only once more than activeAfter publishes have happened.
	// This simulates asynchronous rule propagation.
	deliverTo       *fakeMessaging
	deliverQueueURL string
	activeAfter     int

	putRuleErr      error
	putTargetErr    error
	removeTargetErr error
	deleteRuleErr   error
	publishErr      error
}

func newFakeRouting(log *callLog) *fakeRouting {
	return &fakeRouting{
		log:     log,
		rules:   make(map[string]string),
		targets: make(map[string]string),
	}
}

func (f *fakeRouting) PutRule(ctx context.Context, name, pattern, bus string, tags map[string]string) error {
	f.log.add("PutRule %s", name)
	if f.putRuleErr != nil {
		return f.putRuleErr
	}
	f.rules[name] = pattern
	f.lastRuleBus = bus
	f.lastRuleTags = tags
	return nil
}

func (f *fakeRouting) PutTarget(ctx context.Context, rule, bus, targetID, queueARN string) error {
	f.log.add("PutTarget %s", targetID)
	if f.putTargetErr != nil {
		return f.putTargetErr
	}
	f.targets[targetID] = queueARN
	return nil
}

func (f *fakeRouting) RemoveTarget(ctx context.Context, rule, bus, targetID string) error {
	f.log.add("RemoveTarget %s", targetID)
	if f.removeTargetErr != nil {
		return f.removeTargetErr
	}
	delete(f.targets, targetID)
	return nil
}

func (f *fakeRouting) DeleteRule(ctx context.Context, name, bus string) error {
	f.log.add("DeleteRule %s", name)
	if f.deleteRuleErr != nil {
		return f.deleteRuleErr
	}
	delete(f.rules, name)
	return nil
}

func (f *fakeRouting) Publish(ctx context.Context, entries []Entry) error {
	f.log.add("Publish %d", len(entries))
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, entries...)
	if f.deliverTo != nil && len(f.published) > f.activeAfter {
		for _, e := range entries {
			f.deliverTo.deliver(f.deliverQueueURL, e.Detail)
		}
	}
	return nil
}

type fakeIdentity struct {
	accountID string
	err       error
}

func (f *fakeIdentity) CallerAccountID(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.accountID, nil
}
