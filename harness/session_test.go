package harness

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientFixture struct {
	log       *callLog
	messaging *fakeMessaging
	routing   *fakeRouting
	client    *Client
}

func newClientFixture(t *testing.T, config SessionConfig) *clientFixture {
	log := &callLog{}
	messaging := newFakeMessaging(log)
	routing := newFakeRouting(log)

	client, err := NewClient(config, messaging, routing, &fakeIdentity{accountID: "123456789012"},
		WithSettleInterval(time.Millisecond))
	require.NoError(t, err)

	routing.deliverTo = messaging
	routing.deliverQueueURL = "https://sqs.test/123456789012/" + client.Identity().QueueName
	return &clientFixture{log: log, messaging: messaging, routing: routing, client: client}
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	config := testSessionConfig()
	config.ServiceSource = ""
	_, err := NewClient(config, newFakeMessaging(&callLog{}), newFakeRouting(&callLog{}),
		&fakeIdentity{accountID: "123456789012"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serviceSource")
}

func TestNewClientRejectsInvalidOption(t *testing.T) {
	_, err := NewClient(testSessionConfig(), newFakeMessaging(&callLog{}), newFakeRouting(&callLog{}),
		&fakeIdentity{accountID: "123456789012"}, WithRuleReadyTimeout(-time.Second))
	require.Error(t, err)
}

func TestClientsGetDistinctIdentities(t *testing.T) {
	f1 := newClientFixture(t, testSessionConfig())
	f2 := newClientFixture(t, testSessionConfig())
	assert.NotEqual(t, f1.client.Identity().Token, f2.client.Identity().Token)
	assert.NotEqual(t, f1.client.Identity().QueueName, f2.client.Identity().QueueName)
}

func TestClientLifecycleRoundTrip(t *testing.T) {
	f := newClientFixture(t, testSessionConfig())
	ctx := context.Background()

	require.False(t, f.client.QueueURL().IsDefined())
	require.NoError(t, f.client.CreateTestArchitecture(ctx))
	require.True(t, f.client.QueueURL().IsDefined())

	require.NoError(t, f.client.FireEvent(ctx, map[string]int{"k": 1}, "T"))
	messages, err := f.client.GetMessagesFromSQS(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1, "probe residue should have been purged before the test body")
	assert.JSONEq(t, `{"k":1}`, string(messages[0]))

	require.NoError(t, f.client.DestroyTestArchitecture(ctx))
	assert.False(t, f.client.QueueURL().IsDefined())
	assert.Empty(t, f.messaging.queues)
	assert.Empty(t, f.routing.rules)
	assert.Empty(t, f.routing.targets)
}

func TestClientGetMessagesBeforeProvisioningFails(t *testing.T) {
	f := newClientFixture(t, testSessionConfig())
	_, err := f.client.GetMessagesFromSQS(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not provisioned")
}

func TestClientDestroyBeforeProvisioningFails(t *testing.T) {
	f := newClientFixture(t, testSessionConfig())
	require.Error(t, f.client.DestroyTestArchitecture(context.Background()))
}

func TestClientDoubleCreateFails(t *testing.T) {
	f := newClientFixture(t, testSessionConfig())
	ctx := context.Background()
	require.NoError(t, f.client.CreateTestArchitecture(ctx))
	require.Error(t, f.client.CreateTestArchitecture(ctx))
}

func TestClientDestroyCanBeRetriedAfterFailure(t *testing.T) {
	f := newClientFixture(t, testSessionConfig())
	ctx := context.Background()
	require.NoError(t, f.client.CreateTestArchitecture(ctx))

	f.messaging.deleteErr = assert.AnError
	err := f.client.DestroyTestArchitecture(ctx)
	var teardownErr TeardownError
	require.ErrorAs(t, err, &teardownErr)
	require.True(t, f.client.QueueURL().IsDefined(),
		"a failed teardown should leave the session provisioned so it can be retried")

	f.messaging.deleteErr = nil
	require.NoError(t, f.client.DestroyTestArchitecture(ctx))
	assert.False(t, f.client.QueueURL().IsDefined())
	assert.Empty(t, f.messaging.queues)
	assert.Empty(t, f.routing.rules)
	assert.Empty(t, f.routing.targets)
}

func TestClientIsNotReusableAfterFailedCreate(t *testing.T) {
	f := newClientFixture(t, testSessionConfig())
	f.routing.putRuleErr = assert.AnError
	ctx := context.Background()

	require.Error(t, f.client.CreateTestArchitecture(ctx))
	f.routing.putRuleErr = nil

	err := f.client.CreateTestArchitecture(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "new client")
}

func TestClientLoggerReceivesSessionPrefix(t *testing.T) {
	var buf logBuffer
	config := testSessionConfig()
	log := &callLog{}
	messaging := newFakeMessaging(log)
	routing := newFakeRouting(log)
	client, err := NewClient(config, messaging, routing, &fakeIdentity{accountID: "123456789012"},
		WithLogger(&buf), WithSettleInterval(time.Millisecond))
	require.NoError(t, err)
	routing.deliverTo = messaging
	routing.deliverQueueURL = "https://sqs.test/123456789012/" + client.Identity().QueueName

	require.NoError(t, client.CreateTestArchitecture(context.Background()))
	require.NotEmpty(t, buf.lines)
	for _, line := range buf.lines {
		assert.Contains(t, line, client.Identity().Token)
	}
}

type logBuffer struct {
	lines []string
}

func (b *logBuffer) Println(args ...interface{}) {
	b.lines = append(b.lines, fmt.Sprintln(args...))
}

func (b *logBuffer) Printf(message string, args ...interface{}) {
	b.lines = append(b.lines, fmt.Sprintf(message, args...))
}
