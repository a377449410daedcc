package awsbackend

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/eventbridge-contrib/session-harness/harness"
)

// sqsAPI is the subset of the SQS client used by SQSMessaging.
type sqsAPI interface {
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	DeleteQueue(ctx context.Context, params *sqs.DeleteQueueInput, optFns ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
	PurgeQueue(ctx context.Context, params *sqs.PurgeQueueInput, optFns ...func(*sqs.Options)) (*sqs.PurgeQueueOutput, error)
}

// SQSMessaging implements harness.MessagingBackend on an SQS client.
type SQSMessaging struct {
	client sqsAPI
}

var _ harness.MessagingBackend = &SQSMessaging{}

func NewSQSMessaging(client sqsAPI) *SQSMessaging {
	return &SQSMessaging{client: client}
}

func (m *SQSMessaging) CreateQueue(ctx context.Context, name string, policy string, tags map[string]string) (string, error) {
	out, err := m.client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(name),
		Attributes: map[string]string{
			string(sqstypes.QueueAttributeNamePolicy): policy,
		},
		Tags: tags,
	})
	if err != nil {
		return "", fmt.Errorf("creating queue %q: %w", name, err)
	}
	if out.QueueUrl == nil {
		return "", fmt.Errorf("creating queue %q: response had no queue URL", name)
	}
	return *out.QueueUrl, nil
}

// DeleteQueue removes the queue. Deleting a queue that is already gone is treated as
// success, so teardown can be retried safely.
func (m *SQSMessaging) DeleteQueue(ctx context.Context, queueURL string) error {
	_, err := m.client.DeleteQueue(ctx, &sqs.DeleteQueueInput{QueueUrl: aws.String(queueURL)})
	if err != nil && !isErrorCode(err, "QueueDoesNotExist", "AWS.SimpleQueueService.NonExistentQueue") {
		return fmt.Errorf("deleting queue: %w", err)
	}
	return nil
}

// Receive long-polls the queue once and deletes whatever it received before returning, so
// a message is never delivered to the caller twice.
func (m *SQSMessaging) Receive(ctx context.Context, queueURL string, waitTimeSeconds int) ([]string, error) {
	out, err := m.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     int32(waitTimeSeconds),
	})
	if err != nil {
		return nil, fmt.Errorf("receiving messages: %w", err)
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}

	bodies := make([]string, 0, len(out.Messages))
	entries := make([]sqstypes.DeleteMessageBatchRequestEntry, 0, len(out.Messages))
	for i, message := range out.Messages {
		bodies = append(bodies, aws.ToString(message.Body))
		entries = append(entries, sqstypes.DeleteMessageBatchRequestEntry{
			Id:            aws.String(strconv.Itoa(i)),
			ReceiptHandle: message.ReceiptHandle,
		})
	}
	if _, err := m.client.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(queueURL),
		Entries:  entries,
	}); err != nil {
		return nil, fmt.Errorf("deleting received messages: %w", err)
	}
	return bodies, nil
}

func (m *SQSMessaging) Purge(ctx context.Context, queueURL string) error {
	if _, err := m.client.PurgeQueue(ctx, &sqs.PurgeQueueInput{QueueUrl: aws.String(queueURL)}); err != nil {
		return fmt.Errorf("purging queue: %w", err)
	}
	return nil
}
