package mockaws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const sqsContentType = "application/x-amz-json-1.0"

// receivePollInterval is how often a long poll re-checks for messages.
const receivePollInterval = 50 * time.Millisecond

func (s *Service) serveSQS(w http.ResponseWriter, r *http.Request) {
	target := r.Header.Get("X-Amz-Target")
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.sqsError(w, "InvalidRequest", "malformed request body")
		return
	}
	s.logger.Printf("SQS request %s %s", target, string(body))

	switch strings.TrimPrefix(target, "AmazonSQS.") {
	case "CreateQueue":
		s.sqsCreateQueue(w, r, body)
	case "DeleteQueue":
		s.sqsDeleteQueue(w, body)
	case "ReceiveMessage":
		s.sqsReceiveMessage(w, body)
	case "DeleteMessageBatch":
		s.sqsDeleteMessageBatch(w, body)
	case "PurgeQueue":
		s.sqsPurgeQueue(w, body)
	default:
		s.sqsError(w, "InvalidAction", fmt.Sprintf("unsupported operation %q", target))
	}
}

func (s *Service) sqsError(w http.ResponseWriter, code, message string) {
	writeJSON(w, sqsContentType, http.StatusBadRequest, map[string]string{
		"__type":  "com.amazonaws.sqs#" + code,
		"message": message,
	})
}

func (s *Service) sqsCreateQueue(w http.ResponseWriter, r *http.Request, body json.RawMessage) {
	var request struct {
		QueueName  string            `json:"QueueName"`
		Attributes map[string]string `json:"Attributes"`
		Tags       map[string]string `json:"tags"`
	}
	if err := json.Unmarshal(body, &request); err != nil || request.QueueName == "" {
		s.sqsError(w, "InvalidParameterValue", "QueueName is required")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	queue := &mockQueue{
		name:   request.QueueName,
		url:    fmt.Sprintf("http://%s/%s/%s", r.Host, s.accountID, request.QueueName),
		arn:    fmt.Sprintf("arn:aws:sqs:%s:%s:%s", s.region, s.accountID, request.QueueName),
		policy: request.Attributes["Policy"],
		tags:   request.Tags,
	}
	s.queues[request.QueueName] = queue
	writeJSON(w, sqsContentType, http.StatusOK, map[string]string{"QueueUrl": queue.url})
}

// queueByURL resolves a queue from its URL's trailing path segment. The caller must hold
// the lock.
func (s *Service) queueByURL(queueURL string) *mockQueue {
	parts := strings.Split(strings.TrimRight(queueURL, "/"), "/")
	if len(parts) == 0 {
		return nil
	}
	return s.queues[parts[len(parts)-1]]
}

func (s *Service) sqsDeleteQueue(w http.ResponseWriter, body json.RawMessage) {
	var request struct {
		QueueURL string `json:"QueueUrl"`
	}
	_ = json.Unmarshal(body, &request)

	s.lock.Lock()
	queue := s.queueByURL(request.QueueURL)
	if queue != nil {
		delete(s.queues, queue.name)
	}
	s.lock.Unlock()

	if queue == nil {
		s.sqsError(w, "QueueDoesNotExist", "no queue matches the given URL")
		return
	}
	writeJSON(w, sqsContentType, http.StatusOK, map[string]string{})
}

func (s *Service) sqsReceiveMessage(w http.ResponseWriter, body json.RawMessage) {
	var request struct {
		QueueURL            string `json:"QueueUrl"`
		MaxNumberOfMessages int    `json:"MaxNumberOfMessages"`
		WaitTimeSeconds     int    `json:"WaitTimeSeconds"`
	}
	_ = json.Unmarshal(body, &request)
	maxMessages := request.MaxNumberOfMessages
	if maxMessages <= 0 {
		maxMessages = 1
	}

	type outMessage struct {
		MessageID     string `json:"MessageId"`
		ReceiptHandle string `json:"ReceiptHandle"`
		Body          string `json:"Body"`
	}

	deadline := time.Now().Add(time.Duration(request.WaitTimeSeconds) * time.Second)
	for {
		s.lock.Lock()
		queue := s.queueByURL(request.QueueURL)
		if queue == nil {
			s.lock.Unlock()
			s.sqsError(w, "QueueDoesNotExist", "no queue matches the given URL")
			return
		}
		if len(queue.messages) > 0 {
			count := len(queue.messages)
			if count > maxMessages {
				count = maxMessages
			}
			out := make([]outMessage, 0, count)
			for _, m := range queue.messages[:count] {
				out = append(out, outMessage{MessageID: m.id, ReceiptHandle: m.receipt, Body: m.body})
			}
			queue.messages = queue.messages[count:]
			s.lock.Unlock()
			writeJSON(w, sqsContentType, http.StatusOK,
				map[string]interface{}{"Messages": out})
			return
		}
		s.lock.Unlock()

		if !time.Now().Before(deadline) {
			writeJSON(w, sqsContentType, http.StatusOK, map[string]interface{}{})
			return
		}
		time.Sleep(receivePollInterval)
	}
}

func (s *Service) sqsDeleteMessageBatch(w http.ResponseWriter, body json.RawMessage) {
	var request struct {
		QueueURL string `json:"QueueUrl"`
		Entries  []struct {
			ID string `json:"Id"`
		} `json:"Entries"`
	}
	_ = json.Unmarshal(body, &request)

	// Receives are already destructive in this mock, so the batch delete just succeeds.
	type result struct {
		ID string `json:"Id"`
	}
	successful := make([]result, 0, len(request.Entries))
	for _, e := range request.Entries {
		successful = append(successful, result{ID: e.ID})
	}
	writeJSON(w, sqsContentType, http.StatusOK, map[string]interface{}{
		"Successful": successful,
		"Failed":     []result{},
	})
}

func (s *Service) sqsPurgeQueue(w http.ResponseWriter, body json.RawMessage) {
	var request struct {
		QueueURL string `json:"QueueUrl"`
	}
	_ = json.Unmarshal(body, &request)

	s.lock.Lock()
	queue := s.queueByURL(request.QueueURL)
	if queue != nil {
		queue.messages = nil
	}
	s.lock.Unlock()

	if queue == nil {
		s.sqsError(w, "QueueDoesNotExist", "no queue matches the given URL")
		return
	}
	writeJSON(w, sqsContentType, http.StatusOK, map[string]string{})
}
