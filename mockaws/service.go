// Package mockaws provides an in-process HTTP implementation of the slices of the SQS,
// EventBridge, and STS wire protocols that the harness backends use, so integration tests
// can run the real AWS SDK clients against a local endpoint. It implements real event
// routing: events published with PutEvents are matched against the registered rules'
// patterns and delivered to targeted queues in the standard EventBridge envelope.
//
// Rules can be given an activation lag (Service.SetRuleActivationLag) to simulate the
// asynchronous rule propagation that the harness's readiness probing exists to handle:
// events matched by a rule younger than the lag are silently dropped, exactly as a
// not-yet-propagated rule drops them in the real backend.
package mockaws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/eventbridge-contrib/session-harness/framework"
)

// Service is the mock backend. It is safe for concurrent requests. Create one per test
// and serve it with httptest.NewServer.
type Service struct {
	accountID string
	region    string
	logger    framework.Logger
	handler   http.Handler

	lock          sync.Mutex
	queues        map[string]*mockQueue // keyed by queue name
	rules         map[string]*mockRule  // keyed by bus + "|" + rule name
	activationLag time.Duration
	idCounter     int
}

type mockQueue struct {
	name     string
	url      string
	arn      string
	policy   string
	tags     map[string]string
	messages []mockMessage
}

type mockMessage struct {
	id      string
	receipt string
	body    string
}

type mockRule struct {
	name      string
	bus       string
	arn       string
	pattern   eventPattern
	tags      map[string]string
	createdAt time.Time
	targets   map[string]string // target ID -> ARN
}

// eventPattern is the subset of the EventBridge pattern syntax the harness generates.
type eventPattern struct {
	Source     []string `json:"source"`
	DetailType []string `json:"detail-type"`
}

func NewService(accountID, region string, logger framework.Logger) *Service {
	if logger == nil {
		logger = framework.NullLogger()
	}
	s := &Service{
		accountID: accountID,
		region:    region,
		logger:    logger,
		queues:    make(map[string]*mockQueue),
		rules:     make(map[string]*mockRule),
	}

	router := mux.NewRouter()
	router.Path("/").Methods("POST").
		HeadersRegexp("X-Amz-Target", `^AmazonSQS\.`).HandlerFunc(s.serveSQS)
	router.Path("/").Methods("POST").
		HeadersRegexp("X-Amz-Target", `^AWSEvents\.`).HandlerFunc(s.serveEventBridge)
	// STS uses the query protocol: no X-Amz-Target header, the operation is a form field.
	router.Path("/").Methods("POST").HandlerFunc(s.serveSTS)
	s.handler = router

	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// SetRuleActivationLag makes every rule inert for the given duration after its creation.
func (s *Service) SetRuleActivationLag(lag time.Duration) {
	s.lock.Lock()
	s.activationLag = lag
	s.lock.Unlock()
}

// QueueNames returns the names of all queues that currently exist.
func (s *Service) QueueNames() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	names := make([]string, 0, len(s.queues))
	for name := range s.queues {
		names = append(names, name)
	}
	return names
}

// RuleNames returns the names of all rules that currently exist, regardless of bus.
func (s *Service) RuleNames() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	names := make([]string, 0, len(s.rules))
	for _, rule := range s.rules {
		names = append(names, rule.name)
	}
	return names
}

// QueuePolicy returns the access policy document of the named queue, if it exists.
func (s *Service) QueuePolicy(queueName string) (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	q, ok := s.queues[queueName]
	if !ok {
		return "", false
	}
	return q.policy, true
}

func (s *Service) nextID(prefix string) string {
	s.idCounter++
	return fmt.Sprintf("%s-%08d", prefix, s.idCounter)
}

func writeJSON(w http.ResponseWriter, contentType string, status int, body interface{}) {
	data, _ := json.Marshal(body)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
